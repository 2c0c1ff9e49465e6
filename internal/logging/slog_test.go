package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type stateName string

func (s stateName) String() string { return string(s) }

func TestWithHelpers(t *testing.T) {
	logger := slog.Default()
	if WithOperation(logger, "resolver.resolve") == nil {
		t.Error("WithOperation returned nil")
	}
	if WithService(logger, "calendar") == nil {
		t.Error("WithService returned nil")
	}
}

func TestAttributes(t *testing.T) {
	tests := []struct {
		name      string
		attr      slog.Attr
		wantKey   string
		wantValue string
	}{
		{"operation", Operation("resolve"), KeyOperation, "resolve"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"state", State(stateName("tool_pending")), KeyState, "tool_pending"},
		{"action", Action("delete"), KeyAction, "delete"},
		{"outcome", Outcome("no_match"), KeyOutcome, "no_match"},
		{"calendar", Calendar("primary"), KeyCalendar, "primary"},
		{"event", EventID("evt-1"), KeyEventID, "evt-1"},
		{"text length", TextLength("cancel the sync"), KeyTextLen, "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantValue {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantValue)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("test error"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Info("no error", Err(nil))
	if strings.Contains(buf.String(), KeyError+"=") {
		t.Errorf("nil error should be omitted, got %q", buf.String())
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output written at info level: %q", buf.String())
	}

	New(&buf, true).Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug output missing at debug level: %q", buf.String())
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if AnonymizeEmail("") != "" {
		t.Error("empty email should anonymize to empty string")
	}

	hash := AnonymizeEmail("jane@example.com")
	if len(hash) != 21 || !strings.HasPrefix(hash, "user:") {
		t.Errorf("unexpected hash format %q", hash)
	}
	if hash != AnonymizeEmail("jane@example.com") {
		t.Error("AnonymizeEmail should be deterministic")
	}
	if hash != AnonymizeEmail("Jane@Example.com") {
		t.Error("AnonymizeEmail should ignore case")
	}
	if hash == AnonymizeEmail("other@example.com") {
		t.Error("different emails should produce different hashes")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("jane@example.com")
	if attr.Key != KeyUserHash {
		t.Errorf("UserHash key = %q, want %q", attr.Key, KeyUserHash)
	}
	if len(attr.Value.String()) != 21 {
		t.Errorf("UserHash value length = %d, want 21", len(attr.Value.String()))
	}
}
