package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Attribute keys shared by every component.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyUserHash  = "user_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyState     = "state"
	KeyAction    = "action"
	KeyOutcome   = "outcome"
	KeyCalendar  = "calendar_id"
	KeyEventID   = "event_id"
	KeyTextLen   = "text_length"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// New returns a text logger writing to w. Debug enables debug level output.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithOperation scopes logger to one operation.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithService scopes logger to one component.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

func Status(status string) slog.Attr { return slog.String(KeyStatus, status) }

// State logs a resolver state by name.
func State(state fmt.Stringer) slog.Attr { return slog.String(KeyState, state.String()) }

func Action(action string) slog.Attr { return slog.String(KeyAction, action) }

// Outcome logs a resolution or disambiguation outcome.
func Outcome(outcome string) slog.Attr { return slog.String(KeyOutcome, outcome) }

func Calendar(calendarID string) slog.Attr { return slog.String(KeyCalendar, calendarID) }

func EventID(eventID string) slog.Attr { return slog.String(KeyEventID, eventID) }

// TextLength logs how long a user request was. The request itself is only
// logged at debug level.
func TextLength(text string) slog.Attr {
	return slog.Int(KeyTextLen, len(text))
}

// Err returns the error attribute. A nil error yields an empty group, which
// slog drops, so Err(err) is safe on every path.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail hashes an account name so log lines can be correlated
// without carrying the address. Case is ignored.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(email)))
	return "user:" + hex.EncodeToString(sum[:8])
}

func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}
