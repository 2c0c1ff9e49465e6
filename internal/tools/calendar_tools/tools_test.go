package calendar_tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calresolve/internal/calendar"
	"github.com/teemow/calresolve/internal/disambiguation"
	"github.com/teemow/calresolve/internal/generation"
	"github.com/teemow/calresolve/internal/resolver"
	"github.com/teemow/calresolve/internal/server"
)

type fakeCalendar struct {
	mu      sync.Mutex
	events  []calendar.Event
	deletes []string
	limits  []int
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _ string, input calendar.EventInput) (*calendar.Event, error) {
	return &calendar.Event{ID: "created-1", Summary: input.Summary, Start: input.Start, End: input.End}, nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, _, eventID string, input calendar.EventInput) (*calendar.Event, error) {
	return &calendar.Event{ID: eventID, Summary: input.Summary}, nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, _, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.ID == eventID {
			f.deletes = append(f.deletes, eventID)
			return nil
		}
	}
	return calendar.ErrEventNotFound
}

func (f *fakeCalendar) ListUpcomingEvents(_ context.Context, _ string, maxResults int) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, maxResults)
	return f.events, nil
}

// staticGenerator answers action requests with action and ranking requests
// with ranking.
func staticGenerator(action, ranking string) generation.Generator {
	return generation.GeneratorFunc(func(_ context.Context, req generation.Request) ([]byte, error) {
		if req.Purpose == "ranking" {
			return []byte(ranking), nil
		}
		return []byte(action), nil
	})
}

func upcoming() []calendar.Event {
	start := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	return []calendar.Event{
		{ID: "ev1", Summary: "Budget meeting", Start: start, End: start.Add(time.Hour)},
		{ID: "ev2", Summary: "Team meeting", Start: start.Add(24 * time.Hour), End: start.Add(25 * time.Hour)},
	}
}

func newTestServer(t *testing.T, gen generation.Generator, readOnly bool, cal *fakeCalendar) (*mcpserver.MCPServer, *server.ServerContext) {
	t.Helper()

	cfg := resolver.DefaultConfig()
	cfg.ReadOnly = readOnly
	res := resolver.New(gen, disambiguation.New(gen, disambiguation.DefaultConfig()), cfg)

	sc, err := server.NewServerContext(context.Background(), res,
		server.WithCalendarFactory(func(context.Context, string) (resolver.Calendar, error) {
			if cal == nil {
				return nil, errors.New("no token for account")
			}
			return cal, nil
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("calresolve-test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterCalendarTools(s, sc))
	return s, sc
}

func call(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool, ok := s.ListTools()[name]
	require.True(t, ok, "tool %s not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func decodeOutcome(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	return out
}

func TestRegisterCalendarTools_ReadOnly(t *testing.T) {
	s, _ := newTestServer(t, staticGenerator(`{}`, `{}`), true, &fakeCalendar{})

	tools := s.ListTools()
	assert.Contains(t, tools, ToolResolveRequest)
	assert.Contains(t, tools, ToolListUpcoming)
	assert.NotContains(t, tools, ToolConfirmDelete)
}

func TestRegisterCalendarTools_Write(t *testing.T) {
	s, _ := newTestServer(t, staticGenerator(`{}`, `{}`), false, &fakeCalendar{})

	assert.Contains(t, s.ListTools(), ToolConfirmDelete)
}

func TestRegisterCalendarTools_RequiresArguments(t *testing.T) {
	assert.Error(t, RegisterCalendarTools(nil, nil))
}

func TestResolveRequest_Create(t *testing.T) {
	gen := staticGenerator(
		`{"action":"create","summary":"Dentist","startDateTime":"2025-03-14T15:00:00","endDateTime":"2025-03-14T16:00:00"}`, `{}`)
	s, _ := newTestServer(t, gen, false, &fakeCalendar{})

	result := call(t, s, ToolResolveRequest, map[string]any{"request": "dentist friday 3pm"})

	assert.False(t, result.IsError)
	out := decodeOutcome(t, result)
	assert.Equal(t, "confirmation", out["kind"])
	assert.Equal(t, "Dentist", out["event"].(map[string]any)["summary"])
}

func TestResolveRequest_DisambiguationThenConfirm(t *testing.T) {
	gen := staticGenerator(
		`{"action":"delete","summary":"meeting"}`,
		`{"matches":[{"id":"ev1","score":0.85},{"id":"ev2","score":0.82}]}`)
	cal := &fakeCalendar{events: upcoming()}
	s, _ := newTestServer(t, gen, false, cal)

	result := call(t, s, ToolResolveRequest, map[string]any{"request": "cancel my meeting", "account": "work"})

	assert.False(t, result.IsError)
	out := decodeOutcome(t, result)
	assert.Equal(t, "disambiguation", out["kind"])
	candidates := out["disambiguation"].(map[string]any)["candidates"].([]any)
	require.Len(t, candidates, 2)
	assert.Empty(t, cal.deletes)

	picked := candidates[0].(map[string]any)["id"].(string)
	result = call(t, s, ToolConfirmDelete, map[string]any{"eventId": picked, "account": "work"})

	assert.False(t, result.IsError)
	assert.Equal(t, "confirmation", decodeOutcome(t, result)["kind"])
	assert.Equal(t, []string{picked}, cal.deletes)
}

func TestResolveRequest_ReadOnlyRefusesCreate(t *testing.T) {
	gen := staticGenerator(
		`{"action":"create","summary":"Dentist","startDateTime":"2025-03-14T15:00:00","endDateTime":"2025-03-14T16:00:00"}`, `{}`)
	s, _ := newTestServer(t, gen, true, &fakeCalendar{})

	result := call(t, s, ToolResolveRequest, map[string]any{"request": "dentist friday 3pm"})

	assert.True(t, result.IsError)
	out := decodeOutcome(t, result)
	assert.Equal(t, "failure", out["kind"])
	assert.Equal(t, "read_only", out["category"])
}

func TestResolveRequest_Errors(t *testing.T) {
	s, _ := newTestServer(t, staticGenerator(`{}`, `{}`), false, nil)

	result := call(t, s, ToolResolveRequest, map[string]any{"request": "  "})
	assert.True(t, result.IsError)
	assert.Equal(t, "request is required", resultText(t, result))

	result = call(t, s, ToolResolveRequest, map[string]any{"request": "lunch tomorrow"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no token for account")
}

func TestConfirmDelete_NotFound(t *testing.T) {
	s, _ := newTestServer(t, staticGenerator(`{}`, `{}`), false, &fakeCalendar{events: upcoming()})

	result := call(t, s, ToolConfirmDelete, map[string]any{"eventId": "gone"})

	assert.True(t, result.IsError)
	assert.Equal(t, "not_found", decodeOutcome(t, result)["category"])

	result = call(t, s, ToolConfirmDelete, map[string]any{})
	assert.True(t, result.IsError)
	assert.Equal(t, "eventId is required", resultText(t, result))
}

func TestListUpcoming(t *testing.T) {
	cal := &fakeCalendar{events: upcoming()}
	s, _ := newTestServer(t, staticGenerator(`{}`, `{}`), true, cal)

	result := call(t, s, ToolListUpcoming, map[string]any{"maxResults": 500.0})

	assert.False(t, result.IsError)
	var body struct {
		CalendarID string           `json:"calendarId"`
		Count      int              `json:"count"`
		Events     []calendar.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &body))
	assert.Equal(t, "primary", body.CalendarID)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "ev1", body.Events[0].ID)

	call(t, s, ToolListUpcoming, map[string]any{})
	assert.Equal(t, []int{resolver.MaxToolMaxResults, resolver.DefaultToolMaxResults}, cal.limits)
}
