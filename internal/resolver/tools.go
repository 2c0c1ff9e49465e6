package resolver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/teemow/calresolve/internal/action"
)

// Tool result limits for list_upcoming_events.
const (
	DefaultToolMaxResults = 20
	MaxToolMaxResults     = 50
)

// ToolEnv is what a tool may use while it runs.
type ToolEnv struct {
	Calendar Calendar
	Location *time.Location
}

// ToolFunc executes one tool request. The returned value is serialized as
// JSON into the conversation.
type ToolFunc func(ctx context.Context, env ToolEnv, inv action.ToolInvocation) (any, error)

// Tools maps tool names to their implementation.
type Tools map[string]ToolFunc

// DefaultTools returns the tools advertised in the response schema.
func DefaultTools() Tools {
	return Tools{
		action.ToolListUpcomingEvents: listUpcomingEvents,
	}
}

// Names returns the registered tool names in sorted order.
func (t Tools) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type toolEvent struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end,omitempty"`
}

func listUpcomingEvents(ctx context.Context, env ToolEnv, inv action.ToolInvocation) (any, error) {
	calendarID := inv.String("calendarId")
	if calendarID == "" {
		calendarID = action.DefaultCalendarID
	}
	maxResults := inv.Int("maxResults", DefaultToolMaxResults)
	if maxResults <= 0 {
		maxResults = DefaultToolMaxResults
	}
	if maxResults > MaxToolMaxResults {
		maxResults = MaxToolMaxResults
	}

	events, err := env.Calendar.ListUpcomingEvents(ctx, calendarID, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}

	loc := env.Location
	if loc == nil {
		loc = time.UTC
	}
	out := make([]toolEvent, 0, len(events))
	for _, e := range events {
		te := toolEvent{
			ID:      e.ID,
			Summary: e.Summary,
			Start:   e.Start.In(loc).Format(action.LocalDateTimeLayout),
		}
		if !e.End.IsZero() {
			te.End = e.End.In(loc).Format(action.LocalDateTimeLayout)
		}
		out = append(out, te)
	}
	return out, nil
}
