package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calresolve/internal/action"
	"github.com/teemow/calresolve/internal/calendar"
)

func TestListUpcomingEventsTool(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	cal := &fakeCalendar{events: []calendar.Event{{
		ID:      "e1",
		Summary: "Review",
		Start:   time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC),
	}}}

	tests := []struct {
		name   string
		params map[string]any
		want   int
	}{
		{"default", map[string]any{}, DefaultToolMaxResults},
		{"explicit", map[string]any{"maxResults": 5}, 5},
		{"json number", map[string]any{"maxResults": float64(7)}, 7},
		{"capped", map[string]any{"maxResults": 999}, MaxToolMaxResults},
		{"negative", map[string]any{"maxResults": -1}, DefaultToolMaxResults},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal.lists = nil
			inv := action.ToolInvocation{Name: action.ToolListUpcomingEvents, Params: tt.params}

			got, err := listUpcomingEvents(context.Background(), ToolEnv{Calendar: cal, Location: loc}, inv)
			require.NoError(t, err)
			assert.Equal(t, []int{tt.want}, cal.lists)

			events, ok := got.([]toolEvent)
			require.True(t, ok)
			require.Len(t, events, 1)
			assert.Equal(t, "2025-03-11T10:00:00", events[0].Start)
			assert.Equal(t, "2025-03-11T11:00:00", events[0].End)
		})
	}
}

func TestToolsNames(t *testing.T) {
	tools := Tools{"b": nil, "a": nil}
	assert.Equal(t, []string{"a", "b"}, tools.Names())
	assert.Equal(t, []string{action.ToolListUpcomingEvents}, DefaultTools().Names())
}
