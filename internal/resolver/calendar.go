package resolver

import (
	"context"
	"time"

	"github.com/teemow/calresolve/internal/calendar"
)

// Calendar is the authenticated calendar capability of one user. The
// resolver never inspects how it authenticates.
type Calendar interface {
	CreateEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, input calendar.EventInput) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListUpcomingEvents(ctx context.Context, calendarID string, maxResults int) ([]calendar.Event, error)
}

// boundedCalendar applies a timeout to every call of the wrapped Calendar.
type boundedCalendar struct {
	next    Calendar
	timeout time.Duration
}

func withCallTimeout(next Calendar, timeout time.Duration) Calendar {
	if timeout <= 0 {
		return next
	}
	return &boundedCalendar{next: next, timeout: timeout}
}

func (b *boundedCalendar) CreateEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.CreateEvent(ctx, calendarID, input)
}

func (b *boundedCalendar) UpdateEvent(ctx context.Context, calendarID, eventID string, input calendar.EventInput) (*calendar.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.UpdateEvent(ctx, calendarID, eventID, input)
}

func (b *boundedCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.DeleteEvent(ctx, calendarID, eventID)
}

func (b *boundedCalendar) ListUpcomingEvents(ctx context.Context, calendarID string, maxResults int) ([]calendar.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.ListUpcomingEvents(ctx, calendarID, maxResults)
}
