package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// DefaultTimeZone is applied to event times when the caller sets none.
const DefaultTimeZone = "UTC"

// EventInput represents the input for creating or updating a calendar event.
// Zero fields are left untouched on update.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Event represents a simplified calendar event
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay,omitempty"`
	Link        string    `json:"link,omitempty"`
	Status      string    `json:"status,omitempty"`
}

// toEvent converts a Google Calendar event to an Event
func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}

	e := Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Link:        event.HtmlLink,
		Status:      event.Status,
	}

	var startAllDay bool
	e.Start, startAllDay = parseEventTime(event.Start)
	e.End, _ = parseEventTime(event.End)
	e.AllDay = startAllDay
	return e
}

// parseEventTime reads either the timed or the all-day form.
func parseEventTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t, false
		}
		return time.Time{}, false
	}
	if dt.Date != "" {
		loc := time.UTC
		if dt.TimeZone != "" {
			if l, err := time.LoadLocation(dt.TimeZone); err == nil {
				loc = l
			}
		}
		if t, err := time.ParseInLocation("2006-01-02", dt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toEventDateTime(t time.Time, timeZone string) *calendar.EventDateTime {
	if timeZone == "" {
		timeZone = DefaultTimeZone
	}
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: timeZone,
	}
}
