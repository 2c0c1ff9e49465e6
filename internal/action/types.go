package action

import "time"

// Action is the kind of calendar mutation a request asks for.
type Action string

// Supported actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// DefaultCalendarID is used when the model does not name a calendar.
const DefaultCalendarID = "primary"

// LocalDateTimeLayout is the layout of startDateTime and endDateTime. The
// timestamps carry no offset; they are interpreted in the calendar's time zone.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// Actions lists all supported actions in schema order.
var Actions = []Action{ActionCreate, ActionUpdate, ActionDelete}

// Request is the validated, structured interpretation of a user request
// (CalendarActionRequest).
type Request struct {
	Action        Action `json:"action" validate:"required,oneof=create update delete"`
	CalendarID    string `json:"calendarId,omitempty" validate:"omitempty,max=1024"`
	Summary       string `json:"summary,omitempty" validate:"omitempty,max=1024"`
	StartDateTime string `json:"startDateTime,omitempty" validate:"omitempty,localdatetime"`
	EndDateTime   string `json:"endDateTime,omitempty" validate:"omitempty,localdatetime"`
	EventID       string `json:"eventId,omitempty" validate:"omitempty,max=1024"`

	// typeViolations holds fields Decode found with the wrong JSON type.
	typeViolations []typeViolation
}

// Start parses StartDateTime in loc. The zero time is returned when the field
// is empty.
func (r Request) Start(loc *time.Location) (time.Time, error) {
	return parseLocal(r.StartDateTime, loc)
}

// End parses EndDateTime in loc. The zero time is returned when the field is
// empty.
func (r Request) End(loc *time.Location) (time.Time, error) {
	return parseLocal(r.EndDateTime, loc)
}

func parseLocal(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(LocalDateTimeLayout, value, loc)
}

// ToolCall is the tool request part of the model envelope.
type ToolCall struct {
	Name       string `json:"name"`
	CalendarID string `json:"calendarId,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// Envelope is the raw object returned by the generation step. When Tool names a
// tool the envelope is a tool request and the action fields are ignored.
type Envelope struct {
	Request
	Tool *ToolCall `json:"tool,omitempty"`
}

// ToolInvocation is a named tool request with its parameter bag. It only lives
// for the duration of one resolution loop.
type ToolInvocation struct {
	Name   string
	Params map[string]any
}

// String returns a string parameter, or "" if absent or of another type.
func (t ToolInvocation) String(key string) string {
	if v, ok := t.Params[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an integer parameter, or def if absent.
func (t ToolInvocation) Int(key string, def int) int {
	switch v := t.Params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// ToolInvocation reports whether the envelope is a tool request and returns it.
func (e Envelope) ToolInvocation() (ToolInvocation, bool) {
	if e.Tool == nil || e.Tool.Name == "" {
		return ToolInvocation{}, false
	}
	params := map[string]any{}
	if e.Tool.CalendarID != "" {
		params["calendarId"] = e.Tool.CalendarID
	}
	if e.Tool.MaxResults > 0 {
		params["maxResults"] = e.Tool.MaxResults
	}
	return ToolInvocation{Name: e.Tool.Name, Params: params}, true
}
