package resolver

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calresolve/internal/action"
)

const actionInstructions = `You convert a user's request about their calendar into exactly one JSON object.

Fields:
- action: "create", "update" or "delete".
- calendarId: the calendar to use. Omit it for the user's primary calendar.
- summary: the event title. Required for create and update. For delete, the
  words the user used to describe the event.
- startDateTime, endDateTime: local times formatted YYYY-MM-DDTHH:MM:SS without
  an offset, interpreted in the user's time zone. Required for create. If the
  user gives no end time for a new event, assume it lasts one hour.
- eventId: only when you know the exact ID of an existing event, for example
  from a tool result.

Tools:
If you need to know which events exist (to find the ID of an event to update or
delete), return only a "tool" object instead of an action, for example
{"tool":{"name":"list_upcoming_events"}}. The tool result will be sent back to
you and you can answer again. Available tools: %s.

Resolve relative dates ("tomorrow", "next Friday") against the current time.
Never invent event IDs.`

// systemPrompt returns the instructions for the action call at now.
func systemPrompt(now time.Time, loc *time.Location, tools []string) string {
	local := now.In(loc)
	var b strings.Builder
	fmt.Fprintf(&b, actionInstructions, strings.Join(tools, ", "))
	fmt.Fprintf(&b, "\n\nThe current date and time is %s (%s, %s).",
		local.Format(action.LocalDateTimeLayout), local.Weekday(), loc.String())
	return b.String()
}

// displayTime formats t for user-facing messages.
func displayTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("Mon Jan 2 2006, 15:04")
}
