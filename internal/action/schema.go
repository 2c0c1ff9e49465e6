package action

import "google.golang.org/genai"

// ToolListUpcomingEvents is the only tool the resolver currently offers the
// model. It returns the upcoming events of a calendar.
const ToolListUpcomingEvents = "list_upcoming_events"

// ResponseSchema is the output shape required from the action generation call.
// It covers both a final action and a tool request.
func ResponseSchema() *genai.Schema {
	actions := make([]string, len(Actions))
	for i, a := range Actions {
		actions[i] = string(a)
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action": {
				Type:        genai.TypeString,
				Description: "Calendar mutation to perform. Omit when requesting a tool.",
				Enum:        actions,
			},
			"calendarId": {
				Type:        genai.TypeString,
				Description: "Calendar identifier. Use 'primary' unless the user names another calendar.",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "Event title. Required for create; for update it is the new title; for delete it identifies the event when no eventId is known.",
			},
			"startDateTime": {
				Type:        genai.TypeString,
				Description: "Local start time without offset, format YYYY-MM-DDTHH:MM:SS.",
				Pattern:     localDateTimePattern.String(),
			},
			"endDateTime": {
				Type:        genai.TypeString,
				Description: "Local end time without offset, format YYYY-MM-DDTHH:MM:SS.",
				Pattern:     localDateTimePattern.String(),
			},
			"eventId": {
				Type:        genai.TypeString,
				Description: "Identifier of an existing event, only when it is known from a tool result.",
			},
			"tool": {
				Type:        genai.TypeObject,
				Description: "Set only when live calendar data is needed before answering.",
				Properties: map[string]*genai.Schema{
					"name": {
						Type:        genai.TypeString,
						Description: "Tool to run.",
						Enum:        []string{ToolListUpcomingEvents},
					},
					"calendarId": {
						Type:        genai.TypeString,
						Description: "Calendar to read.",
					},
					"maxResults": {
						Type:        genai.TypeInteger,
						Description: "Maximum number of events to return.",
					},
				},
				Required: []string{"name"},
			},
		},
		PropertyOrdering: []string{"tool", "action", "calendarId", "summary", "startDateTime", "endDateTime", "eventId"},
	}
}
