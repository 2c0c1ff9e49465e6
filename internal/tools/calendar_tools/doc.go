// Package calendar_tools exposes the calendar action resolver as MCP tools.
//
// calendar_resolve_request turns a natural-language request into a calendar
// change, or into a list of candidate events when a delete request is
// ambiguous. The caller confirms one of the candidates with
// calendar_confirm_delete, which is only registered when writes are enabled.
// calendar_list_upcoming lists the next events of a calendar.
package calendar_tools
