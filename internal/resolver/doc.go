// Package resolver turns one natural-language calendar request into either a
// performed calendar change, a disambiguation proposal or a user-facing
// failure message.
//
// A resolution is a bounded state machine:
//
//	Requesting --tool request--> ToolPending --tool result--> Requesting
//	Requesting --final action--> Resolved
//	any state  --error---------> Failed
//
// Each tool request is executed against the caller's Calendar and its result
// is appended to the conversation before the next generation call. The loop
// fails with ErrToolLoopExceeded once the model asks for more tools than
// Config.MaxToolIterations allows.
//
// Deletes without an event ID never delete anything. They produce a
// disambiguation proposal; the caller runs ConfirmDelete after the user
// picked an event.
package resolver
