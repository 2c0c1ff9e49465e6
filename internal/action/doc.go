// Package action defines the structured calendar action contract produced by
// the generation model and validates model output against it.
//
// The generation step emits an Envelope: either a final CalendarActionRequest
// (create, update or delete) or a request to run a tool first. Decode turns
// raw model output into an Envelope, repairing slightly malformed JSON on the
// way. Validate checks the shape of a Request (enum membership, timestamp
// pattern, field lengths) and reports every violated constraint at once.
// CheckComplete checks the fields a given action needs in order to be
// executed.
//
// Example usage:
//
//	env, err := action.Decode(raw)
//	if err != nil {
//	    return err
//	}
//	if inv, ok := env.ToolInvocation(); ok {
//	    // run the tool and ask again
//	}
//	req, err := action.Validate(env.Request)
//	if err != nil {
//	    return err // *action.SchemaValidationError
//	}
//	if err := action.CheckComplete(req); err != nil {
//	    return err // *action.IncompleteActionError
//	}
package action
