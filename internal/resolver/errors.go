package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/teemow/calresolve/internal/action"
	"github.com/teemow/calresolve/internal/calendar"
	"github.com/teemow/calresolve/internal/disambiguation"
	"github.com/teemow/calresolve/internal/generation"
)

var (
	// ErrGenerationFailure means the model produced no usable output.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrGenerationUnavailable means the model could not be reached or
	// refused the call (network, rate limit, server error).
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrUnrecognizedAction means the action is outside create, update, delete.
	ErrUnrecognizedAction = errors.New("unrecognized action")

	// ErrToolLoopExceeded means the model kept requesting tools past the cap.
	ErrToolLoopExceeded = errors.New("tool loop exceeded")

	// ErrUnknownTool means the model requested a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrCollaboratorFailure wraps calendar failures.
	ErrCollaboratorFailure = errors.New("calendar collaborator failure")

	// ErrReadOnly means a calendar change was requested in read-only mode.
	ErrReadOnly = errors.New("calendar changes are disabled")
)

// Category is the failure class reported in outcomes and metrics.
type Category string

// Failure categories.
const (
	CategorySchemaValidation      Category = "schema_validation"
	CategoryGenerationFailure     Category = "generation_failure"
	CategoryGenerationUnavailable Category = "generation_unavailable"
	CategoryIncompleteAction      Category = "incomplete_action"
	CategoryUnrecognizedAction    Category = "unrecognized_action"
	CategoryToolLoopExceeded      Category = "tool_loop_exceeded"
	CategoryUnknownTool           Category = "unknown_tool"
	CategoryCollaboratorFailure   Category = "collaborator_failure"
	CategoryTimeout               Category = "timeout"
	CategoryReadOnly              Category = "read_only"
	CategoryNotFound              Category = "not_found"
)

// User-facing messages.
const (
	msgRephrase      = "I couldn't turn that into a calendar action. Please rephrase your request."
	msgNotUnderstood = "Sorry, I could not understand that request."
	msgLoopExceeded  = "Sorry, I couldn't work that out. Please try a more specific request."
	msgCalendarError = "Something went wrong while talking to your calendar. Please try again later."
	msgUnavailable   = "Something went wrong while processing your request. Please try again later."
	msgReadOnly      = "Calendar changes are disabled on this server."
	msgNotFound      = "I couldn't find that event. It may have been deleted already."
	msgInvalidFormat = "Invalid data format: "
)

// generationError wraps a failed action generation call. Only a missing or
// non-conforming answer is the model's fault; anything else is reported as
// the model being unavailable.
func generationError(err error) error {
	if errors.Is(err, generation.ErrNoStructuredOutput) {
		return fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	return fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
}

// classify maps an error to its category and user-facing message. Order
// matters: timeouts and cancellations win over the component that saw them.
func classify(err error) (Category, string) {
	var schemaErr *action.SchemaValidationError

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CategoryTimeout, msgCalendarError
	case errors.Is(err, ErrReadOnly):
		return CategoryReadOnly, msgReadOnly
	case errors.Is(err, calendar.ErrEventNotFound):
		return CategoryNotFound, msgNotFound
	case errors.Is(err, ErrToolLoopExceeded):
		return CategoryToolLoopExceeded, msgLoopExceeded
	case errors.Is(err, ErrUnknownTool):
		return CategoryUnknownTool, msgRephrase
	case errors.As(err, &schemaErr):
		return CategorySchemaValidation, msgInvalidFormat + schemaErr.Error()
	case errors.Is(err, action.ErrIncompleteAction):
		return CategoryIncompleteAction, msgNotUnderstood
	case errors.Is(err, ErrUnrecognizedAction):
		return CategoryUnrecognizedAction, msgNotUnderstood
	case errors.Is(err, ErrGenerationUnavailable), errors.Is(err, disambiguation.ErrRankingUnavailable):
		return CategoryGenerationUnavailable, msgUnavailable
	case errors.Is(err, ErrGenerationFailure),
		errors.Is(err, generation.ErrNoStructuredOutput),
		errors.Is(err, disambiguation.ErrRanking):
		return CategoryGenerationFailure, msgRephrase
	default:
		return CategoryCollaboratorFailure, msgCalendarError
	}
}
