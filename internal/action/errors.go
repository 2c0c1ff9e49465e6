package action

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaValidation matches any *SchemaValidationError.
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrIncompleteAction matches any *IncompleteActionError.
	ErrIncompleteAction = errors.New("incomplete action")
)

// SchemaValidationError reports model output that does not conform to the
// action contract. It carries one message per violated constraint.
type SchemaValidationError struct {
	Messages []string
}

func (e *SchemaValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Is makes errors.Is(err, ErrSchemaValidation) work.
func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// IncompleteActionError reports a schema-valid request that lacks the fields
// its action needs.
type IncompleteActionError struct {
	Action  Action
	Missing []string
}

func (e *IncompleteActionError) Error() string {
	return fmt.Sprintf("incomplete %s action: missing %s", e.Action, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrIncompleteAction) work.
func (e *IncompleteActionError) Is(target error) bool {
	return target == ErrIncompleteAction
}
