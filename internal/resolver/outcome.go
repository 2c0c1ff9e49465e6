package resolver

import (
	"github.com/teemow/calresolve/internal/action"
	"github.com/teemow/calresolve/internal/calendar"
	"github.com/teemow/calresolve/internal/disambiguation"
)

// Kind is what the caller should do with an Outcome.
type Kind string

// Outcome kinds.
const (
	// KindConfirmation reports a performed calendar change.
	KindConfirmation Kind = "confirmation"
	// KindDisambiguation asks the user to pick or confirm an event.
	KindDisambiguation Kind = "disambiguation"
	// KindFailure carries a user-facing error message.
	KindFailure Kind = "failure"
)

// Outcome is the result of one resolution. Message is always safe to show to
// the user.
type Outcome struct {
	Kind           Kind                   `json:"kind"`
	Message        string                 `json:"message"`
	Action         *action.Request        `json:"action,omitempty"`
	Event          *calendar.Event        `json:"event,omitempty"`
	Disambiguation *disambiguation.Result `json:"disambiguation,omitempty"`
	Category       Category               `json:"category,omitempty"`
	ToolIterations int                    `json:"toolIterations"`

	// Err is the classified cause of a failure.
	Err   error `json:"-"`
	State State `json:"-"`
}

// Failed reports whether the resolution ended in an error.
func (o *Outcome) Failed() bool {
	return o.Kind == KindFailure
}

// Label is the outcome kind, or the failure category for failures.
func (o *Outcome) Label() string {
	if o.Kind == KindFailure {
		return string(o.Category)
	}
	return string(o.Kind)
}
