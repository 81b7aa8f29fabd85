// Package review implements the label review state machine: the legal
// state transitions, their idempotence rules under resubmission, and the
// safety withholding policy applied to freshly ingested labels.
package review

import "github.com/vireolabs/machinevision/internal/errors"

// State is the review state of a label suggestion.
type State string

const (
	// StateUnreviewed is the initial state of an ingested label pending
	// human review.
	StateUnreviewed State = "unreviewed"

	// StateAccepted means a reviewer confirmed the label; a durable
	// knowledge-base statement was (or will be) written for it.
	StateAccepted State = "accepted"

	// StateRejected means a reviewer rejected the label.
	StateRejected State = "rejected"

	// StateWithheldPopular suppresses the label from the general review
	// queue while keeping it visible in the uploader's personal queue.
	StateWithheldPopular State = "withheld-popular"

	// StateWithheldAll suppresses the label from all review queues.
	StateWithheldAll State = "withheld-all"

	// StateNotDisplayed marks a label that could not be shown to the
	// reviewer (e.g. untranslated) and was auto-resolved.
	StateNotDisplayed State = "not-displayed"
)

// ErrInvalidState is returned when a caller requests a state outside the
// enumerated set. This is a client-input error, distinct from not-found.
var ErrInvalidState = errors.NewStd("invalid review state")

// AllStates lists every valid review state.
func AllStates() []State {
	return []State{
		StateUnreviewed,
		StateAccepted,
		StateRejected,
		StateWithheldPopular,
		StateWithheldAll,
		StateNotDisplayed,
	}
}

// Valid reports whether s is a member of the review state enum.
func (s State) Valid() bool {
	switch s {
	case StateUnreviewed, StateAccepted, StateRejected,
		StateWithheldPopular, StateWithheldAll, StateNotDisplayed:
		return true
	default:
		return false
	}
}

// Pending reports whether a label in this state is still awaiting review
// in at least one queue.
func (s State) Pending() bool {
	return s == StateUnreviewed || s == StateWithheldPopular
}

func (s State) String() string {
	return string(s)
}
