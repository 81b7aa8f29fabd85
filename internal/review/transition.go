package review

import "github.com/vireolabs/machinevision/internal/errors"

// Decision is the outcome of evaluating a requested state transition.
// Three outcomes are possible: apply, apply-with-warning, or suppress.
// Suppression is not an error; batch callers report it per entry so a
// suppressed transition never aborts its siblings.
type Decision struct {
	Apply bool  // whether the new state should be written
	Final State // the state the label ends up in
	Warn  bool  // the transition is legal but suspicious; audit-log it
}

// DecideTransition evaluates a reviewer's requested transition from the
// label's current state. It returns ErrInvalidState when requested is not
// a member of the enum; every other outcome is expressed in the Decision
// so that concurrent double-submissions resolve deterministically:
//
//   - accepted -> rejected is suppressed (Apply=false): an accepted label
//     may already have produced a durable statement and must not be
//     silently un-accepted.
//   - requesting the current state is a no-op reported as success, which
//     makes resubmission of the same review idempotent.
//   - re-reviewing a label that already left the pending states is applied
//     but flagged with Warn, so races between two reviewers are auditable.
func DecideTransition(old, requested State) (Decision, error) {
	if !requested.Valid() {
		return Decision{}, errors.New(ErrInvalidState).
			Category(errors.CategoryValidation).
			Context("requested_state", string(requested)).
			Build()
	}

	if old == StateAccepted && requested == StateRejected {
		return Decision{Apply: false, Final: old}, nil
	}

	if old == requested {
		return Decision{Apply: true, Final: old}, nil
	}

	if !old.Pending() {
		return Decision{Apply: true, Final: requested, Warn: true}, nil
	}

	return Decision{Apply: true, Final: requested}, nil
}
