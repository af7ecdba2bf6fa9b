package entity

import "fmt"

type LeadState string

const (
	LeadStatePending   LeadState = "pending"
	LeadStateProcessed LeadState = "processed"
	LeadStateDiscarded LeadState = "discarded"
	LeadStateSold      LeadState = "sold"
)

// leadTransitions is the complete edge set. sold has no outgoing edge.
var leadTransitions = map[LeadState][]LeadState{
	LeadStatePending:   {LeadStateProcessed, LeadStateDiscarded},
	LeadStateProcessed: {LeadStateSold},
}

func (s LeadState) Valid() bool {
	switch s {
	case LeadStatePending, LeadStateProcessed, LeadStateDiscarded, LeadStateSold:
		return true
	}
	return false
}

func (s LeadState) CanTransitionTo(next LeadState) bool {
	for _, candidate := range leadTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Listable reports whether leads in this state appear in the marketplace.
func (s LeadState) Listable() bool {
	return s == LeadStatePending || s == LeadStateProcessed
}

// TransitionError rejects an edge that is not in the transition table.
type TransitionError struct {
	From LeadState
	To   LeadState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("lead: invalid transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func ValidateTransition(from, to LeadState) error {
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
