package lifecycle

import (
	"errors"
	"fmt"
)

// Party identifies how the acting user relates to a session.
type Party int

const (
	// PartyNone is any user who is neither the session's mentor nor its student.
	PartyNone Party = iota
	PartyStudent
	PartyMentor
)

func (p Party) String() string {
	switch p {
	case PartyStudent:
		return "student"
	case PartyMentor:
		return "mentor"
	default:
		return "none"
	}
}

// Effect is the side effect attached to a transition.
type Effect int

const (
	EffectNone Effect = iota
	// EffectRecordCancellation stores the optional cancellation reason.
	EffectRecordCancellation
	// EffectCountCompletion increments both parties' session counters.
	EffectCountCompletion
)

var (
	// ErrNotParty is returned when the actor is not a party of the session.
	ErrNotParty = errors.New("lifecycle: actor is not a session party")
	// ErrPartyNotAllowed is returned when the transition exists but the party may not perform it.
	ErrPartyNotAllowed = errors.New("lifecycle: party may not perform this transition")
	// ErrInvalidTransition is returned when no rule connects the two statuses.
	ErrInvalidTransition = errors.New("lifecycle: invalid transition")
)

// TransitionError names the rejected transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("lifecycle: cannot move session from %s to %s", e.From, e.To)
}

// Is matches ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type rule struct {
	from    []Status
	to      Status
	parties []Party
	effect  Effect
}

var table = []rule{
	{from: []Status{Pending}, to: Confirmed, parties: []Party{PartyMentor}, effect: EffectNone},
	{from: []Status{Pending, Confirmed}, to: Cancelled, parties: []Party{PartyMentor, PartyStudent}, effect: EffectRecordCancellation},
	{from: []Status{Confirmed}, to: Completed, parties: []Party{PartyMentor}, effect: EffectCountCompletion},
	{from: []Status{Pending, Confirmed}, to: NoShow, parties: []Party{PartyMentor}, effect: EffectNone},
}

func (r rule) matches(from, to Status) bool {
	if r.to != to {
		return false
	}
	for _, f := range r.from {
		if f == from {
			return true
		}
	}
	return false
}

func (r rule) permits(p Party) bool {
	for _, allowed := range r.parties {
		if allowed == p {
			return true
		}
	}
	return false
}

// Evaluate checks whether party may move a session from one status to another
// and returns the side effect to apply.
func Evaluate(from, to Status, party Party) (Effect, error) {
	if party == PartyNone {
		return EffectNone, ErrNotParty
	}
	for _, r := range table {
		if !r.matches(from, to) {
			continue
		}
		if !r.permits(party) {
			return EffectNone, fmt.Errorf("%w: %s may not move %s to %s", ErrPartyNotAllowed, party, from, to)
		}
		return r.effect, nil
	}
	return EffectNone, &TransitionError{From: from, To: to}
}

// Next lists the statuses party may move a session in from to.
func Next(from Status, party Party) []Status {
	next := make([]Status, 0, 3)
	for _, r := range table {
		for _, f := range r.from {
			if f == from && r.permits(party) {
				next = append(next, r.to)
			}
		}
	}
	return next
}
