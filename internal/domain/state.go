package domain

import "fmt"

// entryTransitions lists the allowed waitlist transitions. Anything missing
// here is rejected with ErrInvalidStateTransition.
var entryTransitions = map[Status][]Status{
	StatusWaiting:  {StatusPromoted, StatusCancelled},
	StatusPromoted: {StatusConfirmed, StatusExpired, StatusCancelled},
}

// CanTransition reports whether a waitlist entry may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range entryTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a wrapped ErrInvalidStateTransition when from → to
// is not allowed.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, from, to)
	}
	return nil
}
