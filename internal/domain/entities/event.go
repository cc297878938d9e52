package entities

import "time"

// Event is a capacity-bounded occasion people register for.
type Event struct {
	ID          string
	Title       string
	Description string
	Capacity    int
	StartsAt    time.Time // zero = not scheduled yet
	EndsAt      time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FreeSlots returns max(0, Capacity - confirmed).
func (e *Event) FreeSlots(confirmed int) int {
	if free := e.Capacity - confirmed; free > 0 {
		return free
	}
	return 0
}

// IsFull reports whether confirmed registrations use every slot.
func (e *Event) IsFull(confirmed int) bool {
	return e.FreeSlots(confirmed) == 0
}
