package domain

// Status is the lifecycle state of a registration or waitlist entry.
type Status string

// Registration statuses.
const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Waitlist entry statuses. StatusConfirmed and StatusCancelled are shared
// with registrations.
const (
	StatusWaiting  Status = "waiting"
	StatusPromoted Status = "promoted"
	StatusExpired  Status = "expired"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }
