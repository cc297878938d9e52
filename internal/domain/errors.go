package domain

import "errors"

// Domain errors.
var (
	ErrEventNotFound          = errors.New("event not found")
	ErrRegistrationNotFound   = errors.New("registration not found")
	ErrEntryNotFound          = errors.New("waitlist entry not found")
	ErrDuplicateSubmission    = errors.New("contact already has an open registration for this event")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrCapacityExceeded       = errors.New("no free slot left for this event")
	ErrCapacityBelowOccupancy = errors.New("capacity cannot be reduced below the confirmed count")
	ErrInvalidApplicant       = errors.New("invalid applicant")
	ErrInvalidEvent           = errors.New("invalid event")
	ErrInvalidSettings        = errors.New("invalid settings")
	ErrDeliveryFailed         = errors.New("notification delivery failed")
	ErrStoreUnavailable       = errors.New("registration store unavailable")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrEventNotFound, "event_not_found"},
	{ErrRegistrationNotFound, "registration_not_found"},
	{ErrEntryNotFound, "entry_not_found"},
	{ErrDuplicateSubmission, "duplicate_submission"},
	{ErrInvalidStateTransition, "invalid_state_transition"},
	{ErrCapacityExceeded, "capacity_exceeded"},
	{ErrCapacityBelowOccupancy, "capacity_below_occupancy"},
	{ErrInvalidApplicant, "invalid_applicant"},
	{ErrInvalidEvent, "invalid_event"},
	{ErrInvalidSettings, "invalid_settings"},
	{ErrDeliveryFailed, "delivery_failed"},
	{ErrStoreUnavailable, "store_unavailable"},
}

// Code returns the stable machine-readable code of a domain error, or "" when
// err does not wrap one.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}
