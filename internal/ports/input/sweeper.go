package input

import (
	"context"
	"time"
)

// SweepFailure records one entry the sweep could not process.
type SweepFailure struct {
	EntryID string `json:"entryId"`
	EventID string `json:"eventId"`
	Error   string `json:"error"`
}

// SweepReport summarises one sweep run.
type SweepReport struct {
	StartedAt time.Time      `json:"startedAt"`
	Scanned   int            `json:"scanned"`
	Expired   []string       `json:"expired"`
	Promoted  []string       `json:"promoted"`
	Skipped   []string       `json:"skipped"`
	Failures  []SweepFailure `json:"failures"`
}

type SweepUseCase interface {
	Sweep(ctx context.Context, now time.Time) (*SweepReport, error)
}
