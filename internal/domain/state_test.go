package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusWaiting, StatusPromoted},
		{StatusWaiting, StatusCancelled},
		{StatusPromoted, StatusConfirmed},
		{StatusPromoted, StatusExpired},
		{StatusPromoted, StatusCancelled},
	}
	for _, tr := range allowed {
		require.True(t, CanTransition(tr[0], tr[1]), "%s -> %s should be allowed", tr[0], tr[1])
	}

	rejected := [][2]Status{
		{StatusWaiting, StatusConfirmed},
		{StatusWaiting, StatusExpired},
		{StatusPromoted, StatusWaiting},
		{StatusConfirmed, StatusCancelled},
		{StatusExpired, StatusPromoted},
		{StatusCancelled, StatusWaiting},
	}
	for _, tr := range rejected {
		require.False(t, CanTransition(tr[0], tr[1]), "%s -> %s should be rejected", tr[0], tr[1])
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	all := []Status{StatusWaiting, StatusPromoted, StatusConfirmed, StatusExpired, StatusCancelled}
	for _, from := range all {
		if !from.Terminal() {
			continue
		}
		for _, to := range all {
			require.False(t, CanTransition(from, to), "terminal %s must not move to %s", from, to)
		}
	}
}

func TestCheckTransitionWrapsSentinel(t *testing.T) {
	err := CheckTransition(StatusExpired, StatusConfirmed)
	require.ErrorIs(t, err, ErrInvalidStateTransition)
	require.Contains(t, err.Error(), "expired -> confirmed")
	require.NoError(t, CheckTransition(StatusWaiting, StatusPromoted))
}

func TestCode(t *testing.T) {
	require.Equal(t, "", Code(nil))
	require.Equal(t, "", Code(errors.New("boom")))
	require.Equal(t, "duplicate_submission", Code(fmt.Errorf("submit: %w", ErrDuplicateSubmission)))
	require.Equal(t, "invalid_state_transition", Code(CheckTransition(StatusWaiting, StatusExpired)))
	require.Equal(t, "event_not_found", Code(ErrEventNotFound))
}
