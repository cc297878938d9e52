package tz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	summer := time.Date(2026, 6, 8, 9, 0, 0, 0, time.UTC)
	require.Equal(t, "08.06.2026 11:00 Uhr", Format(summer))

	winter := time.Date(2026, 12, 24, 15, 30, 0, 0, time.UTC)
	require.Equal(t, "24.12.2026 16:30 Uhr", Format(winter))

	require.Empty(t, Format(time.Time{}))
}
