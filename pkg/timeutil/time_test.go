package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNow_AlwaysUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Now().Location())
}

func TestStartOfDay(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)

	tests := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{"midnight", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)},
		{"late evening", time.Date(2025, 11, 20, 23, 59, 59, 0, time.UTC), time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)},
		{"offset rolls into next UTC day", time.Date(2025, 11, 20, 22, 0, 0, 0, est), time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StartOfDay(tt.input))
		})
	}
}

func TestDaysBeforeAndNextDay(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 24, 0, 0, 0, 0, time.UTC), DaysBefore(now, 6))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), NextDay(now))
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), day)

	for _, bad := range []string{"2024-13-01", "02/29/2024", "", "2023-02-29"} {
		_, err := ParseDay(bad)
		assert.Error(t, err, bad)
	}
}
