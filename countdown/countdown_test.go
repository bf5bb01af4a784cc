package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestEasterDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		year  int
		month int
		day   int
	}{
		{2024, 3, 31},
		{2025, 4, 20},
		{2026, 4, 5},
		{2000, 4, 23},
		{1995, 4, 16},
		{2038, 4, 25},
	}

	for _, tt := range tests {
		month, day := EasterDate(tt.year)
		assert.Equal(t, tt.month, month, "easter month for %d", tt.year)
		assert.Equal(t, tt.day, day, "easter day for %d", tt.year)
	}
}

func TestDaysUntil(t *testing.T) {
	t.Parallel()

	t.Run("event today returns zero", func(t *testing.T) {
		t.Parallel()
		event := Event{Title: "Halloween", Kind: KindRecurring, Month: 10, Day: 31}
		assert.Equal(t, 0, DaysUntil(event, date(2026, 10, 31)))
	})

	t.Run("upcoming event this year", func(t *testing.T) {
		t.Parallel()
		event := Event{Title: "Christmas", Kind: KindRecurring, Month: 12, Day: 25}
		assert.Equal(t, 24, DaysUntil(event, date(2026, 12, 1)))
	})

	t.Run("passed event rolls to next year", func(t *testing.T) {
		t.Parallel()
		event := Event{Title: "New Year", Kind: KindCustom, Month: 1, Day: 1}
		// Dec 31 2026 -> Jan 1 2027
		assert.Equal(t, 1, DaysUntil(event, date(2026, 12, 31)))
	})

	t.Run("leap day handled by calendar", func(t *testing.T) {
		t.Parallel()
		event := Event{Title: "Leap", Kind: KindRecurring, Month: 3, Day: 1}
		// 2028 is a leap year, so Feb 28 is two days before Mar 1.
		assert.Equal(t, 2, DaysUntil(event, date(2028, 2, 28)))
		assert.Equal(t, 1, DaysUntil(event, date(2027, 2, 28)))
	})

	t.Run("easter rolls forward after passing", func(t *testing.T) {
		t.Parallel()
		event := Event{Title: "Easter", Kind: KindEaster}
		// Easter 2026 is Apr 5. The day after, the countdown targets
		// Easter 2027 (Mar 28).
		assert.Equal(t, 0, DaysUntil(event, date(2026, 4, 5)))
		after := DaysUntil(event, date(2026, 4, 6))
		assert.Equal(t, 356, after)
	})

	t.Run("idempotent and non-negative", func(t *testing.T) {
		t.Parallel()
		event := Event{Title: "Easter", Kind: KindEaster}
		today := date(2025, 6, 15)
		first := DaysUntil(event, today)
		assert.Equal(t, first, DaysUntil(event, today))
		assert.GreaterOrEqual(t, first, 0)
	})

	t.Run("time of day does not shift the count", func(t *testing.T) {
		t.Parallel()
		event := Event{Title: "Christmas", Kind: KindRecurring, Month: 12, Day: 25}
		lateEvening := time.Date(2026, 12, 1, 23, 45, 0, 0, time.FixedZone("PST", -8*3600))
		assert.Equal(t, 24, DaysUntil(event, lateEvening))
	})
}
