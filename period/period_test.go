package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestWeekOf(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want Week
	}{
		{"jan 1 wednesday", date(2025, time.January, 1), Week{2025, 1}},
		{"sunday opening week 1", date(2024, time.December, 29), Week{2025, 1}},
		{"saturday before week 1", date(2024, time.December, 28), Week{2024, 52}},
		{"saturday closing week 5", date(2025, time.February, 1), Week{2025, 5}},
		{"first of march", date(2025, time.March, 1), Week{2025, 9}},
		{"53rd week", date(2022, time.December, 31), Week{2022, 53}},
		{"jan 1 saturday is a one-day week 1", date(2022, time.January, 1), Week{2022, 1}},
		{"jan 2 sunday starts week 2", date(2022, time.January, 2), Week{2022, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WeekOf(tc.in))
		})
	}
}

func TestWeekBounds(t *testing.T) {
	w := Week{2025, 5}
	assert.Equal(t, time.Sunday, w.Start().Weekday())
	assert.Equal(t, time.Saturday, w.End().Weekday())
	assert.Equal(t, "2025-01-26", w.Start().Format("2006-01-02"))
	assert.Equal(t, "2025-02-01", w.End().Format("2006-01-02"))
}

func TestPreviousDefaults(t *testing.T) {
	now := date(2025, time.March, 5)
	assert.Equal(t, Week{2025, 10}, CurrentWeek(now))
	assert.Equal(t, Week{2025, 9}, PreviousWeek(now))
	assert.Equal(t, Month{2025, time.February}, PreviousMonth(now))
	assert.Equal(t, Month{2024, time.December}, PreviousMonth(date(2025, time.January, 15)))
}

func TestFormatAndParse(t *testing.T) {
	assert.Equal(t, "2025-W09", Week{2025, 9}.String())
	assert.Equal(t, "2025-03", Month{2025, time.March}.String())

	w, err := ParseWeek("2025-W09")
	require.NoError(t, err)
	assert.Equal(t, Week{2025, 9}, w)

	_, err = ParseWeek("2025-W53")
	assert.Error(t, err)
	_, err = ParseWeek("garbage")
	assert.Error(t, err)

	m, err := ParseMonth("2024-12")
	require.NoError(t, err)
	assert.Equal(t, Month{2024, time.December}, m)
}

func TestMonthWeeksShareBoundaryWeek(t *testing.T) {
	jan := Month{2025, time.January}.Weeks()
	feb := Month{2025, time.February}.Weeks()

	assert.Equal(t, []Week{{2025, 1}, {2025, 2}, {2025, 3}, {2025, 4}, {2025, 5}}, jan)
	assert.Equal(t, []Week{{2025, 5}, {2025, 6}, {2025, 7}, {2025, 8}, {2025, 9}}, feb)
	assert.Contains(t, jan, Week{2025, 5})
	assert.Contains(t, feb, Week{2025, 5})
}

func TestDecemberIncludesNextYearsFirstWeek(t *testing.T) {
	dec := Month{2025, time.December}.Weeks()
	// Jan 1 2026 is a Thursday, so Dec 28-31 belong to 2026-W01.
	assert.Equal(t, Week{2026, 1}, dec[len(dec)-1])
	assert.Equal(t, Week{2025, 49}, dec[0])
}
