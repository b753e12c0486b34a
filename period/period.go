// Package period computes the week and month addresses used by every
// aggregation stage.
//
// Weeks run Sunday through Saturday. Week 1 of a year is the week that
// contains January 1st, so the last days of December can belong to week 1
// of the following year.
package period

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Week addresses one Sunday-Saturday week by its week-numbering year.
type Week struct {
	Year   int
	Number int
}

// Month addresses one calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// WeekOf returns the week containing the calendar date of t (in t's location).
func WeekOf(t time.Time) Week {
	d := dateOnly(t)
	start := startOfWeek(d)

	year := d.Year()
	nextYearStart := startOfWeek(time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC))
	if !d.Before(nextYearStart) {
		year++
	}
	yearStart := startOfWeek(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))

	weeks := int(start.Sub(yearStart) / (7 * day))
	return Week{Year: year, Number: weeks + 1}
}

// CurrentWeek is the default period of the daily stage.
func CurrentWeek(now time.Time) Week {
	return WeekOf(now)
}

// PreviousWeek is the default period of the weekly stage: the week that just completed.
func PreviousWeek(now time.Time) Week {
	return WeekOf(dateOnly(now).Add(-7 * day))
}

// Start returns the Sunday that opens the week.
func (w Week) Start() time.Time {
	yearStart := startOfWeek(time.Date(w.Year, time.January, 1, 0, 0, 0, 0, time.UTC))
	return yearStart.Add(time.Duration(w.Number-1) * 7 * day)
}

// End returns the Saturday that closes the week.
func (w Week) End() time.Time {
	return w.Start().Add(6 * day)
}

// String formats the week as YYYY-Www, the directory name of its artifacts.
func (w Week) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Number)
}

func (w Week) IsZero() bool { return w.Year == 0 && w.Number == 0 }

// ParseWeek parses the YYYY-Www form.
func ParseWeek(s string) (Week, error) {
	var w Week
	if _, err := fmt.Sscanf(s, "%d-W%d", &w.Year, &w.Number); err != nil {
		return Week{}, fmt.Errorf("invalid week %q: %w", s, err)
	}
	if err := w.Validate(); err != nil {
		return Week{}, err
	}
	return w, nil
}

// Validate rejects week numbers that the year does not have.
func (w Week) Validate() error {
	if w.Year < 1970 || w.Number < 1 || w.Number > 54 {
		return fmt.Errorf("invalid week %d of %d", w.Number, w.Year)
	}
	if WeekOf(w.Start()) != w {
		return fmt.Errorf("year %d has no week %d", w.Year, w.Number)
	}
	return nil
}

// MonthOf returns the calendar month of t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// PreviousMonth is the default period of the monthly stage.
func PreviousMonth(now time.Time) Month {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return MonthOf(first.Add(-day))
}

func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// ParseMonth parses the YYYY-MM form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Weeks lists every distinct week that has at least one day inside the month,
// in calendar order. A week crossing a month boundary is listed by both months.
func (m Month) Weeks() []Week {
	var weeks []Week
	seen := make(map[Week]bool)
	last := m.Last()
	for d := m.First(); !d.After(last); d = d.Add(day) {
		w := WeekOf(d)
		if !seen[w] {
			seen[w] = true
			weeks = append(weeks, w)
		}
	}
	return weeks
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfWeek(d time.Time) time.Time {
	return d.Add(-time.Duration(d.Weekday()) * day)
}
