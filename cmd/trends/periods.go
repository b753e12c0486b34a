package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"tech-trends/period"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.Getenv

// resolveWeek picks the target week: the flag, then WEEK_NUMBER with YEAR,
// then the fallback computed from now.
func resolveWeek(flag string, now time.Time, fallback func(time.Time) period.Week) (period.Week, error) {
	if flag != "" {
		return period.ParseWeek(flag)
	}
	if n := lookupEnv("WEEK_NUMBER"); n != "" {
		num, err := strconv.Atoi(n)
		if err != nil {
			return period.Week{}, fmt.Errorf("invalid WEEK_NUMBER %q: %w", n, err)
		}
		// 연말에는 주차 연도가 달력 연도보다 앞설 수 있다.
		year := period.CurrentWeek(now).Year
		if y := lookupEnv("YEAR"); y != "" {
			if year, err = strconv.Atoi(y); err != nil {
				return period.Week{}, fmt.Errorf("invalid YEAR %q: %w", y, err)
			}
		}
		w := period.Week{Year: year, Number: num}
		return w, w.Validate()
	}
	return fallback(now), nil
}

// resolveMonth picks the target month: the flag, then MONTH with YEAR, then
// the month before now.
func resolveMonth(flag string, now time.Time) (period.Month, error) {
	if flag != "" {
		return period.ParseMonth(flag)
	}
	if m := lookupEnv("MONTH"); m != "" {
		num, err := strconv.Atoi(m)
		if err != nil || num < 1 || num > 12 {
			return period.Month{}, fmt.Errorf("invalid MONTH %q", m)
		}
		year := now.Year()
		if y := lookupEnv("YEAR"); y != "" {
			if year, err = strconv.Atoi(y); err != nil {
				return period.Month{}, fmt.Errorf("invalid YEAR %q: %w", y, err)
			}
		}
		return period.Month{Year: year, Month: time.Month(num)}, nil
	}
	return period.PreviousMonth(now), nil
}
