package source

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeDate = regexp.MustCompile(`(?i)^(\d+)\s*(years?|yrs?|y|months?|mos?|weeks?|w|days?|d|hours?|hrs?|h|minutes?|mins?|m|seconds?|s)\b`)

// ParseRelativeDate converts the short relative timestamps shown on social
// feeds ("3h", "2d", "1w", "5mo", "1yr", "just now") into an absolute time.
// "m" means minutes and "mo" months. RFC 3339 values are accepted as is.
// Anything else yields now.
func ParseRelativeDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if strings.HasPrefix(strings.ToLower(s), "just now") || strings.EqualFold(s, "now") {
		return now
	}

	m := relativeDate.FindStringSubmatch(s)
	if m == nil {
		return now
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return now
	}

	switch unit := strings.ToLower(m[2]); {
	case strings.HasPrefix(unit, "y"):
		return now.AddDate(-n, 0, 0)
	case strings.HasPrefix(unit, "mo"):
		return now.AddDate(0, -n, 0)
	case strings.HasPrefix(unit, "w"):
		return now.AddDate(0, 0, -7*n)
	case strings.HasPrefix(unit, "d"):
		return now.AddDate(0, 0, -n)
	case strings.HasPrefix(unit, "h"):
		return now.Add(-time.Duration(n) * time.Hour)
	case unit == "m" || strings.HasPrefix(unit, "mi"):
		return now.Add(-time.Duration(n) * time.Minute)
	case strings.HasPrefix(unit, "s"):
		return now.Add(-time.Duration(n) * time.Second)
	}
	return now
}
