package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-trends/aggregator"
	"tech-trends/models"
	"tech-trends/period"
)

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	prev := lookupEnv
	lookupEnv = func(key string) string { return env[key] }
	t.Cleanup(func() { lookupEnv = prev })
}

var wednesday = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

func TestResolveWeek(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		env      map[string]string
		fallback func(time.Time) period.Week
		want     string
		wantErr  bool
	}{
		{"daily default", "", nil, period.CurrentWeek, "2025-W03", false},
		{"weekly default", "", nil, period.PreviousWeek, "2025-W02", false},
		{"flag wins over env", "2024-W52", map[string]string{"WEEK_NUMBER": "7"}, period.CurrentWeek, "2024-W52", false},
		{"env week with year", "", map[string]string{"WEEK_NUMBER": "5", "YEAR": "2024"}, period.CurrentWeek, "2024-W05", false},
		{"env week defaults to current year", "", map[string]string{"WEEK_NUMBER": "9"}, period.CurrentWeek, "2025-W09", false},
		{"bad env week", "", map[string]string{"WEEK_NUMBER": "five"}, period.CurrentWeek, "", true},
		{"bad flag", "2025-5", nil, period.CurrentWeek, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.env)
			got, err := resolveWeek(tt.flag, wednesday, tt.fallback)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveWeekNumberUsesWeekYear(t *testing.T) {
	withEnv(t, map[string]string{"WEEK_NUMBER": "1"})
	// 2026-W01 starts on Sunday 2025-12-28.
	lateDecember := time.Date(2025, time.December, 30, 9, 0, 0, 0, time.UTC)

	got, err := resolveWeek("", lateDecember, period.CurrentWeek)
	require.NoError(t, err)
	assert.Equal(t, "2026-W01", got.String())
	assert.Equal(t, period.CurrentWeek(lateDecember), got)
}

func TestResolveMonth(t *testing.T) {
	withEnv(t, nil)
	m, err := resolveMonth("", wednesday)
	require.NoError(t, err)
	assert.Equal(t, "2024-12", m.String())

	m, err = resolveMonth("2025-02", wednesday)
	require.NoError(t, err)
	assert.Equal(t, "2025-02", m.String())

	withEnv(t, map[string]string{"MONTH": "3", "YEAR": "2024"})
	m, err = resolveMonth("", wednesday)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", m.String())

	withEnv(t, map[string]string{"MONTH": "13"})
	_, err = resolveMonth("", wednesday)
	assert.Error(t, err)
}

func TestParseAreaFlag(t *testing.T) {
	a, err := parseAreaFlag("")
	require.NoError(t, err)
	assert.Equal(t, models.Area(""), a)

	a, err = parseAreaFlag("back-end")
	require.NoError(t, err)
	assert.Equal(t, models.AreaBackend, a)

	_, err = parseAreaFlag("blockchain")
	assert.ErrorIs(t, err, aggregator.ErrUnknownArea)
	assert.Contains(t, err.Error(), "testing-and-qa")
}
