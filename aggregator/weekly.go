package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"tech-trends/analyzer"
	"tech-trends/config"
	"tech-trends/events"
	"tech-trends/metrics"
	"tech-trends/models"
	"tech-trends/period"
	"tech-trends/store"
	"tech-trends/trend"
)

const summaryPlaceholder = "*Summary generation failed. Please refer to individual area trends above.*"

// WeeklyResult describes a weekly run. Published is false when no trend was
// found for the week.
type WeeklyResult struct {
	Week            period.Week
	Areas           []models.Area
	Published       bool
	NarrativeFailed bool
}

// Weekly rolls the per-area trends of a week into one summary document.
type Weekly struct {
	pub      *Publisher
	analyzer analyzer.Analyzer
	areas    []models.Area
}

func NewWeekly(pub *Publisher, an analyzer.Analyzer) *Weekly {
	return &Weekly{pub: pub, analyzer: an, areas: models.AllAreas}
}

func (w *Weekly) Run(ctx context.Context, week period.Week) (res WeeklyResult, err error) {
	started := time.Now()
	res.Week = week
	defer func() { w.finish(ctx, started, res, err) }()

	trends, err := w.loadTrends(ctx, week)
	if err != nil {
		return res, err
	}
	if len(trends) == 0 {
		config.InfoWithFields("no trends found, nothing to summarize", config.Fields{"week": week.String()})
		return res, nil
	}

	// 동점이면 영역 목록 순서를 유지한다.
	sort.SliceStable(trends, func(i, j int) bool {
		return trends[i].RelevanceScore > trends[j].RelevanceScore
	})
	for _, t := range trends {
		res.Areas = append(res.Areas, t.Area)
	}

	var b strings.Builder
	writeSummarySections(&b, week, trends)

	narrative, genErr := w.analyzer.GenerateText(ctx, summaryPrompt(week, trends))
	switch {
	case genErr != nil && ctx.Err() != nil:
		return res, ctx.Err()
	case genErr != nil:
		res.NarrativeFailed = true
		config.ErrorWithFields("executive summary generation failed", config.Fields{"week": week.String(), "error": genErr.Error()})
		narrative = summaryPlaceholder
	}
	fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", strings.TrimSpace(narrative))

	if err := w.pub.Write(ctx, store.SummaryAddress(week), []byte(b.String())); err != nil {
		return res, fmt.Errorf("write weekly summary: %w", err)
	}
	res.Published = true
	config.InfoWithFields("weekly summary published", config.Fields{"week": week.String(), "areas": len(trends)})
	return res, nil
}

// loadTrends reads each area's trend, skipping the ones that are missing.
// It fails only when every read failed with an error.
func (w *Weekly) loadTrends(ctx context.Context, week period.Week) ([]models.Trend, error) {
	var (
		trends  []models.Trend
		lastErr error
		errs    int
	)
	for _, area := range w.areas {
		t, found, err := store.ReadJSON[models.Trend](ctx, w.pub, store.TrendAddress(week, area))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs++
			lastErr = err
			config.WarnWithFields("failed to read trend", config.Fields{"area": area, "week": week.String(), "error": err.Error()})
			continue
		}
		if !found {
			config.DebugWithFields("trend not found", config.Fields{"area": area, "week": week.String()})
			continue
		}
		if t.Failed {
			continue
		}
		if t.Area == "" {
			t.Area = area
		}
		trends = append(trends, t)
	}
	if len(trends) == 0 && errs == len(w.areas) && lastErr != nil {
		return nil, fmt.Errorf("read trends for %s: %w", week, lastErr)
	}
	return trends, nil
}

func writeSummarySections(b *strings.Builder, week period.Week, trends []models.Trend) {
	fmt.Fprintf(b, "# %d Trends Knowledge Base Summary\n\n", week.Number)
	fmt.Fprintf(b, "**Week:** %d, %d\n\n", week.Number, week.Year)
	fmt.Fprintf(b, "This summary consolidates all tech trends analyzed during week %d of %d.\n\n", week.Number, week.Year)
	b.WriteString("## Trends by Relevance\n\n")

	for _, t := range trends {
		fmt.Fprintf(b, "### %s (Relevance Score: %s)\n\n", t.Area, trend.FormatScore(t.RelevanceScore))
		fmt.Fprintf(b, "**PR:** [%d-%s-trends](./%s.md)\n\n", week.Number, t.Area.Slug(), t.Area)
		b.WriteString("**Main Aspects:**\n")
		for _, a := range t.MainAspects {
			fmt.Fprintf(b, "- %s\n", a)
		}
		fmt.Fprintf(b, "\n**Why Important:** %s\n\n", t.WhyImportant)
		b.WriteString("---\n\n")
	}
}

type summaryTrend struct {
	AreaName string `json:"areaName"`
	models.Trend
}

func summaryPrompt(week period.Week, trends []models.Trend) string {
	items := make([]summaryTrend, len(trends))
	for i, t := range trends {
		items[i] = summaryTrend{AreaName: string(t.Area), Trend: t}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		data = []byte("[]")
	}
	return fmt.Sprintf(`Create a comprehensive executive summary of these tech trends for week %d:

%s

Provide a 2-3 paragraph executive summary that highlights the most important trends and their implications for the tech industry.`, week.Number, data)
}

func (w *Weekly) finish(ctx context.Context, started time.Time, res WeeklyResult, runErr error) {
	status := "success"
	switch {
	case runErr != nil:
		status = "error"
	case !res.Published:
		status = "noop"
	}
	metrics.RunsTotal.WithLabelValues(events.SourceWeekly, status).Inc()
	metrics.RunDuration.WithLabelValues(events.SourceWeekly).Observe(time.Since(started).Seconds())

	evt := events.NewRunCompletedEvent(events.SourceWeekly, res.Week.String(), status)
	if res.Published {
		evt.Published = 1
	}
	if runErr != nil {
		evt.Error = runErr.Error()
	}
	w.pub.RunCompleted(context.WithoutCancel(ctx), evt)
}
