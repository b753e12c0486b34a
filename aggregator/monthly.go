package aggregator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tech-trends/analyzer"
	"tech-trends/config"
	"tech-trends/events"
	"tech-trends/metrics"
	"tech-trends/period"
	"tech-trends/store"
	"tech-trends/trend"
)

const (
	recommendationsPlaceholder = "No recommendations generated."
	defaultExcerptLength       = 500
)

type MonthlyResult struct {
	Month            period.Month
	Weeks            []period.Week
	Published        bool
	GenerationFailed bool
}

type weeklySummary struct {
	week    period.Week
	content string
}

// Monthly turns the weekly summaries of a month into role-based recommendations.
type Monthly struct {
	pub           *Publisher
	analyzer      analyzer.Analyzer
	excerptLength int
}

func NewMonthly(pub *Publisher, an analyzer.Analyzer, excerptLength int) *Monthly {
	if excerptLength <= 0 {
		excerptLength = defaultExcerptLength
	}
	return &Monthly{pub: pub, analyzer: an, excerptLength: excerptLength}
}

// Run publishes the month's recommendations. Once at least one weekly
// summary exists the document is always written, with a placeholder body
// if generation fails.
func (m *Monthly) Run(ctx context.Context, month period.Month) (res MonthlyResult, err error) {
	started := time.Now()
	res.Month = month
	defer func() { m.finish(ctx, started, res, err) }()

	summaries, err := m.loadSummaries(ctx, month)
	if err != nil {
		return res, err
	}
	if len(summaries) == 0 {
		config.InfoWithFields("no weekly summaries found, nothing to recommend", config.Fields{"month": month.String()})
		return res, nil
	}
	for _, s := range summaries {
		res.Weeks = append(res.Weeks, s.week)
	}

	body, genErr := m.analyzer.GenerateText(ctx, m.recommendationsPrompt(month, summaries))
	switch {
	case genErr != nil && ctx.Err() != nil:
		return res, ctx.Err()
	case genErr != nil:
		res.GenerationFailed = true
		config.ErrorWithFields("recommendations generation failed", config.Fields{"month": month.String(), "error": genErr.Error()})
		body = recommendationsPlaceholder
	}

	if err := m.pub.Write(ctx, store.RecommendationsAddress(month), []byte(body)); err != nil {
		return res, fmt.Errorf("write recommendations: %w", err)
	}
	res.Published = true
	config.InfoWithFields("monthly recommendations published", config.Fields{"month": month.String(), "weeks": len(summaries)})
	return res, nil
}

func (m *Monthly) loadSummaries(ctx context.Context, month period.Month) ([]weeklySummary, error) {
	var out []weeklySummary
	for _, w := range month.Weeks() {
		data, found, err := m.pub.Read(ctx, store.SummaryAddress(w))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			config.WarnWithFields("failed to read weekly summary", config.Fields{"week": w.String(), "error": err.Error()})
			continue
		}
		if !found {
			config.DebugWithFields("weekly summary not found", config.Fields{"week": w.String()})
			continue
		}
		out = append(out, weeklySummary{week: w, content: string(data)})
	}
	return out, nil
}

func (m *Monthly) recommendationsPrompt(month period.Month, summaries []weeklySummary) string {
	parts := make([]string, len(summaries))
	for i, s := range summaries {
		parts[i] = fmt.Sprintf("Week %d, %d:\n%s", s.week.Number, s.week.Year, trend.Excerpt(s.content, m.excerptLength))
	}

	return fmt.Sprintf(`Based on the weekly tech trend summaries from %d/%d, create actionable recommendations for:

1. Managers - strategic decisions, team investments, technology adoption
2. Engineers - skills to learn, tools to explore, practices to adopt
3. Product Owners - features to consider, market opportunities, user needs

Weekly Summaries:
%s

Provide structured recommendations with:
- Topics to study
- Impacts
- Reference to relevant trends and weeks

Format as markdown with clear sections.`, int(month.Month), month.Year, strings.Join(parts, "\n\n"))
}

func (m *Monthly) finish(ctx context.Context, started time.Time, res MonthlyResult, runErr error) {
	status := "success"
	switch {
	case runErr != nil:
		status = "error"
	case !res.Published:
		status = "noop"
	}
	metrics.RunsTotal.WithLabelValues(events.SourceMonthly, status).Inc()
	metrics.RunDuration.WithLabelValues(events.SourceMonthly).Observe(time.Since(started).Seconds())

	evt := events.NewRunCompletedEvent(events.SourceMonthly, res.Month.String(), status)
	if res.Published {
		evt.Published = 1
	}
	if runErr != nil {
		evt.Error = runErr.Error()
	}
	m.pub.RunCompleted(context.WithoutCancel(ctx), evt)
}
