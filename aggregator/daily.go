// Package aggregator runs the daily, weekly and monthly stages of the trend
// pipeline against a DocumentStore.
//
// Failures are classified here and nowhere else. A critical analyzer error
// (auth, quota, rate limit) aborts the whole run and is returned as the
// method's error. Anything that only affects one area is reported through
// AreaOutcome and the run continues with the next area.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tech-trends/analyzer"
	"tech-trends/config"
	"tech-trends/events"
	"tech-trends/metrics"
	"tech-trends/models"
	"tech-trends/period"
	"tech-trends/source"
	"tech-trends/store"
	"tech-trends/trend"
)

var (
	// ErrFallbackAnalysis is reported when the analyzer could only produce a placeholder.
	ErrFallbackAnalysis = errors.New("analyzer returned a fallback analysis")
	ErrInvalidTrend     = errors.New("invalid trend")
	ErrUnknownArea      = errors.New("unknown area")
)

type Status string

const (
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// AreaOutcome is the result of one area's daily pipeline.
type AreaOutcome struct {
	Area   models.Area
	Status Status
	Posts  int
	Err    error
}

type dailyState string

const (
	stateLoadingExisting dailyState = "LOADING_EXISTING"
	stateCollectingNew   dailyState = "COLLECTING_NEW"
	stateMerging         dailyState = "MERGING"
	stateAnalyzing       dailyState = "ANALYZING"
	stateValidating      dailyState = "VALIDATING"
	statePublishing      dailyState = "PUBLISHING"
	stateDone            dailyState = "DONE"
	stateAborted         dailyState = "ABORTED"
)

// Daily collects, merges, analyzes and publishes posts per area for a week.
type Daily struct {
	source    source.PostSource
	analyzers map[models.Area]analyzer.Analyzer
	pub       *Publisher
	builder   *trend.Builder
	maxPosts  int
	areas     []models.Area
}

// NewDaily takes one analyzer per area, built once at startup.
func NewDaily(src source.PostSource, analyzers map[models.Area]analyzer.Analyzer, pub *Publisher, builder *trend.Builder, maxPosts int) *Daily {
	return &Daily{
		source:    src,
		analyzers: analyzers,
		pub:       pub,
		builder:   builder,
		maxPosts:  maxPosts,
		areas:     models.AllAreas,
	}
}

// RunArea runs the pipeline for a single area. In this mode a collection
// failure is fatal and returned as an error.
func (d *Daily) RunArea(ctx context.Context, area models.Area, week period.Week) (AreaOutcome, error) {
	started := time.Now()
	if !isKnownArea(area) {
		err := fmt.Errorf("%w: %q", ErrUnknownArea, area)
		d.finish(ctx, started, week, nil, err)
		return AreaOutcome{Area: area, Status: StatusFailed, Err: err}, err
	}

	out, err := d.run(ctx, area, week, true)
	d.finish(ctx, started, week, []AreaOutcome{out}, err)
	return out, err
}

// RunAll runs every area in catalogue order. Per-area failures are recorded in
// the outcomes; only a fatal error stops the loop.
func (d *Daily) RunAll(ctx context.Context, week period.Week) ([]AreaOutcome, error) {
	started := time.Now()
	config.InfoWithFields("daily run started", config.Fields{"week": week.String(), "areas": len(d.areas)})

	outcomes := make([]AreaOutcome, 0, len(d.areas))
	for _, area := range d.areas {
		out, err := d.run(ctx, area, week, false)
		outcomes = append(outcomes, out)
		if err != nil {
			config.ErrorWithFields("daily run aborted", config.Fields{"week": week.String(), "area": area, "error": err.Error()})
			d.finish(ctx, started, week, outcomes, err)
			return outcomes, err
		}
	}
	d.finish(ctx, started, week, outcomes, nil)
	return outcomes, nil
}

func (d *Daily) run(ctx context.Context, area models.Area, week period.Week, single bool) (out AreaOutcome, fatal error) {
	out = AreaOutcome{Area: area}
	state := stateLoadingExisting
	transition := func(next dailyState) {
		config.DebugWithFields("daily state", config.Fields{"area": area, "week": week.String(), "from": state, "to": next})
		state = next
	}
	fail := func(err error) (AreaOutcome, error) {
		transition(stateAborted)
		out.Status = StatusFailed
		out.Err = err
		config.WarnWithFields("area failed", config.Fields{"area": area, "week": week.String(), "error": err.Error()})
		metrics.AreaOutcomesTotal.WithLabelValues(area.Slug(), string(StatusFailed)).Inc()
		return out, nil
	}
	abort := func(err error) (AreaOutcome, error) {
		transition(stateAborted)
		out.Status = StatusFailed
		out.Err = err
		metrics.AreaOutcomesTotal.WithLabelValues(area.Slug(), string(StatusFailed)).Inc()
		return out, err
	}

	existing, _, err := store.ReadJSON[[]models.Post](ctx, d.pub, store.PostsAddress(week, area))
	if err != nil {
		if ctx.Err() != nil {
			return abort(ctx.Err())
		}
		return fail(fmt.Errorf("load existing posts: %w", err))
	}

	transition(stateCollectingNew)
	incoming, err := d.source.SearchPosts(ctx, area, d.maxPosts)
	if err != nil {
		err = fmt.Errorf("collect posts for %s: %w", area, err)
		if single || ctx.Err() != nil {
			return abort(err)
		}
		return fail(err)
	}
	metrics.PostsCollectedTotal.WithLabelValues(area.Slug()).Add(float64(len(incoming)))
	if len(incoming) == 0 {
		config.WarnWithFields("no new posts collected", config.Fields{"area": area, "week": week.String(), "existing": len(existing)})
	}

	transition(stateMerging)
	merged := d.builder.Weights.SortByEngagement(trend.Merge(existing, incoming))
	out.Posts = len(merged)
	if len(merged) == 0 {
		transition(stateDone)
		out.Status = StatusSkipped
		config.InfoWithFields("nothing to analyze, skipping", config.Fields{"area": area, "week": week.String()})
		metrics.AreaOutcomesTotal.WithLabelValues(area.Slug(), string(StatusSkipped)).Inc()
		return out, nil
	}

	transition(stateAnalyzing)
	an, ok := d.analyzers[area]
	if !ok {
		return fail(fmt.Errorf("%w: no analyzer configured for %s", ErrUnknownArea, area))
	}
	analysis, err := an.Analyze(ctx, merged, area)
	if err != nil {
		if analyzer.IsCritical(err) || ctx.Err() != nil {
			return abort(fmt.Errorf("analyze %s: %w", area, err))
		}
		return fail(fmt.Errorf("analyze %s: %w", area, err))
	}

	transition(stateValidating)
	t := d.builder.Build(area, analysis, merged)
	if t.Failed {
		return fail(fmt.Errorf("%s: %w", area, ErrFallbackAnalysis))
	}
	if err := validateTrend(&t); err != nil {
		return fail(fmt.Errorf("%s: %w", area, err))
	}

	transition(statePublishing)
	if err := d.publish(ctx, week, area, merged, t); err != nil {
		if ctx.Err() != nil {
			return abort(err)
		}
		return fail(err)
	}

	transition(stateDone)
	out.Status = StatusPublished
	config.InfoWithFields("area published", config.Fields{
		"area":            area,
		"week":            week.String(),
		"posts":           len(merged),
		"new_posts":       len(incoming),
		"relevance_score": t.RelevanceScore,
	})
	metrics.AreaOutcomesTotal.WithLabelValues(area.Slug(), string(StatusPublished)).Inc()
	return out, nil
}

func (d *Daily) publish(ctx context.Context, week period.Week, area models.Area, posts []models.Post, t models.Trend) error {
	if err := store.WriteJSON(ctx, d.pub, store.PostsAddress(week, area), posts); err != nil {
		return fmt.Errorf("write posts: %w", err)
	}
	if err := store.WriteJSON(ctx, d.pub, store.TrendAddress(week, area), t); err != nil {
		return fmt.Errorf("write trend: %w", err)
	}
	if err := d.pub.Write(ctx, store.TrendMarkdownAddress(week, area), []byte(trend.Markdown(t, week))); err != nil {
		return fmt.Errorf("write trend markdown: %w", err)
	}
	return nil
}

// validateTrend enforces the required fields and replaces nil lists with empty ones.
func validateTrend(t *models.Trend) error {
	if len(t.MainAspects) == 0 {
		return fmt.Errorf("%w: mainAspects is empty", ErrInvalidTrend)
	}
	if t.WhyImportant == "" {
		return fmt.Errorf("%w: whyImportant is empty", ErrInvalidTrend)
	}
	if t.ToolsFrameworks == nil {
		t.ToolsFrameworks = []string{}
	}
	if t.SuggestedActions == nil {
		t.SuggestedActions = []string{}
	}
	if t.ReferencePosts == nil {
		t.ReferencePosts = []models.Post{}
	}
	return nil
}

func (d *Daily) finish(ctx context.Context, started time.Time, week period.Week, outcomes []AreaOutcome, runErr error) {
	status := "success"
	if runErr != nil {
		status = "error"
	}
	metrics.RunsTotal.WithLabelValues(events.SourceDaily, status).Inc()
	metrics.RunDuration.WithLabelValues(events.SourceDaily).Observe(time.Since(started).Seconds())

	evt := events.NewRunCompletedEvent(events.SourceDaily, week.String(), status)
	for _, o := range outcomes {
		switch o.Status {
		case StatusPublished:
			evt.Published++
		case StatusSkipped:
			evt.Skipped++
		case StatusFailed:
			evt.Failed++
		}
	}
	if runErr != nil {
		evt.Error = runErr.Error()
	}
	// 실행이 취소되었더라도 종료 이벤트는 보낸다.
	d.pub.RunCompleted(context.WithoutCancel(ctx), evt)

	config.InfoWithFields("daily run finished", config.Fields{
		"week":      week.String(),
		"status":    status,
		"published": evt.Published,
		"skipped":   evt.Skipped,
		"failed":    evt.Failed,
		"duration":  time.Since(started).String(),
	})
}

func isKnownArea(area models.Area) bool {
	for _, a := range models.AllAreas {
		if a == area {
			return true
		}
	}
	return false
}
