package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tech-trends/aggregator"
	"tech-trends/api/router"
	"tech-trends/config"
	"tech-trends/models"
	"tech-trends/period"
	"tech-trends/scheduler"
)

const shutdownTimeout = 30 * time.Second

func runDaily(ctx context.Context, areaFlag, weekFlag string) error {
	week, err := resolveWeek(weekFlag, time.Now(), period.CurrentWeek)
	if err != nil {
		return err
	}
	area, err := parseAreaFlag(areaFlag)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	d, err := a.newDaily(ctx)
	if err != nil {
		return err
	}
	return runDailyStage(ctx, d, area, week)
}

// runDailyStage runs one area when area is set, otherwise every area.
// A failed area is an error only in single-area mode.
func runDailyStage(ctx context.Context, d *aggregator.Daily, area models.Area, week period.Week) error {
	if area == "" {
		outcomes, err := d.RunAll(ctx, week)
		logOutcomes(week, outcomes)
		return err
	}

	out, err := d.RunArea(ctx, area, week)
	logOutcomes(week, []aggregator.AreaOutcome{out})
	if err != nil {
		return err
	}
	if out.Status == aggregator.StatusFailed {
		return fmt.Errorf("area %s failed: %w", area, out.Err)
	}
	return nil
}

func logOutcomes(week period.Week, outcomes []aggregator.AreaOutcome) {
	for _, o := range outcomes {
		fields := config.Fields{"week": week.String(), "area": o.Area, "status": o.Status, "posts": o.Posts}
		if o.Err != nil {
			fields["error"] = o.Err.Error()
		}
		config.InfoWithFields("area outcome", fields)
	}
}

// parseAreaFlag accepts a display name or a slug. Empty means all areas.
func parseAreaFlag(s string) (models.Area, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	area, ok := models.ParseArea(s)
	if !ok {
		valid := make([]string, len(models.AllAreas))
		for i, a := range models.AllAreas {
			valid[i] = a.Slug()
		}
		return "", fmt.Errorf("%w: %q (valid: %s)", aggregator.ErrUnknownArea, s, strings.Join(valid, ", "))
	}
	return area, nil
}

func runWeekly(ctx context.Context, weekFlag string) error {
	week, err := resolveWeek(weekFlag, time.Now(), period.PreviousWeek)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	w, err := a.newWeekly(ctx)
	if err != nil {
		return err
	}
	_, err = w.Run(ctx, week)
	return err
}

func runMonthly(ctx context.Context, monthFlag string) error {
	month, err := resolveMonth(monthFlag, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	m, err := a.newMonthly(ctx)
	if err != nil {
		return err
	}
	_, err = m.Run(ctx, month)
	return err
}

func runServe(ctx context.Context, addrFlag string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	daily, err := a.newDaily(ctx)
	if err != nil {
		return err
	}
	weekly, err := a.newWeekly(ctx)
	if err != nil {
		return err
	}
	monthly, err := a.newMonthly(ctx)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(a.cfg.Schedule)
	if err != nil {
		return err
	}
	loc := sched.Location()
	jobs := []struct {
		name string
		spec string
		job  scheduler.Job
	}{
		{"daily", a.cfg.Schedule.Daily, func(ctx context.Context) error {
			return runDailyStage(ctx, daily, "", period.CurrentWeek(time.Now().In(loc)))
		}},
		{"weekly", a.cfg.Schedule.Weekly, func(ctx context.Context) error {
			_, err := weekly.Run(ctx, period.PreviousWeek(time.Now().In(loc)))
			return err
		}},
		{"monthly", a.cfg.Schedule.Monthly, func(ctx context.Context) error {
			_, err := monthly.Run(ctx, period.PreviousMonth(time.Now().In(loc)))
			return err
		}},
	}
	for _, j := range jobs {
		if err := sched.AddJob(j.name, j.spec, j.job); err != nil {
			return err
		}
	}

	deps := router.Deps{
		Store:          a.store,
		Runner:         sched,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
	}
	if a.aiLogs != nil {
		deps.AILogs = a.aiLogs
	}

	addr := addrFlag
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched.Start()
	errCh := make(chan error, 1)
	go func() {
		config.InfoWithFields("http server listening", config.Fields{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		config.Logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		config.ErrorWithFields("http server failed", config.Fields{"error": serveErr.Error()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.WarnWithFields("http server shutdown failed", config.Fields{"error": err.Error()})
	}
	sched.Stop()
	return serveErr
}
