// Package scheduler runs the aggregator stages on cron schedules and on demand.
// At most one job runs at a time, whether started by cron or by Trigger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tech-trends/config"
)

// Job represents a scheduled task
type Job func(ctx context.Context) error

var (
	ErrBusy       = errors.New("another job is running")
	ErrUnknownJob = errors.New("unknown job")
)

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name         string        `json:"name"`
	Schedule     string        `json:"schedule,omitempty"`
	NextRun      time.Time     `json:"next_run,omitempty"`
	LastRun      time.Time     `json:"last_run,omitempty"`
	LastDuration time.Duration `json:"last_duration,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	Running      bool          `json:"running"`
}

type entry struct {
	job      Job
	schedule string
	id       cron.EntryID
	lastRun  time.Time
	lastDur  time.Duration
	lastErr  error
}

// Scheduler manages periodic tasks
type Scheduler struct {
	cron     *cron.Cron
	timezone *time.Location
	timeout  time.Duration

	runMu   sync.Mutex // held while a job runs
	mu      sync.Mutex // guards jobs and running
	jobs    map[string]*entry
	running string
	wg      sync.WaitGroup
}

// New creates a scheduler evaluating cron specs in cfg.Timezone.
func New(cfg config.ScheduleConfig) (*Scheduler, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", tz, err)
	}
	timeout := cfg.RunTimeout
	if timeout <= 0 {
		timeout = 2 * time.Hour
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		timezone: loc,
		timeout:  timeout,
		jobs:     make(map[string]*entry),
	}, nil
}

// Location is the timezone cron specs are evaluated in.
func (s *Scheduler) Location() *time.Location {
	return s.timezone
}

// Register makes a job available to Trigger without scheduling it.
func (s *Scheduler) Register(name string, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.jobs[name]; ok {
		e.job = job
		return
	}
	s.jobs[name] = &entry{job: job}
}

// AddJob registers a job and schedules it.
// schedule format: "0 7 * * *" (at 7:00 AM daily). An empty schedule only registers the job.
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	s.Register(name, job)
	if schedule == "" {
		return nil
	}

	id, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(context.Background(), name); errors.Is(err, ErrBusy) {
			config.WarnWithFields("scheduled job skipped, another job is running", config.Fields{"job": name})
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	s.jobs[name].schedule = schedule
	s.jobs[name].id = id
	s.mu.Unlock()

	config.InfoWithFields("job scheduled", config.Fields{"job": name, "schedule": schedule, "timezone": s.timezone.String()})
	return nil
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	config.Logger.Info("[scheduler] starting")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to return.
func (s *Scheduler) Stop() {
	config.Logger.Info("[scheduler] stopping")
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// RunNow executes a registered job synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	return s.run(ctx, name)
}

// Trigger starts a registered job in the background. It returns ErrBusy
// without starting anything when a job is already running.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if !s.runMu.TryLock() {
		return ErrBusy
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.runMu.Unlock()
		_ = s.execute(context.Background(), name)
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context, name string) error {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if !s.runMu.TryLock() {
		return ErrBusy
	}
	defer s.runMu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()
	return s.execute(ctx, name)
}

// execute runs the job; the caller holds runMu.
func (s *Scheduler) execute(ctx context.Context, name string) error {
	s.mu.Lock()
	e := s.jobs[name]
	job := e.job
	s.running = name
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	config.InfoWithFields("job started", config.Fields{"job": name})
	start := time.Now()
	err := job(ctx)
	dur := time.Since(start)

	s.mu.Lock()
	e.lastRun = start
	e.lastDur = dur
	e.lastErr = err
	s.running = ""
	s.mu.Unlock()

	if err != nil {
		config.ErrorWithFields("job failed", config.Fields{"job": name, "duration": dur.String(), "error": err.Error()})
		return err
	}
	config.InfoWithFields("job completed", config.Fields{"job": name, "duration": dur.String()})
	return nil
}

// Running returns the name of the running job, or "".
func (s *Scheduler) Running() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ListJobs returns info about registered jobs
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, e := range s.jobs {
		info := JobInfo{
			Name:         name,
			Schedule:     e.schedule,
			LastRun:      e.lastRun,
			LastDuration: e.lastDur,
			Running:      s.running == name,
		}
		if e.lastErr != nil {
			info.LastError = e.lastErr.Error()
		}
		if e.id != 0 {
			info.NextRun = s.cron.Entry(e.id).Next
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
