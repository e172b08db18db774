// Package schedule fires named jobs on cron expressions evaluated in one time zone.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Default expressions for the jobs the daemon registers.
const (
	DefaultBroadcast = "30 16 * * 1-5"
	DefaultReminders = "0 9 * * *"
	DefaultCleanup   = "0 3 * * 0"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is the work a schedule entry performs.
type Job func(ctx context.Context) error

type entry struct {
	name     string
	spec     string
	schedule cron.Schedule
	job      Job
	next     time.Time
}

// Scheduler holds named jobs. Tick runs jobs sequentially on the caller's goroutine.
type Scheduler struct {
	mu      sync.Mutex
	loc     *time.Location
	now     func() time.Time
	entries map[string]*entry
}

// New returns a scheduler evaluating expressions in loc (UTC when nil) with clock now (time.Now when nil).
func New(loc *time.Location, now func() time.Time) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Scheduler{loc: loc, now: now, entries: make(map[string]*entry)}
}

// Validate parses a cron expression without registering it.
func Validate(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

// Add registers or replaces a job. The first fire time is computed from the scheduler's clock.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if name == "" || job == nil {
		return fmt.Errorf("schedule: name and job are required")
	}
	sched, err := parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = &entry{
		name:     name,
		spec:     spec,
		schedule: sched,
		job:      job,
		next:     sched.Next(s.now().In(s.loc)),
	}
	return nil
}

// Next returns the next fire time of a job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return e.next, true
}

// Names returns registered job names, sorted.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for n := range s.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Tick runs every job whose fire time is at or before now, then advances it past now. Missed slots
// collapse into one run. Returns the names of jobs that ran.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []string {
	now = now.In(s.loc)
	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !e.next.After(now) {
			due = append(due, e)
			e.next = e.schedule.Next(now)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].name < due[j].name })
	ran := make([]string, 0, len(due))
	for _, e := range due {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		if err := e.job(ctx); err != nil {
			slog.Error("scheduled job failed", "job", e.name, "err", err)
		} else {
			slog.Info("scheduled job finished", "job", e.name, "duration", time.Since(start))
		}
		ran = append(ran, e.name)
	}
	return ran
}

// Run calls Tick with the scheduler's clock every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}
