// Package schedule runs recurring background jobs on top of gocron.
//
// Usage:
//
//	s := schedule.New(time.Local)
//	s.Cron("backup", "0 22 * * *", writeBackup)
//	s.Every("tick", time.Minute, tick)
//	s.Start(ctx) // stops when ctx is cancelled
package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/mercadobetel/pdv/pkg/logger"
)

// Task is the function signature for a scheduled task.
type Task func()

// Scheduler owns a gocron scheduler. A job never overlaps with its own
// previous run.
type Scheduler struct {
	s *gocron.Scheduler
}

// New creates a scheduler evaluating cron expressions in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{s: s}
}

// Cron schedules task using a 5-field cron expression (min hour dom mon dow).
func (s *Scheduler) Cron(name, expr string, task Task) error {
	if _, err := s.s.Cron(expr).Tag(name).Do(wrap(name, task)); err != nil {
		return fmt.Errorf("schedule: %s %q: %w", name, expr, err)
	}
	return nil
}

// Every schedules task at a fixed interval, first run immediately.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) error {
	if _, err := s.s.Every(interval).Tag(name).Do(wrap(name, task)); err != nil {
		return fmt.Errorf("schedule: %s every %s: %w", name, interval, err)
	}
	return nil
}

// Len reports how many jobs are registered.
func (s *Scheduler) Len() int { return s.s.Len() }

// Start dispatches jobs in the background until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.s.StartAsync()
	logger.Info("schedule: scheduler started", "jobs", s.s.Len())

	go func() {
		<-ctx.Done()
		s.s.Stop()
		logger.Info("schedule: scheduler stopped")
	}()
}

// List returns each job with its next run, for CLI display.
func (s *Scheduler) List() []string {
	jobs := s.s.Jobs()
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, fmt.Sprintf("%v  next=%s", j.Tags(), j.NextRun().Format(time.RFC3339)))
	}
	sort.Strings(out)
	return out
}

func wrap(name string, task Task) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", name, "panic", r)
			}
		}()
		logger.Debug("schedule: running task", "id", name)
		task()
	}
}
