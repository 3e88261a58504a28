// Package schedule runs stored plan documents on recurring cron schedules.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RunFunc executes a plan document. The scheduler does not care how: the
// server wires this to its validate-then-execute pipeline.
type RunFunc func(ctx context.Context, doc map[string]any) error

// Entry is one scheduled plan.
type Entry struct {
	Name      string     `json:"name"`
	Expr      string     `json:"expr"`
	NextRun   time.Time  `json:"next_run"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

type job struct {
	name    string
	expr    string
	doc     map[string]any
	cronID  cron.EntryID
	lastRun *time.Time
	lastErr string
}

// Scheduler triggers plan runs on 5-field cron expressions.
type Scheduler struct {
	cron   *cron.Cron
	run    RunFunc
	logger zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

// New creates a scheduler. It does not fire until Start is called.
func New(run RunFunc, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		run:    run,
		logger: logger.With().Str("component", "schedule").Logger(),
		jobs:   make(map[string]*job),
	}
}

// Start begins firing scheduled plans.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// Add registers a plan to run on the given cron expression. Names are unique;
// adding an existing name is an error.
func (s *Scheduler) Add(name, expr string, doc map[string]any) error {
	if name == "" {
		return errors.New("schedule name is required")
	}
	if doc == nil {
		return errors.New("plan document must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("schedule %q already exists", name)
	}

	j := &job{name: name, expr: expr, doc: doc}
	id, err := s.cron.AddFunc(expr, func() { s.fire(j) })
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	j.cronID = id
	s.jobs[name] = j

	s.logger.Info().Str("name", name).Str("expr", expr).Msg("Schedule added")
	return nil
}

// Remove deletes a schedule by name.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("schedule %q not found", name)
	}
	s.cron.Remove(j.cronID)
	delete(s.jobs, name)

	s.logger.Info().Str("name", name).Msg("Schedule removed")
	return nil
}

// Entries lists the registered schedules sorted by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.jobs))
	for _, j := range s.jobs {
		entries = append(entries, Entry{
			Name:      j.name,
			Expr:      j.expr,
			NextRun:   s.cron.Entry(j.cronID).Next,
			LastRun:   j.lastRun,
			LastError: j.lastErr,
		})
	}
	sort.Slice(entries, func(i, k int) bool { return entries[i].Name < entries[k].Name })
	return entries
}

func (s *Scheduler) fire(j *job) {
	start := time.Now()
	err := s.run(context.Background(), j.doc)

	s.mu.Lock()
	now := time.Now().UTC()
	j.lastRun = &now
	if err != nil {
		j.lastErr = err.Error()
	} else {
		j.lastErr = ""
	}
	s.mu.Unlock()

	event := s.logger.Info()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	event.Str("name", j.name).Dur("duration", time.Since(start)).Msg("Scheduled run finished")
}
