// Package scheduler owns the recurring rant trigger: one cron entry, one
// fixed time zone, and a spec that can be swapped at runtime.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrInvalidSpec is returned by Reconfigure for anything that does not parse
// as a strict six-field (seconds-resolution) cron expression.
var ErrInvalidSpec = errors.New("scheduler: invalid cron spec")

// Scheduler wraps a single cron entry. The job never fires before Start, and
// Reconfigure replaces the entry so the next fire uses the new spec without
// touching a fire already in progress.
type Scheduler struct {
	log    zerolog.Logger
	parser cron.Parser
	loc    *time.Location
	job    func(context.Context)

	mu      sync.Mutex
	c       *cron.Cron
	entryID cron.EntryID
	spec    string
	started bool
}

// New parses the initial spec eagerly so a bad default fails at construction
// rather than at first fire.
func New(spec string, loc *time.Location, job func(context.Context), log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		log: log,
		// The rant schedule is always six fields, seconds first.
		parser: cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		loc:    loc,
		job:    job,
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSpec, spec, err)
	}
	s.spec = spec
	return s, nil
}

// Start activates the trigger. Call it only after the platform reports
// ready — nothing fires before this.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(s.loc))
	id, err := s.c.AddFunc(s.spec, s.runJob(ctx))
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSpec, s.spec, err)
	}
	s.entryID = id
	s.c.Start()
	s.started = true
	s.log.Info().Str("spec", s.spec).Str("tz", s.loc.String()).Msg("scheduler started")
	return nil
}

// Stop halts the trigger and waits for a running fire to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.started = false
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		// stop continues in background
	}
	s.log.Info().Msg("scheduler stopped")
}

// Reconfigure validates spec and swaps the live entry. The previous schedule
// keeps firing untouched when the new spec is rejected.
func (s *Scheduler) Reconfigure(ctx context.Context, spec string) error {
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSpec, spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.spec
	s.spec = spec
	if s.started {
		s.c.Remove(s.entryID)
		s.entryID = s.c.Schedule(sched, cron.FuncJob(s.runJob(ctx)))
	}
	s.log.Info().Str("old", old).Str("new", spec).Msg("schedule reconfigured")
	return nil
}

// Spec returns the currently configured expression.
func (s *Scheduler) Spec() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// Next reports when the trigger will next fire; zero before Start.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return time.Time{}
	}
	return s.c.Entry(s.entryID).Next
}

func (s *Scheduler) runJob(ctx context.Context) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Any("panic", r).Str("stack", string(debug.Stack())).Msg("panic in scheduled fire")
			}
		}()
		s.job(ctx)
	}
}
