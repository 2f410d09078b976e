// Package rant picks which entry of the corpus goes out.
package rant

import (
	"errors"
	"math/rand"
	"time"

	"rantbot/internal/corpus"
)

// Strategy selects how an entry is picked.
type Strategy int

const (
	// Random draws uniformly over the corpus.
	Random Strategy = iota
	// DateIndexed is a pure function of the current local calendar day:
	// every invocation on the same day yields the same entry, and the
	// index advances by one each day, cycling through the corpus.
	DateIndexed
)

// ErrEmptyCorpus is returned when there is nothing to pick from.
var ErrEmptyCorpus = errors.New("rant: empty corpus")

// Selector picks entries. The location fixes where the day boundary falls
// for DateIndexed picks; now is swappable for tests.
type Selector struct {
	loc *time.Location
	now func() time.Time
}

func NewSelector(loc *time.Location) *Selector {
	return &Selector{loc: loc, now: time.Now}
}

// WithNow overrides the clock. Test hook.
func (s *Selector) WithNow(now func() time.Time) *Selector {
	s.now = now
	return s
}

// Pick returns one entry by strategy, or ErrEmptyCorpus.
func (s *Selector) Pick(entries []corpus.Entry, strategy Strategy) (corpus.Entry, error) {
	if len(entries) == 0 {
		return corpus.Entry{}, ErrEmptyCorpus
	}
	switch strategy {
	case DateIndexed:
		// YearDay in the configured zone puts day boundaries at local
		// midnight; day 1 (Jan 1) maps to index 0.
		day := s.now().In(s.loc).YearDay()
		return entries[(day-1)%len(entries)], nil
	default:
		// Global source: safe for concurrent picks from the command
		// loop and the scheduled fire.
		return entries[rand.Intn(len(entries))], nil
	}
}
