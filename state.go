package livequery

import (
	"sync"

	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/internal/safe"
	"github.com/autom8ter/livequery/model"
	"github.com/segmentio/ksuid"
)

// Observer is called with the new options after every mutation of a State
type Observer func(opts Options)

// State holds the current options of a live query. It is safe for concurrent use.
type State struct {
	mu        sync.RWMutex
	opts      Options
	observers *safe.Map[Observer]
}

// NewState creates a State holding the initial options. Revisions start at zero.
func NewState(initial Options) *State {
	initial.Revision = Revision{}
	return &State{
		opts:      initial,
		observers: safe.NewMap(map[string]Observer{}),
	}
}

// Options returns the current options
func (s *State) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// SetFilters replaces the filters
func (s *State) SetFilters(spec filter.Spec) {
	s.update(func(o *Options) bool {
		o.Filters = spec
		o.Revision.Filters++
		return true
	})
}

// SetLimit replaces the limit
func (s *State) SetLimit(limit int) {
	s.update(func(o *Options) bool {
		o.Limit = limit
		o.Revision.Limit++
		return true
	})
}

// SetOrderBy replaces the ordering
func (s *State) SetOrderBy(orderBy []model.OrderBy) {
	s.update(func(o *Options) bool {
		o.OrderBy = orderBy
		o.Revision.OrderBy++
		return true
	})
}

// SetStartAfter replaces the start after cursor
func (s *State) SetStartAfter(cursor any) {
	s.update(func(o *Options) bool {
		o.StartAfter = cursor
		o.Revision.StartAfter++
		return true
	})
}

// Observe registers an observer and returns a function that removes it
func (s *State) Observe(fn Observer) func() {
	id := ksuid.New().String()
	s.observers.Set(id, fn)
	return func() {
		s.observers.Del(id)
	}
}

// update applies fn as a single mutation. Observers are notified once, after the lock is
// released, and only if fn reports a change.
func (s *State) update(fn func(o *Options) bool) {
	s.mu.Lock()
	changed := fn(&s.opts)
	opts := s.opts
	s.mu.Unlock()
	if !changed {
		return
	}
	s.observers.Range(func(_ string, observer Observer) bool {
		observer(opts)
		return true
	})
}
