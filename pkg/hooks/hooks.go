// Package hooks provides typed extension points. A Filters chain threads a
// value through every registered callback in order; Actions notify observers
// and stop at the first error. Both are safe for concurrent registration and
// dispatch, and a nil registry behaves as an empty one.
package hooks

import (
	"context"
	"sort"
	"sync"
)

// DefaultPriority is used by Add. Lower priorities run first; equal
// priorities keep registration order.
const DefaultPriority = 10

// FilterFunc transforms a value. Returning an error aborts the chain.
type FilterFunc[T any] func(ctx context.Context, value T) (T, error)

// ActionFunc observes a value. Returning an error stops later observers.
type ActionFunc[T any] func(ctx context.Context, value T) error

type entry[F any] struct {
	fn       F
	priority int
	order    int
}

type chain[F any] struct {
	mu      sync.RWMutex
	entries []entry[F]
}

func (c *chain[F]) add(priority int, fn F) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry[F]{fn: fn, priority: priority, order: len(c.entries)})
	sort.SliceStable(c.entries, func(i, j int) bool {
		if c.entries[i].priority != c.entries[j].priority {
			return c.entries[i].priority < c.entries[j].priority
		}
		return c.entries[i].order < c.entries[j].order
	})
}

func (c *chain[F]) snapshot() []F {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]F, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.fn)
	}
	return out
}

func (c *chain[F]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Filters is an ordered chain of FilterFunc.
type Filters[T any] struct {
	chain chain[FilterFunc[T]]
}

// Add registers fn at DefaultPriority.
func (f *Filters[T]) Add(fn FilterFunc[T]) {
	f.AddWithPriority(DefaultPriority, fn)
}

// AddWithPriority registers fn at the given priority.
func (f *Filters[T]) AddWithPriority(priority int, fn FilterFunc[T]) {
	if f == nil || fn == nil {
		return
	}
	f.chain.add(priority, fn)
}

// Apply runs value through every filter. On error the value returned by the
// last successful filter is returned alongside the error.
func (f *Filters[T]) Apply(ctx context.Context, value T) (T, error) {
	if f == nil {
		return value, nil
	}
	for _, fn := range f.chain.snapshot() {
		next, err := fn(ctx, value)
		if err != nil {
			return value, err
		}
		value = next
	}
	return value, nil
}

// Len reports how many filters are registered.
func (f *Filters[T]) Len() int {
	if f == nil {
		return 0
	}
	return f.chain.len()
}

// Actions is an ordered list of ActionFunc observers.
type Actions[T any] struct {
	chain chain[ActionFunc[T]]
}

// Add registers fn at DefaultPriority.
func (a *Actions[T]) Add(fn ActionFunc[T]) {
	a.AddWithPriority(DefaultPriority, fn)
}

// AddWithPriority registers fn at the given priority.
func (a *Actions[T]) AddWithPriority(priority int, fn ActionFunc[T]) {
	if a == nil || fn == nil {
		return
	}
	a.chain.add(priority, fn)
}

// Do notifies every observer in order, returning the first error.
func (a *Actions[T]) Do(ctx context.Context, value T) error {
	if a == nil {
		return nil
	}
	for _, fn := range a.chain.snapshot() {
		if err := fn(ctx, value); err != nil {
			return err
		}
	}
	return nil
}

// Len reports how many observers are registered.
func (a *Actions[T]) Len() int {
	if a == nil {
		return 0
	}
	return a.chain.len()
}
