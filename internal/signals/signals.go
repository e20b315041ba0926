// Package signals dispatches connection lifecycle events to receivers that
// registered for them.
package signals

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Receiver handles one event.
type Receiver[T any] func(ctx context.Context, event T) error

type receiver[T any] struct {
	id string
	fn Receiver[T]
}

// Signal is a named event with an ordered set of receivers.
type Signal[T any] struct {
	name string

	mu        sync.RWMutex
	receivers []receiver[T]
}

// New creates a signal with no receivers.
func New[T any](name string) *Signal[T] {
	return &Signal[T]{name: name}
}

// Name returns the signal name.
func (s *Signal[T]) Name() string { return s.name }

// Connect adds fn under the dispatch id and returns the id. An empty id is
// replaced by a random one. Connecting an id that is already live is a
// no-op, so setup code may run more than once.
func (s *Signal[T]) Connect(id string, fn Receiver[T]) string {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.receivers {
		if r.id == id {
			return id
		}
	}
	s.receivers = append(s.receivers, receiver[T]{id: id, fn: fn})
	return id
}

// Disconnect removes the receiver with the given id and reports whether it
// was connected.
func (s *Signal[T]) Disconnect(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.receivers {
		if r.id == id {
			s.receivers = append(s.receivers[:i:i], s.receivers[i+1:]...)
			return true
		}
	}
	return false
}

// LiveReceivers returns the ids of connected receivers in connect order.
func (s *Signal[T]) LiveReceivers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.receivers))
	for i, r := range s.receivers {
		ids[i] = r.id
	}
	return ids
}

// Send calls every receiver in connect order. All receivers run even if one
// fails; the failures are joined.
func (s *Signal[T]) Send(ctx context.Context, event T) error {
	s.mu.RLock()
	receivers := make([]receiver[T], len(s.receivers))
	copy(receivers, s.receivers)
	s.mu.RUnlock()

	var errs []error
	for _, r := range receivers {
		if err := r.fn(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s receiver %s: %w", s.name, r.id, err))
		}
	}
	return errors.Join(errs...)
}
