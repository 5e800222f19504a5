/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package signal implements the "shared multicast completion signal" that
// every ensure-pipeline in this module is built from: a value that many
// goroutines can await concurrently, that resolves at most once, and that
// carries no special cancellation semantics of its own (a subscriber simply
// stops waiting).
package signal

import (
	"context"
	"sync"
)

// Signal is a future resolved at most once, by either Resolve or Reject.
// Any number of goroutines may call Wait concurrently; all observe the same
// outcome. A Signal is single-shot: once resolved it never changes.
type Signal[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// New creates an unresolved Signal.
func New[T any]() *Signal[T] {
	return &Signal[T]{done: make(chan struct{})}
}

// Resolved returns a Signal that is already complete with val.
func Resolved[T any](val T) *Signal[T] {
	s := New[T]()
	s.Resolve(val)
	return s
}

// Resolve completes the signal successfully. Only the first call has any
// effect; later calls are no-ops.
func (s *Signal[T]) Resolve(val T) {
	s.once.Do(func() {
		s.val = val
		close(s.done)
	})
}

// Reject completes the signal with an error. Only the first call has any
// effect.
func (s *Signal[T]) Reject(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// Wait blocks until the signal resolves or ctx is cancelled, whichever
// comes first. A ctx cancellation does not affect the signal itself — other
// waiters keep waiting on the original outcome.
func (s *Signal[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-s.done:
		return s.val, s.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports whether the signal has resolved yet, without blocking.
func (s *Signal[T]) Done() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
