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

package signal

import "sync"

// Slot is a single memoized-signal pocket: null, in-flight, or done. It is
// the primitive every ensure-pipeline singleton (ensureModuleStructure,
// ensureOwnFiles, ensureAllFiles) and the referenced-files cache's entries
// are built from.
//
// The memoization contract: while the held Signal is live (pending or
// resolved successfully), GetOrStart returns that same Signal to every
// caller — no duplicate work is started. The moment the underlying work
// fails, the caller must evict the failed Signal (via Evict) before the
// error is allowed to reach subscribers, so that the very next GetOrStart
// starts fresh.
type Slot[T any] struct {
	mu  sync.Mutex
	sig *Signal[T]
}

// GetOrStart returns the currently memoized Signal, or calls start to
// create and memoize a new one if none is in flight.
func (s *Slot[T]) GetOrStart(start func() *Signal[T]) *Signal[T] {
	s.mu.Lock()
	if s.sig != nil {
		sig := s.sig
		s.mu.Unlock()
		return sig
	}
	sig := start()
	s.sig = sig
	s.mu.Unlock()
	return sig
}

// Evict clears the slot if it currently holds sig, so that the next
// GetOrStart call begins a fresh attempt. Evicting a Signal that is no
// longer the held one (because a newer attempt has already replaced it) is
// a no-op.
func (s *Slot[T]) Evict(sig *Signal[T]) {
	s.mu.Lock()
	if s.sig == sig {
		s.sig = nil
	}
	s.mu.Unlock()
}

// Clear unconditionally empties the slot, forcing the next GetOrStart to
// begin a fresh attempt regardless of the current Signal's state. Used by
// invalidate-style operations.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	s.sig = nil
	s.mu.Unlock()
}

// Run is the common shape behind every ensure-pipeline: GetOrStart a Signal
// that runs work in its own goroutine, evicting itself from the slot before
// surfacing any error.
func (s *Slot[T]) Run(work func() (T, error)) *Signal[T] {
	return s.GetOrStart(func() *Signal[T] {
		sig := New[T]()
		go func() {
			val, err := work()
			if err != nil {
				s.Evict(sig)
				sig.Reject(err)
				return
			}
			sig.Resolve(val)
		}()
		return sig
	})
}

// Map is the keyed counterpart of Slot: one memoized Signal per key, used
// by the referenced-files cache (§3 "ReferencedFiles cache").
type Map[K comparable, T any] struct {
	mu   sync.Mutex
	sigs map[K]*Signal[T]
}

// NewMap creates an empty keyed signal map.
func NewMap[K comparable, T any]() *Map[K, T] {
	return &Map[K, T]{sigs: make(map[K]*Signal[T])}
}

// GetOrStart returns the memoized Signal for key, or creates one via start.
func (m *Map[K, T]) GetOrStart(key K, start func() *Signal[T]) *Signal[T] {
	m.mu.Lock()
	if sig, ok := m.sigs[key]; ok {
		m.mu.Unlock()
		return sig
	}
	sig := start()
	m.sigs[key] = sig
	m.mu.Unlock()
	return sig
}

// Evict removes key's entry if it still holds sig.
func (m *Map[K, T]) Evict(key K, sig *Signal[T]) {
	m.mu.Lock()
	if cur, ok := m.sigs[key]; ok && cur == sig {
		delete(m.sigs, key)
	}
	m.mu.Unlock()
}

// Delete unconditionally removes key's entry, if any.
func (m *Map[K, T]) Delete(key K) {
	m.mu.Lock()
	delete(m.sigs, key)
	m.mu.Unlock()
}

// Clear empties the whole map.
func (m *Map[K, T]) Clear() {
	m.mu.Lock()
	m.sigs = make(map[K]*Signal[T])
	m.mu.Unlock()
}

// Run is Slot.Run's keyed counterpart.
func (m *Map[K, T]) Run(key K, work func() (T, error)) *Signal[T] {
	return m.GetOrStart(key, func() *Signal[T] {
		sig := New[T]()
		go func() {
			val, err := work()
			if err != nil {
				m.Evict(key, sig)
				sig.Reject(err)
				return
			}
			sig.Resolve(val)
		}()
		return sig
	})
}
