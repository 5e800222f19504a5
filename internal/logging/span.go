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

package logging

import (
	"sync"
	"time"

	"bennypowers.dev/tsworkspace/types"
	"github.com/google/uuid"
)

var (
	_ types.Tracer = (*Tracer)(nil)
	_ types.Span   = (*span)(nil)
)

// Tracer is the default types.Tracer: it records span durations and tags
// in memory rather than shipping them anywhere, so an embedder can attach
// a real exporter later without this module depending on one.
type Tracer struct {
	mu    sync.Mutex
	spans []RecordedSpan
}

// RecordedSpan is one span's recorded shape, returned by Tracer.Spans.
type RecordedSpan struct {
	ID       string
	ParentID string
	Name     string
	Tags     map[string]any
	Start    time.Time
	End      time.Time
}

// NewTracer creates an in-memory Tracer.
func NewTracer() *Tracer {
	return &Tracer{}
}

// Start begins a root span.
func (t *Tracer) Start(name string) types.Span {
	return t.child(name, "")
}

func (t *Tracer) child(name, parentID string) *span {
	return &span{
		tracer: t,
		record: RecordedSpan{
			ID:       uuid.NewString(),
			ParentID: parentID,
			Name:     name,
			Tags:     make(map[string]any),
			Start:    time.Now(),
		},
	}
}

// Spans returns a snapshot of every span recorded so far (ended or not),
// useful for tests and status reporting.
func (t *Tracer) Spans() []RecordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RecordedSpan, len(t.spans))
	copy(out, t.spans)
	return out
}

func (t *Tracer) record(rs RecordedSpan) {
	t.mu.Lock()
	t.spans = append(t.spans, rs)
	t.mu.Unlock()
}

// span implements types.Span.
type span struct {
	tracer *Tracer
	record RecordedSpan
}

func (s *span) Tag(key string, value any) {
	s.record.Tags[key] = value
}

func (s *span) Child(name string) types.Span {
	return s.tracer.child(name, s.record.ID)
}

func (s *span) End() {
	s.record.End = time.Now()
	s.tracer.record(s.record)
}
