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

// Package fetcher provides reference implementations of types.Fetcher: an
// in-memory backing store for tests and embedders who already hold every
// file locally, and an HTTP-cache-backed implementation for a "possibly
// remote" workspace (see httpcache.go).
package fetcher

import (
	"context"
	"fmt"
	"sync"

	"bennypowers.dev/tsworkspace/internal/errs"
	"bennypowers.dev/tsworkspace/signal"
	"bennypowers.dev/tsworkspace/types"
)

var _ types.Fetcher = (*InMemory)(nil)

// InMemory is a types.Fetcher backed by a preloaded map of URI to content,
// the same shape a test's fixture data or a fully-local embedder would use.
// Per-URI and structure fetches are still memoized through Slot/Map exactly
// as a real Fetcher's would be, so code exercising the memoization contract
// (§4.4) behaves the same whether it runs against this or a remote backend.
type InMemory struct {
	vfs types.VFS

	mu      sync.RWMutex
	content map[types.URI]string
	// structure lists the URIs EnsureStructure should populate — the
	// config/global-declaration/package.json set a real Fetcher would
	// learn from a remote directory listing.
	structure []types.URI

	structureSlot *signal.Slot[struct{}]
	ensureSlots   *signal.Map[types.URI, struct{}]
}

// NewInMemory creates a Fetcher whose content is entirely preloaded; Ensure
// and EnsureStructure just copy from that preload into vfs.
func NewInMemory(vfs types.VFS) *InMemory {
	return &InMemory{
		vfs:           vfs,
		content:       make(map[types.URI]string),
		structureSlot: &signal.Slot[struct{}]{},
		ensureSlots:   signal.NewMap[types.URI, struct{}](),
	}
}

// Preload registers uri's content for future Ensure/EnsureStructure calls
// without touching the VFS yet, simulating a remote file not yet fetched.
func (f *InMemory) Preload(uri types.URI, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content[uri] = content
}

// SetStructure declares which URIs EnsureStructure should realize.
func (f *InMemory) SetStructure(uris ...types.URI) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.structure = append([]types.URI(nil), uris...)
}

// EnsureStructure populates the VFS with every URI registered via
// SetStructure, exactly once, via a memoized signal shared by all callers.
func (f *InMemory) EnsureStructure(ctx context.Context) *signal.Signal[struct{}] {
	return f.structureSlot.Run(func() (struct{}, error) {
		f.mu.RLock()
		uris := append([]types.URI(nil), f.structure...)
		f.mu.RUnlock()

		for _, uri := range uris {
			if _, err := f.fetchOne(uri); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
}

// Ensure populates uri's content into the VFS, memoized per-URI.
func (f *InMemory) Ensure(ctx context.Context, uri types.URI) *signal.Signal[struct{}] {
	return f.ensureSlots.Run(uri, func() (struct{}, error) {
		return f.fetchOne(uri)
	})
}

func (f *InMemory) fetchOne(uri types.URI) (struct{}, error) {
	f.mu.RLock()
	content, ok := f.content[uri]
	f.mu.RUnlock()
	if !ok {
		return struct{}{}, &errs.FetchError{URI: string(uri), Err: fmt.Errorf("no preloaded content for %s", uri)}
	}
	f.vfs.Set(uri, content)
	return struct{}{}, nil
}
