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

// Package vfs is the reference implementation of types.VFS: an in-memory
// URI->content map with first-population "added" events. Production
// embedders are expected to back types.VFS with their own remote file
// system updater; this implementation is what the core's own tests (and a
// standalone embedder) use.
package vfs

import (
	"sort"
	"strings"
	"sync"

	"bennypowers.dev/tsworkspace/types"
)

var _ types.VFS = (*InMemory)(nil)

// InMemory is a concurrency-safe, in-memory types.VFS.
type InMemory struct {
	mu   sync.RWMutex
	docs map[types.URI]string

	subMu sync.Mutex
	subs  map[int]chan types.VFSEvent
	nextID int
}

// New creates an empty InMemory VFS.
func New() *InMemory {
	return &InMemory{
		docs: make(map[types.URI]string),
		subs: make(map[int]chan types.VFSEvent),
	}
}

// FileExists reports whether path (normalized to a URI) has content.
func (v *InMemory) FileExists(path string) bool {
	_, ok := v.GetContent(PathToURI(path))
	return ok
}

// ReadFile returns a path's content via the same lookup as FileExists.
func (v *InMemory) ReadFile(path string) (string, bool) {
	return v.GetContent(PathToURI(path))
}

// GetContent returns a URI's content, if known.
func (v *InMemory) GetContent(uri types.URI) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c, ok := v.docs[uri]
	return c, ok
}

// URIs returns every URI currently known, sorted for deterministic
// iteration order across callers.
func (v *InMemory) URIs() []types.URI {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]types.URI, 0, len(v.docs))
	for uri := range v.docs {
		out = append(out, uri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DidOpen sets content for a URI opened by the dispatcher; equivalent to
// DidChange for VFS purposes.
func (v *InMemory) DidOpen(uri types.URI, text string) {
	v.Set(uri, text)
}

// DidChange overwrites a URI's content.
func (v *InMemory) DidChange(uri types.URI, text string) {
	v.Set(uri, text)
}

// DidClose is a no-op for content; the VFS keeps the last known text so
// ensure-pipelines that raced the close still see consistent content.
func (v *InMemory) DidClose(types.URI) {}

// DidSave is a no-op; content was already current via DidChange.
func (v *InMemory) DidSave(types.URI) {}

// Set stores content for uri, firing an "added" event to every current
// subscriber only the first time this URI is populated.
func (v *InMemory) Set(uri types.URI, content string) bool {
	v.mu.Lock()
	_, existed := v.docs[uri]
	v.docs[uri] = content
	v.mu.Unlock()

	first := !existed
	if first {
		v.broadcast(types.VFSEvent{URI: uri, Content: content})
	}
	return first
}

func (v *InMemory) broadcast(ev types.VFSEvent) {
	v.subMu.Lock()
	defer v.subMu.Unlock()
	for _, ch := range v.subs {
		select {
		case ch <- ev:
		default:
			// A slow subscriber drops events rather than blocking the
			// VFS; Subscribe gives generous buffering for the common case.
		}
	}
}

// Subscribe returns a channel of "added" events and an unsubscribe
// function. Unsubscribing never affects in-flight fetches other
// subscribers depend on — it only stops this channel's delivery.
func (v *InMemory) Subscribe() (<-chan types.VFSEvent, func()) {
	v.subMu.Lock()
	id := v.nextID
	v.nextID++
	ch := make(chan types.VFSEvent, 256)
	v.subs[id] = ch
	v.subMu.Unlock()

	unsubscribe := func() {
		v.subMu.Lock()
		if _, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(ch)
		}
		v.subMu.Unlock()
	}
	return ch, unsubscribe
}

// PathToURI normalizes an absolute file path into the module's URI form:
// forward slashes, a "file://" prefix if not already schemed.
func PathToURI(path string) types.URI {
	normalized := strings.ReplaceAll(path, "\\", "/")
	if strings.Contains(normalized, "://") {
		return types.URI(normalized)
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return types.URI("file://" + normalized)
}

// URIToPath converts a URI back to an absolute file path, the inverse of
// PathToURI for the "file://" scheme used throughout this module.
func URIToPath(uri types.URI) string {
	s := string(uri)
	if rest, ok := strings.CutPrefix(s, "file://"); ok {
		return rest
	}
	return s
}
