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

// Package registry provides the default types.DocumentRegistry: a
// file-name-keyed, size-bounded cache of content hashes shared by every Session in a
// workspace (§5 "Shared document registry"/"Shared resource policy"). A
// real analyzer may supply its own registry abstraction instead (the
// design notes call this out as the alternative); this one exists so the
// module is usable standalone and so Sessions have a concrete, bounded
// cache to dedupe against when no analyzer-native registry is wired.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"bennypowers.dev/tsworkspace/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is how many distinct file names the registry keeps (each with
// its last-acquired content hash) before evicting the least recently used.
const DefaultSize = 512

var _ types.DocumentRegistry = (*LRU)(nil)

type entry struct {
	hash     string
	refCount int
}

// LRU is a thread-safe types.DocumentRegistry bounded by an LRU cache of
// file names to their last-acquired content hash and a reference count of
// how many Sessions currently hold that file staged.
type LRU struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *entry]
}

// New creates an LRU registry holding up to size entries. A non-positive
// size falls back to DefaultSize.
func New(size int) *LRU {
	if size <= 0 {
		size = DefaultSize
	}
	cache, _ := lru.New[string, *entry](size)
	return &LRU{cache: cache}
}

// Acquire registers fileName as staged with the given content, returning
// true if another Session already held the same (fileName, content) pair
// — a dedup hit meaning the parsed form can be reused rather than
// reparsed. Acquiring the same file with different content (a changed
// file) always reports a miss and replaces the stored hash.
func (r *LRU) Acquire(fileName, content string) bool {
	hash := hashContent(content)

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.cache.Get(fileName); ok {
		if e.hash == hash {
			e.refCount++
			return true
		}
		e.hash = hash
		e.refCount++
		return false
	}

	r.cache.Add(fileName, &entry{hash: hash, refCount: 1})
	return false
}

// Release drops one Session's hold on fileName. When the reference count
// reaches zero the entry stays in the LRU (it may still be useful to the
// next Session that stages the same unchanged file) until evicted by
// size pressure.
func (r *LRU) Release(fileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.cache.Get(fileName)
	if !ok {
		return
	}
	if e.refCount > 0 {
		e.refCount--
	}
}

// Len reports how many distinct file names the registry currently tracks.
func (r *LRU) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
