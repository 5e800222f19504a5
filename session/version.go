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

// Package session implements the Compiler Host Adapter (C3) and the Project
// Session (C4): the per-configuration compiler-session wrapper that parses
// its config, tracks the expected file set, and stages files into the
// analyzer in three tiers.
package session

import (
	"strconv"
	"sync"

	"bennypowers.dev/tsworkspace/types"
)

// VersionMap is the shared per-URI version counter (§3 "Version map"):
// monotonically increasing, mutated only by Change Intake, read by every
// Session's host adapter.
type VersionMap struct {
	mu       sync.Mutex
	versions map[types.URI]uint64
}

// NewVersionMap creates an empty VersionMap.
func NewVersionMap() *VersionMap {
	return &VersionMap{versions: make(map[types.URI]uint64)}
}

// GetOrSeed returns uri's current version, seeding it to seed on first
// access (the host adapter's scriptVersion contract: "if absent, seed to 1
// and store").
func (m *VersionMap) GetOrSeed(uri types.URI, seed uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.versions[uri]; ok {
		return v
	}
	m.versions[uri] = seed
	return seed
}

// Bump increments uri's version by one (starting from zero if unseen) and
// returns the new value. Called only by Change Intake on didOpen/didChange/
// didClose.
func (m *VersionMap) Bump(uri types.URI) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.versions[uri] + 1
	m.versions[uri] = v
	return v
}

// Get returns uri's current version without seeding it.
func (m *VersionMap) Get(uri types.URI) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[uri]
	return v, ok
}

func formatVersion(v uint64) string {
	return strconv.FormatUint(v, 10)
}
