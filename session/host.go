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

package session

import (
	"path/filepath"
	"sync"

	"bennypowers.dev/tsworkspace/types"
	"bennypowers.dev/tsworkspace/vfs"
)

var _ types.CompilerHost = (*hostAdapter)(nil)

// snapshot is the trivial types.ScriptSnapshot backing a VFS read.
type snapshot struct{ text string }

func (s snapshot) Text() string { return s.text }

// hostAdapter is C3: the thin adapter between the VFS/version map and the
// analyzer's compiler-host contract.
type hostAdapter struct {
	rootDir        string
	vfs            types.VFS
	versions       *VersionMap
	defaultLibPath types.DefaultLibPathResolver
	options        types.CompilerOptions

	mu             sync.RWMutex
	staged         []string
	stagedSet      map[string]struct{}
	projectVersion uint64
	complete       bool
}

func newHostAdapter(rootDir string, vfs types.VFS, versions *VersionMap, defaultLibPath types.DefaultLibPathResolver, options types.CompilerOptions) *hostAdapter {
	return &hostAdapter{
		rootDir:        rootDir,
		vfs:            vfs,
		versions:       versions,
		defaultLibPath: defaultLibPath,
		options:        options,
		stagedSet:      make(map[string]struct{}),
	}
}

func (h *hostAdapter) CurrentDirectory() string { return h.rootDir }

func (h *hostAdapter) CompilationSettings() types.CompilerOptions { return h.options }

func (h *hostAdapter) ScriptFileNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.staged))
	copy(out, h.staged)
	return out
}

func (h *hostAdapter) ScriptVersion(path string) string {
	uri := vfs.PathToURI(path)
	return formatVersion(h.versions.GetOrSeed(uri, 1))
}

func (h *hostAdapter) ScriptSnapshot(path string) (types.ScriptSnapshot, bool) {
	content, ok := h.vfs.ReadFile(path)
	if !ok {
		return nil, false
	}
	return snapshot{text: content}, true
}

func (h *hostAdapter) ProjectVersion() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return formatVersion(h.projectVersion)
}

func (h *hostAdapter) IncProjectVersion() {
	h.mu.Lock()
	h.projectVersion++
	h.mu.Unlock()
}

func (h *hostAdapter) NewLine() string { return "\n" }

// AddFile appends path to the staged list and bumps the project version.
// Idempotent staging is the caller's responsibility (§4.1): this may append
// duplicates if called twice for the same path.
func (h *hostAdapter) AddFile(path string) {
	h.mu.Lock()
	h.staged = append(h.staged, path)
	h.stagedSet[path] = struct{}{}
	h.projectVersion++
	h.mu.Unlock()
}

func (h *hostAdapter) Complete() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.complete
}

func (h *hostAdapter) SetComplete(complete bool) {
	h.mu.Lock()
	h.complete = complete
	h.mu.Unlock()
}

// Staged reports whether path has already been staged, used by the Session
// as a fallback membership check when the analyzer's program isn't
// available yet (e.g. immediately after construction).
func (h *hostAdapter) Staged(path string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.stagedSet[path]
	return ok
}

// DefaultLibFilePath forwards to the analyzer's default-library resolver,
// normalized to forward slashes (§4.1). Not part of types.CompilerHost —
// the analyzer's language-service factory calls it directly if it needs it.
func (h *hostAdapter) DefaultLibFilePath() string {
	if h.defaultLibPath == nil {
		return ""
	}
	return filepath.ToSlash(h.defaultLibPath.DefaultLibFilePath(h.options))
}
