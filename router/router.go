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

// Package router implements the Project Router (C5): the (directory, kind)
// -> Session maps, fallback installation/eviction, and the
// nearest-enclosing-session lookup an LSP dispatcher drives every hover and
// definition request through.
package router

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bennypowers.dev/tsworkspace/config"
	"bennypowers.dev/tsworkspace/internal/errs"
	"bennypowers.dev/tsworkspace/session"
	"bennypowers.dev/tsworkspace/types"
)

// Router is C5: owns the two ConfigKind-keyed directory->Session maps and
// keeps them current as config files arrive in the VFS.
type Router struct {
	analyzer              *types.Analyzer
	vfs                   types.VFS
	versions              *session.VersionMap
	registry              types.DocumentRegistry
	workspaceRoot         string
	traceModuleResolution bool
	logger                types.Logger

	mu sync.RWMutex
	ts map[string]*session.Session
	js map[string]*session.Session

	unsubscribe func()
}

// New creates a Router, installs the two fallback Sessions at the trimmed
// workspace root, and subscribes to the VFS's add events.
func New(analyzer *types.Analyzer, vfs types.VFS, versions *session.VersionMap, registry types.DocumentRegistry, workspaceRoot string, traceModuleResolution bool, logger types.Logger) *Router {
	root := trimRoot(workspaceRoot)
	r := &Router{
		analyzer:              analyzer,
		vfs:                   vfs,
		versions:              versions,
		registry:              registry,
		workspaceRoot:         root,
		traceModuleResolution: traceModuleResolution,
		logger:                logger,
		ts:                    make(map[string]*session.Session),
		js:                    make(map[string]*session.Session),
	}

	r.ts[root] = session.New(analyzer, vfs, versions, registry, types.ConfigKindTS, root, root, "", syntheticFallbackRaw(false), false, traceModuleResolution)
	r.js[root] = session.New(analyzer, vfs, versions, registry, types.ConfigKindJS, root, root, "", syntheticFallbackRaw(true), true, traceModuleResolution)

	events, unsubscribe := vfs.Subscribe()
	r.unsubscribe = unsubscribe
	go r.watch(events)

	return r
}

func syntheticFallbackRaw(allowJS bool) map[string]any {
	include := []any{"**/*.ts", "**/*.tsx"}
	if allowJS {
		include = []any{"**/*.js", "**/*.jsx"}
	}
	return map[string]any{
		"compilerOptions": map[string]any{
			"module":  "CommonJS",
			"allowJs": allowJS,
		},
		"include": include,
	}
}

func (r *Router) watch(events <-chan types.VFSEvent) {
	for ev := range events {
		r.onAdd(ev.URI, ev.Content)
	}
}

// onAdd handles a VFS "added" event: installs a new Session when a config
// file not under node_modules enters the workspace.
func (r *Router) onAdd(uri types.URI, content string) {
	if content == "" {
		return
	}
	path := uriToPath(uri)
	if !config.IsConfigFile(path) || config.IsUnderNodeModules(path) {
		return
	}

	kind := config.ConfigKindFromPath(path)
	dir := filepath.Dir(path)
	forceAllowJS := kind == types.ConfigKindJS

	s := session.New(r.analyzer, r.vfs, r.versions, r.registry, kind, r.workspaceRoot, dir, path, nil, forceAllowJS, r.traceModuleResolution)

	r.mu.Lock()
	m := r.mapFor(kind)
	m[dir] = s
	if existing, ok := m[r.workspaceRoot]; ok && existing.ConfigPath() == "" && dir != r.workspaceRoot {
		delete(m, r.workspaceRoot)
	}
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debug("router: installed session for %s at %s", kind, dir)
	}
}

func (r *Router) mapFor(kind types.ConfigKind) map[string]*session.Session {
	if kind == types.ConfigKindJS {
		return r.js
	}
	return r.ts
}

// ConfigurationFor walks from path's containing directory up to the
// workspace root, returning the first Session whose directory matches
// within kind's map, falling back to the root entry. kind is inferred from
// path (§3) if nil.
func (r *Router) ConfigurationFor(path string, kind *types.ConfigKind) (*session.Session, bool) {
	return r.ConfigurationForDir(filepath.Dir(path), resolveKind(path, kind))
}

// ParentConfigurationFor is ConfigurationFor, but starts the search one
// directory above path's own containing directory — the Session that would
// own path's directory if path's directory weren't itself a Session root.
func (r *Router) ParentConfigurationFor(path string, kind *types.ConfigKind) (*session.Session, bool) {
	return r.ConfigurationForDir(filepath.Dir(filepath.Dir(path)), resolveKind(path, kind))
}

func resolveKind(path string, kind *types.ConfigKind) types.ConfigKind {
	if kind != nil {
		return *kind
	}
	return config.ConfigKindFromPath(path)
}

// ConfigurationForDir is the longest-matching-prefix walk shared by
// ConfigurationFor and ParentConfigurationFor, starting at dir itself.
func (r *Router) ConfigurationForDir(dir string, kind types.ConfigKind) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.mapFor(kind)

	for {
		if s, ok := m[dir]; ok {
			return s, true
		}
		if dir == r.workspaceRoot || !strings.HasPrefix(dir, r.workspaceRoot) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	s, ok := m[r.workspaceRoot]
	return s, ok
}

// GetConfiguration is ConfigurationFor's throwing variant.
func (r *Router) GetConfiguration(path string, kind *types.ConfigKind) (*session.Session, error) {
	s, ok := r.ConfigurationFor(path, kind)
	if !ok {
		k := "ts"
		if kind != nil {
			k = string(*kind)
		}
		return nil, &errs.ConfigNotFound{Path: path, Kind: k}
	}
	return s, nil
}

// ChildConfigurationsUnder returns every Session in either map whose
// directory starts with dirPath. Ordering is stable but otherwise
// unspecified.
func (r *Router) ChildConfigurationsUnder(dirPath string) []*session.Session {
	dirPath = filepath.Clean(dirPath)
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*session.Session
	for _, m := range []map[string]*session.Session{r.js, r.ts} {
		for dir, s := range m {
			if dir == dirPath || strings.HasPrefix(dir, dirPath+string(filepath.Separator)) {
				out = append(out, s)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RootDir() < out[j].RootDir() })
	return out
}

// AllConfigurations concatenates the js map's values then the ts map's.
func (r *Router) AllConfigurations() []*session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*session.Session, 0, len(r.js)+len(r.ts))
	for _, s := range r.js {
		out = append(out, s)
	}
	for _, s := range r.ts {
		out = append(out, s)
	}
	return out
}

// Dispose tears down the Router's VFS subscription.
func (r *Router) Dispose() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

func trimRoot(root string) string {
	return strings.TrimSuffix(filepath.Clean(root), string(filepath.Separator))
}

func uriToPath(uri types.URI) string {
	s := string(uri)
	if rest, ok := strings.CutPrefix(s, "file://"); ok {
		return rest
	}
	return s
}
