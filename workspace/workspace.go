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

// Package workspace wires C1-C7 into the single type an LSP dispatcher
// embeds: the Router (C5) and Pipelines (C6) bound to one VFS (C1) and
// Fetcher (C2), plus Change Intake (C7) — the public didOpen/didChange/
// didClose/didSave operations.
package workspace

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"

	"bennypowers.dev/tsworkspace/materialize"
	registryPkg "bennypowers.dev/tsworkspace/registry"
	"bennypowers.dev/tsworkspace/router"
	"bennypowers.dev/tsworkspace/session"
	"bennypowers.dev/tsworkspace/signal"
	"bennypowers.dev/tsworkspace/types"
	"bennypowers.dev/tsworkspace/vfs"
)

// Options configures a Workspace at construction time.
type Options struct {
	// WorkspaceRoot is the absolute directory the workspace is rooted at.
	WorkspaceRoot string
	// RemoteRoot, if non-empty, is the backing store's address (a URL for
	// an HTTP fetcher, or any identifier an embedder's own Fetcher
	// understands); exposed verbatim via RemoteRoot().
	RemoteRoot string
	// TraceModuleResolution forces every Session's compiler options to
	// request resolution tracing (§4.2).
	TraceModuleResolution bool
	// MaxReferenceDepth overrides ensureReferencedFiles' default depth
	// bound when positive.
	MaxReferenceDepth int
}

// Workspace is the top-level type an LSP dispatcher constructs once per
// open workspace folder.
type Workspace struct {
	opts    Options
	vfs     types.VFS
	fetcher types.Fetcher
	logger  types.Logger

	versions  *session.VersionMap
	router    *router.Router
	pipelines *materialize.Pipelines

	disposed atomic.Bool
}

// New constructs a Workspace. analyzer must be fully populated (§6
// "Consumed" — config parser, resolvers, pre-processor, factories); vfsImpl
// and fetcherImpl are the external collaborators (C1/C2). registry is the
// shared document registry every Session's language service is built over;
// if registry is nil, analyzer.NewDocumentRegistry builds one, falling back
// to this module's own bounded registry (see the registry package) when
// neither is supplied.
func New(opts Options, analyzer *types.Analyzer, vfsImpl types.VFS, fetcherImpl types.Fetcher, registry types.DocumentRegistry, logger types.Logger) *Workspace {
	if vfsImpl == nil {
		vfsImpl = vfs.New()
	}
	if registry == nil {
		if analyzer.NewDocumentRegistry != nil {
			registry = analyzer.NewDocumentRegistry()
		} else {
			registry = registryPkg.New(registryPkg.DefaultSize)
		}
	}

	root := strings.TrimSuffix(filepath.Clean(opts.WorkspaceRoot), string(filepath.Separator))
	opts.WorkspaceRoot = root

	versions := session.NewVersionMap()
	r := router.New(analyzer, vfsImpl, versions, registry, root, opts.TraceModuleResolution, logger)
	p := materialize.New(analyzer, fetcherImpl, vfsImpl, r, root, logger)

	return &Workspace{
		opts:      opts,
		vfs:       vfsImpl,
		fetcher:   fetcherImpl,
		logger:    logger,
		versions:  versions,
		router:    r,
		pipelines: p,
	}
}

// Configurations returns every Session currently installed, both kinds.
func (w *Workspace) Configurations() []*session.Session { return w.router.AllConfigurations() }

// ConfigurationFor returns the Session owning path, inferring kind from
// path's extension/basename when kind is nil.
func (w *Workspace) ConfigurationFor(path string, kind *types.ConfigKind) (*session.Session, bool) {
	return w.router.ConfigurationFor(path, kind)
}

// ParentConfigurationFor returns the Session that would own uri's directory
// if that directory weren't itself a Session root.
func (w *Workspace) ParentConfigurationFor(uri types.URI, kind *types.ConfigKind) (*session.Session, bool) {
	return w.router.ParentConfigurationFor(vfs.URIToPath(uri), kind)
}

// ChildConfigurationsUnder returns every Session rooted at or under uri.
func (w *Workspace) ChildConfigurationsUnder(uri types.URI) []*session.Session {
	return w.router.ChildConfigurationsUnder(vfs.URIToPath(uri))
}

// EnsureModuleStructure is C6's workspace-structure pipeline.
func (w *Workspace) EnsureModuleStructure(ctx context.Context) *signal.Signal[struct{}] {
	return w.pipelines.EnsureModuleStructure(ctx)
}

// EnsureOwnFiles is C6's non-node_modules pipeline.
func (w *Workspace) EnsureOwnFiles(ctx context.Context) *signal.Signal[struct{}] {
	return w.pipelines.EnsureOwnFiles(ctx)
}

// EnsureAllFiles is C6's whole-workspace pipeline.
func (w *Workspace) EnsureAllFiles(ctx context.Context) *signal.Signal[struct{}] {
	return w.pipelines.EnsureAllFiles(ctx)
}

// EnsureReferencedFiles walks uri's transitive references. maxDepth<=0 uses
// Options.MaxReferenceDepth if set, else materialize.DefaultMaxDepth.
func (w *Workspace) EnsureReferencedFiles(ctx context.Context, uri types.URI, maxDepth int) *signal.Signal[struct{}] {
	if maxDepth <= 0 {
		maxDepth = w.opts.MaxReferenceDepth
	}
	if maxDepth <= 0 {
		maxDepth = materialize.DefaultMaxDepth
	}
	return w.pipelines.EnsureReferencedFiles(ctx, uri, maxDepth)
}

// InvalidateModuleStructure forces the next EnsureModuleStructure call to
// re-fetch.
func (w *Workspace) InvalidateModuleStructure() { w.pipelines.InvalidateModuleStructure() }

// InvalidateReferencedFiles drops uri's cached reference resolution, or the
// whole cache if uri is nil.
func (w *Workspace) InvalidateReferencedFiles(uri *types.URI) {
	w.pipelines.InvalidateReferencedFiles(uri)
}

// DidOpen is equivalent to DidChange (§4.6).
func (w *Workspace) DidOpen(uri types.URI, text string) { w.DidChange(uri, text) }

// DidChange updates the VFS, bumps uri's version, and if a Session owns the
// path, stages it: ensureConfigFile, then ensureSourceFile, then bump the
// Session's project version.
func (w *Workspace) DidChange(uri types.URI, text string) {
	w.vfs.DidChange(uri, text)
	w.versions.Bump(uri)

	path := vfs.URIToPath(uri)
	s, ok := w.router.ConfigurationFor(path, nil)
	if !ok {
		return
	}
	if err := s.EnsureConfigFile(); err != nil {
		w.logError("didChange: ensureConfigFile failed for %s: %v", path, err)
		return
	}
	if err := s.EnsureSourceFile(path); err != nil {
		w.logError("didChange: ensureSourceFile failed for %s: %v", path, err)
		return
	}
	s.IncProjectVersion()
}

// DidClose updates the VFS and bumps uri's version; no file is un-staged
// (§9 "whether closed files should be un-staged is intentionally
// unaddressed").
func (w *Workspace) DidClose(uri types.URI) {
	w.vfs.DidClose(uri)
	w.versions.Bump(uri)

	path := vfs.URIToPath(uri)
	s, ok := w.router.ConfigurationFor(path, nil)
	if !ok {
		return
	}
	if err := s.EnsureConfigFile(); err != nil {
		w.logError("didClose: ensureConfigFile failed for %s: %v", path, err)
		return
	}
	s.IncProjectVersion()
}

// DidSave only forwards to the VFS.
func (w *Workspace) DidSave(uri types.URI) { w.vfs.DidSave(uri) }

// HasFile reports whether path is known to the VFS.
func (w *Workspace) HasFile(path string) bool { return w.vfs.FileExists(path) }

// RemoteRoot returns the backing store's address, as supplied at
// construction.
func (w *Workspace) RemoteRoot() string { return w.opts.RemoteRoot }

// FS returns the underlying VFS, for callers that need direct reads.
func (w *Workspace) FS() types.VFS { return w.vfs }

// Dispose tears down the Router's VFS subscription and, if the Fetcher
// holds any closeable handles (e.g. an HTTP disk cache), releases those
// too. Safe to call more than once.
func (w *Workspace) Dispose() {
	if w.disposed.CompareAndSwap(false, true) {
		w.router.Dispose()
		if closer, ok := w.fetcher.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				w.logError("dispose: closing fetcher failed: %v", err)
			}
		}
	}
}

// Stats is a snapshot of workspace-wide counters, useful for an embedder's
// status line; it is additive to the consumed/exposed surface, not part of
// it.
type Stats struct {
	KnownURIs      int
	Configurations int
	InitializedSessions int
	StagedFiles    int
}

// Stats reports a point-in-time snapshot of workspace size: how many URIs
// the VFS knows about, how many Sessions exist, how many of those have
// completed ensureConfigFile, and how many files are staged across all of
// them.
func (w *Workspace) Stats() Stats {
	configs := w.router.AllConfigurations()
	stats := Stats{
		KnownURIs:      len(w.vfs.URIs()),
		Configurations: len(configs),
	}
	for _, s := range configs {
		if s.Initialized() {
			stats.InitializedSessions++
		}
		stats.StagedFiles += s.StagedFileCount()
	}
	return stats
}

func (w *Workspace) logError(format string, args ...any) {
	if w.logger != nil {
		w.logger.Error(format, args...)
	}
}
