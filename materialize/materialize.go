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

// Package materialize implements C6: the four memoized, multi-subscriber
// ensure-pipelines (ensureModuleStructure, ensureOwnFiles, ensureAllFiles,
// ensureReferencedFiles) that combine the Fetcher and VFS to realize each
// ensure-scope, plus the referenced-files resolver that drives transitive
// dependency walks.
package materialize

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"bennypowers.dev/tsworkspace/config"
	"bennypowers.dev/tsworkspace/internal/errs"
	"bennypowers.dev/tsworkspace/router"
	"bennypowers.dev/tsworkspace/signal"
	"bennypowers.dev/tsworkspace/types"
	"bennypowers.dev/tsworkspace/vfs"
)

// DefaultMaxDepth is ensureReferencedFiles' default recursion bound (§6
// "ensureReferencedFiles(uri, maxDepth=30)").
const DefaultMaxDepth = 30

// Pipelines owns the three ensure-scope singleton slots and the
// referenced-files cache (§3 "Ensure-scope singletons", "ReferencedFiles
// cache").
type Pipelines struct {
	analyzer      *types.Analyzer
	fetcher       types.Fetcher
	vfs           types.VFS
	router        *router.Router
	workspaceRoot string
	logger        types.Logger

	moduleStructure *signal.Slot[struct{}]
	ownFiles        *signal.Slot[struct{}]
	allFiles        *signal.Slot[struct{}]
	referencedFiles *signal.Map[types.URI, []types.URI]
}

// New creates a Pipelines bound to one workspace's Fetcher, VFS, and Router.
func New(analyzer *types.Analyzer, fetcher types.Fetcher, v types.VFS, r *router.Router, workspaceRoot string, logger types.Logger) *Pipelines {
	return &Pipelines{
		analyzer:        analyzer,
		fetcher:         fetcher,
		vfs:             v,
		router:          r,
		workspaceRoot:   workspaceRoot,
		logger:          logger,
		moduleStructure: &signal.Slot[struct{}]{},
		ownFiles:        &signal.Slot[struct{}]{},
		allFiles:        &signal.Slot[struct{}]{},
		referencedFiles: signal.NewMap[types.URI, []types.URI](),
	}
}

// EnsureModuleStructure fetches the workspace's known-structure files
// (configs, global declarations, package.json), then resets every Session
// and clears the referenced-files cache (§4.4).
func (p *Pipelines) EnsureModuleStructure(ctx context.Context) *signal.Signal[struct{}] {
	return p.moduleStructure.Run(func() (struct{}, error) {
		if _, err := p.fetcher.EnsureStructure(ctx).Wait(ctx); err != nil {
			return struct{}{}, err
		}

		var toFetch []types.URI
		for _, uri := range p.vfs.URIs() {
			path := vfs.URIToPath(uri)
			if config.IsGlobalDeclarationFile(path, p.workspaceRoot) || config.IsConfigFile(path) || config.IsPackageJSON(path) {
				toFetch = append(toFetch, uri)
			}
		}
		if err := p.fetchAll(ctx, toFetch); err != nil {
			return struct{}{}, err
		}

		for _, s := range p.router.AllConfigurations() {
			s.Reset()
		}
		p.referencedFiles.Clear()
		return struct{}{}, nil
	})
}

// EnsureOwnFiles fetches every JS/TS source, config, or package.json file
// not under node_modules. No post-completion reset.
func (p *Pipelines) EnsureOwnFiles(ctx context.Context) *signal.Signal[struct{}] {
	return p.ownFiles.Run(func() (struct{}, error) {
		var toFetch []types.URI
		for _, uri := range p.vfs.URIs() {
			path := vfs.URIToPath(uri)
			if config.IsUnderNodeModules(path) {
				continue
			}
			if config.IsJSOrTSSource(path) || config.IsConfigFile(path) || config.IsPackageJSON(path) {
				toFetch = append(toFetch, uri)
			}
		}
		return struct{}{}, p.fetchAll(ctx, toFetch)
	})
}

// EnsureAllFiles fetches every JS/TS source, config, or package.json file
// anywhere in the workspace, node_modules included.
func (p *Pipelines) EnsureAllFiles(ctx context.Context) *signal.Signal[struct{}] {
	return p.allFiles.Run(func() (struct{}, error) {
		var toFetch []types.URI
		for _, uri := range p.vfs.URIs() {
			path := vfs.URIToPath(uri)
			if config.IsJSOrTSSource(path) || config.IsConfigFile(path) || config.IsPackageJSON(path) {
				toFetch = append(toFetch, uri)
			}
		}
		return struct{}{}, p.fetchAll(ctx, toFetch)
	})
}

func (p *Pipelines) fetchAll(ctx context.Context, uris []types.URI) error {
	if len(uris) == 0 {
		return nil
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(uris))
	for _, uri := range uris {
		wg.Add(1)
		go func(u types.URI) {
			defer wg.Done()
			if _, err := p.fetcher.Ensure(ctx, u).Wait(ctx); err != nil {
				errCh <- err
			}
		}(uri)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		return err
	}
	return nil
}

// InvalidateModuleStructure clears the module-structure singleton, forcing
// the next EnsureModuleStructure call to re-fetch.
func (p *Pipelines) InvalidateModuleStructure() {
	p.moduleStructure.Clear()
}

// InvalidateReferencedFiles drops uri's cache entry, or the whole cache if
// uri is nil.
func (p *Pipelines) InvalidateReferencedFiles(uri *types.URI) {
	if uri == nil {
		p.referencedFiles.Clear()
		return
	}
	p.referencedFiles.Delete(*uri)
}

// resolveReferencedFiles is §4.5: fetch uri, extract its imports/path
// references/type references via the analyzer's pre-processor, resolve
// each, and cache the result under uri.
func (p *Pipelines) resolveReferencedFiles(ctx context.Context, uri types.URI) *signal.Signal[[]types.URI] {
	return p.referencedFiles.Run(uri, func() ([]types.URI, error) {
		if _, err := p.fetcher.Ensure(ctx, uri).Wait(ctx); err != nil {
			return nil, &errs.ReferenceResolutionError{URI: string(uri), Err: err}
		}

		path := vfs.URIToPath(uri)

		var options types.CompilerOptions
		if owner, ok := p.router.ConfigurationFor(path, nil); ok {
			if err := owner.EnsureBasicFiles(); err != nil {
				return nil, &errs.ReferenceResolutionError{URI: string(uri), Err: err}
			}
			options = owner.CompilerOptions()
		}
		if options == nil {
			options = types.CompilerOptions{}
		}

		host := &fetchingResolutionHost{ctx: ctx, vfs: p.vfs, fetcher: p.fetcher}

		content, ok := p.vfs.GetContent(uri)
		if !ok {
			return nil, &errs.ReferenceResolutionError{URI: string(uri), Err: fmt.Errorf("content for %s not available", uri)}
		}

		if p.analyzer.PreProcessor == nil {
			return nil, nil
		}
		info := p.analyzer.PreProcessor.PreProcessFile(path, content)

		var out []types.URI
		if p.analyzer.ModuleResolver != nil {
			for _, specifier := range info.ImportedFiles {
				resolved, found := p.analyzer.ModuleResolver.ResolveModuleName(specifier, path, options, host)
				if found && resolved != nil {
					out = append(out, sameSchemeURI(uri, resolved.ResolvedFileName))
				}
			}
		}
		for _, ref := range info.ReferencedFiles {
			out = append(out, sameSchemeURI(uri, joinPathReference(p.workspaceRoot, path, ref)))
		}
		if p.analyzer.TypeRefResolver != nil {
			for _, typeRef := range info.TypeReferenceDirectives {
				resolved, found := p.analyzer.TypeRefResolver.ResolveTypeReferenceDirective(typeRef, path, options)
				if found && resolved != nil {
					out = append(out, sameSchemeURI(uri, resolved.ResolvedFileName))
				}
			}
		}
		return out, nil
	})
}

// EnsureReferencedFiles walks uri's transitive references up to maxDepth
// levels deep, driven by a shared visited set that prevents cycles from
// revisiting a URI (§4.4, §9 "Cycle prevention"). It depends on
// EnsureModuleStructure completing first.
func (p *Pipelines) EnsureReferencedFiles(ctx context.Context, uri types.URI, maxDepth int) *signal.Signal[struct{}] {
	sig := signal.New[struct{}]()
	go func() {
		if _, err := p.EnsureModuleStructure(ctx).Wait(ctx); err != nil {
			sig.Reject(err)
			return
		}
		visited := newVisitedSet(uri)
		p.walkReferenced(ctx, uri, maxDepth, visited)
		sig.Resolve(struct{}{})
	}()
	return sig
}

func (p *Pipelines) walkReferenced(ctx context.Context, uri types.URI, depth int, visited *visitedSet) {
	if depth == 0 {
		return
	}
	refs, err := p.resolveReferencedFiles(ctx, uri).Wait(ctx)
	if err != nil {
		if p.logger != nil {
			p.logger.Warning("materialize: reference resolution failed for %s: %v", uri, err)
		}
		return
	}

	var wg sync.WaitGroup
	for _, ref := range refs {
		if !visited.tryAdd(ref) {
			continue
		}
		wg.Add(1)
		go func(u types.URI) {
			defer wg.Done()
			p.walkReferenced(ctx, u, depth-1, visited)
		}(ref)
	}
	wg.Wait()
}

// visitedSet is the locked set threaded through a single
// EnsureReferencedFiles call's concurrent recursion.
type visitedSet struct {
	mu   sync.Mutex
	seen map[types.URI]struct{}
}

func newVisitedSet(seed types.URI) *visitedSet {
	return &visitedSet{seen: map[types.URI]struct{}{seed: {}}}
}

// tryAdd reports whether uri was newly added (false means already visited).
func (v *visitedSet) tryAdd(uri types.URI) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[uri]; ok {
		return false
	}
	v.seen[uri] = struct{}{}
	return true
}

// joinPathReference implements the documented quirk in §9: a triple-slash
// path reference resolves against workspaceRoot joined with the
// referencing file's directory — not just the referencing file's
// directory — using POSIX joining unless the referencing path contains a
// backslash. This is preserved deliberately, not "fixed".
func joinPathReference(workspaceRoot, referencingPath, ref string) string {
	sep := "/"
	dir := referencingPath
	if strings.Contains(referencingPath, "\\") {
		sep = "\\"
	}
	if idx := strings.LastIndex(dir, sep); idx >= 0 {
		dir = dir[:idx]
	} else {
		dir = "."
	}

	parts := []string{strings.TrimRight(workspaceRoot, sep), strings.Trim(dir, sep), ref}
	var nonEmpty []string
	for _, part := range parts {
		if part != "" && part != "." {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, sep)
}

// sameSchemeURI maps a resolved absolute path back to a URI sharing
// original's scheme (and host, for schemes that have one).
func sameSchemeURI(original types.URI, resolvedPath string) types.URI {
	s := string(original)
	idx := strings.Index(s, "://")
	if idx < 0 {
		return types.URI(resolvedPath)
	}
	scheme := s[:idx+3]
	normalized := strings.ReplaceAll(resolvedPath, "\\", "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return types.URI(scheme + normalized)
}

// fetchingResolutionHost adapts the VFS/Fetcher pair to
// types.ModuleResolutionHost for module resolution's candidate probing: a
// probed path may be known to the backing store but not yet materialized
// into the VFS, so FileExists/ReadFile fetch the candidate on demand before
// answering rather than reporting it absent. Without this, a resolver
// candidate that the local VFS hasn't seen yet would always resolve to
// "not found", and ensureReferencedFiles could never walk to a file it
// hasn't already fetched.
type fetchingResolutionHost struct {
	ctx     context.Context
	vfs     types.VFS
	fetcher types.Fetcher
}

func (h *fetchingResolutionHost) FileExists(path string) bool {
	uri := vfs.PathToURI(path)
	if _, ok := h.vfs.GetContent(uri); ok {
		return true
	}
	if _, err := h.fetcher.Ensure(h.ctx, uri).Wait(h.ctx); err != nil {
		return false
	}
	_, ok := h.vfs.GetContent(uri)
	return ok
}

func (h *fetchingResolutionHost) ReadFile(path string) (string, bool) {
	if !h.FileExists(path) {
		return "", false
	}
	return h.vfs.GetContent(vfs.PathToURI(path))
}
