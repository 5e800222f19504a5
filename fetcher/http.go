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

package fetcher

import (
	"context"
	"encoding/json"
	"strings"

	"bennypowers.dev/tsworkspace/internal/errs"
	"bennypowers.dev/tsworkspace/signal"
	"bennypowers.dev/tsworkspace/types"
)

// manifestPath is the well-known remote path listing the structure files
// (configs, global declarations, package.json) a workspace root exposes.
const manifestPath = "/.tsworkspace-manifest.json"

var _ types.Fetcher = (*HTTP)(nil)

// HTTP is the reference types.Fetcher for a remote workspace root: it maps
// a URI to a URL under remoteRoot, fetches it through an RFC 7234 disk
// cache, and writes the result into the VFS. EnsureStructure expects the
// remote root to publish a JSON array of relative paths at manifestPath.
type HTTP struct {
	remoteRoot    string // e.g. "https://example.com/workspace", no trailing slash
	workspaceRoot string // local absolute path the URIs are rooted at
	vfs           types.VFS
	cache         *httpCache

	structureSlot *signal.Slot[struct{}]
	ensureSlots   *signal.Map[types.URI, struct{}]
}

// NewHTTP creates an HTTP fetcher backed by a disk cache at cacheDir.
func NewHTTP(remoteRoot, workspaceRoot, cacheDir string, vfs types.VFS) *HTTP {
	return &HTTP{
		remoteRoot:    strings.TrimSuffix(remoteRoot, "/"),
		workspaceRoot: strings.TrimSuffix(workspaceRoot, "/"),
		vfs:           vfs,
		cache:         newHTTPCache(cacheDir),
		structureSlot: &signal.Slot[struct{}]{},
		ensureSlots:   signal.NewMap[types.URI, struct{}](),
	}
}

// EnsureStructure fetches the remote manifest and populates the VFS with
// every listed structure file, memoized so concurrent callers share one
// fetch.
func (f *HTTP) EnsureStructure(ctx context.Context) *signal.Signal[struct{}] {
	return f.structureSlot.Run(func() (struct{}, error) {
		body, err := f.cache.fetch(f.remoteRoot + manifestPath)
		if err != nil {
			return struct{}{}, &errs.FetchError{URI: f.remoteRoot + manifestPath, Err: err}
		}

		var relPaths []string
		if err := json.Unmarshal(body, &relPaths); err != nil {
			return struct{}{}, &errs.FetchError{URI: f.remoteRoot + manifestPath, Err: err}
		}

		for _, rel := range relPaths {
			uri := f.relPathToURI(rel)
			if _, err := f.fetchInto(uri); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
}

// Ensure fetches a single URI's content into the VFS, memoized per-URI.
func (f *HTTP) Ensure(ctx context.Context, uri types.URI) *signal.Signal[struct{}] {
	return f.ensureSlots.Run(uri, func() (struct{}, error) {
		return f.fetchInto(uri)
	})
}

func (f *HTTP) fetchInto(uri types.URI) (struct{}, error) {
	url := f.remoteRoot + f.uriToRelPath(uri)
	body, err := f.cache.fetch(url)
	if err != nil {
		return struct{}{}, &errs.FetchError{URI: string(uri), Err: err}
	}
	f.vfs.Set(uri, string(body))
	return struct{}{}, nil
}

func (f *HTTP) relPathToURI(rel string) types.URI {
	rel = strings.TrimPrefix(rel, "/")
	return types.URI("file://" + f.workspaceRoot + "/" + rel)
}

func (f *HTTP) uriToRelPath(uri types.URI) string {
	path := strings.TrimPrefix(string(uri), "file://")
	rel := strings.TrimPrefix(path, f.workspaceRoot)
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

// Close releases the fetcher's HTTP transport's idle connections. Part of
// the Workspace.Dispose() cascade (io.Closer).
func (f *HTTP) Close() error {
	f.cache.client.CloseIdleConnections()
	return nil
}

// FinalURL reports the URL a fetch of uri was ultimately served from after
// redirects, if uri has been fetched at least once.
func (f *HTTP) FinalURL(uri types.URI) (string, bool) {
	return f.cache.FinalURL(f.remoteRoot + f.uriToRelPath(uri))
}
