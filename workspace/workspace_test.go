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

package workspace

import (
	"context"
	"path"
	"strings"
	"testing"
	"time"

	"bennypowers.dev/tsworkspace/config"
	"bennypowers.dev/tsworkspace/fetcher"
	"bennypowers.dev/tsworkspace/internal/logging"
	"bennypowers.dev/tsworkspace/types"
	"bennypowers.dev/tsworkspace/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePreProcessor/fakeModuleResolver mirror materialize's test doubles:
// good enough to exercise the referenced-files walk without a real
// compiler front-end.
type fakePreProcessor struct{}

func (fakePreProcessor) PreProcessFile(fileName, source string) types.PreProcessedFileInfo {
	var info types.PreProcessedFileInfo
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "import ") {
			start := strings.Index(line, "'")
			end := strings.LastIndex(line, "'")
			if start >= 0 && end > start {
				info.ImportedFiles = append(info.ImportedFiles, line[start+1:end])
			}
		}
	}
	return info
}

type fakeModuleResolver struct{}

func (fakeModuleResolver) ResolveModuleName(specifier, containingFile string, options types.CompilerOptions, host types.ModuleResolutionHost) (*types.ResolvedModule, bool) {
	resolved := path.Join(path.Dir(containingFile), specifier) + ".ts"
	if host.FileExists(resolved) {
		return &types.ResolvedModule{ResolvedFileName: resolved}, true
	}
	return nil, false
}

func testAnalyzer() *types.Analyzer {
	return &types.Analyzer{
		ConfigParser:   &config.DefaultParser{},
		PreProcessor:   fakePreProcessor{},
		ModuleResolver: fakeModuleResolver{},
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

// TestFallbackOnlyWorkspaceResolvesReferences is spec.md §8 scenario 1: a
// workspace with no config files routes every file to the per-kind
// fallback, and ensureReferencedFiles walks a plain relative import.
func TestFallbackOnlyWorkspaceResolvesReferences(t *testing.T) {
	v := vfs.New()
	f := fetcher.NewInMemory(v)
	f.Preload("file:///root/a.ts", "export const x = 1;")
	f.Preload("file:///root/b.ts", "import {x} from './a';\n")
	f.SetStructure()

	ws := New(Options{WorkspaceRoot: "/root"}, testAnalyzer(), v, f, nil, logging.Noop{})
	defer ws.Dispose()

	ws.DidOpen("file:///root/b.ts", "import {x} from './a';\n")

	kind := types.ConfigKindTS
	s, ok := ws.ConfigurationFor("/root/b.ts", &kind)
	require.True(t, ok)
	assert.Equal(t, "/root", s.RootDir())
	assert.Empty(t, s.ConfigPath(), "the fallback session has no real config file")

	_, err := ws.EnsureReferencedFiles(context.Background(), "file:///root/b.ts", 1).Wait(context.Background())
	require.NoError(t, err)

	content, ok := v.GetContent("file:///root/a.ts")
	require.True(t, ok, "ensureReferencedFiles should have fetched a.ts via the import")
	assert.Equal(t, "export const x = 1;", content)
}

// TestFallbackEvictionOnConfigArrival is spec.md §8 scenario 2.
func TestFallbackEvictionOnConfigArrival(t *testing.T) {
	v := vfs.New()
	f := fetcher.NewInMemory(v)
	ws := New(Options{WorkspaceRoot: "/root"}, testAnalyzer(), v, f, nil, logging.Noop{})
	defer ws.Dispose()

	kind := types.ConfigKindTS
	before, ok := ws.ConfigurationFor("/root/x.ts", &kind)
	require.True(t, ok)
	assert.Empty(t, before.ConfigPath())

	v.Set("file:///root/tsconfig.json", `{"compilerOptions":{}}`)
	waitUntil(t, func() bool {
		s, ok := ws.ConfigurationFor("/root/x.ts", &kind)
		return ok && s.ConfigPath() != ""
	})

	after, ok := ws.ConfigurationFor("/root/x.ts", &kind)
	require.True(t, ok)
	assert.Equal(t, "/root/tsconfig.json", after.ConfigPath())
}

// TestSubProjectRoutingPrefersLongestPrefix is spec.md §8 scenario 3.
func TestSubProjectRoutingPrefersLongestPrefix(t *testing.T) {
	v := vfs.New()
	f := fetcher.NewInMemory(v)
	ws := New(Options{WorkspaceRoot: "/root"}, testAnalyzer(), v, f, nil, logging.Noop{})
	defer ws.Dispose()

	v.Set("file:///root/tsconfig.json", `{"compilerOptions":{}}`)
	v.Set("file:///root/pkg/tsconfig.json", `{"compilerOptions":{}}`)
	waitUntil(t, func() bool {
		kind := types.ConfigKindTS
		s, ok := ws.ConfigurationFor("/root/pkg/sub/x.ts", &kind)
		return ok && s.RootDir() == "/root/pkg"
	})
}

// TestVersioningIncrementsByChangeCount is spec.md §8 scenario 4.
func TestVersioningIncrementsByChangeCount(t *testing.T) {
	v := vfs.New()
	f := fetcher.NewInMemory(v)
	ws := New(Options{WorkspaceRoot: "/root"}, testAnalyzer(), v, f, nil, logging.Noop{})
	defer ws.Dispose()

	uri := types.URI("file:///root/a.ts")
	initial, _ := ws.versions.Get(uri)

	ws.DidChange(uri, "const x = 1;")
	ws.DidChange(uri, "const x = 2;")

	updated, ok := ws.versions.Get(uri)
	require.True(t, ok)
	assert.Equal(t, initial+2, updated)
}

// TestDidCloseDoesNotUnstageFiles documents §9's open question: didClose
// bumps the version but never removes a file from the session's host.
func TestDidCloseDoesNotUnstageFiles(t *testing.T) {
	v := vfs.New()
	f := fetcher.NewInMemory(v)
	ws := New(Options{WorkspaceRoot: "/root"}, testAnalyzer(), v, f, nil, logging.Noop{})
	defer ws.Dispose()

	uri := types.URI("file:///root/a.ts")
	ws.DidOpen(uri, "const x = 1;")

	kind := types.ConfigKindTS
	s, ok := ws.ConfigurationFor("/root/a.ts", &kind)
	require.True(t, ok)
	stagedBefore := s.StagedFileCount()
	require.Greater(t, stagedBefore, 0)

	ws.DidClose(uri)
	assert.Equal(t, stagedBefore, s.StagedFileCount())
}

func TestStatsReportsWorkspaceSize(t *testing.T) {
	v := vfs.New()
	f := fetcher.NewInMemory(v)
	ws := New(Options{WorkspaceRoot: "/root"}, testAnalyzer(), v, f, nil, logging.Noop{})
	defer ws.Dispose()

	ws.DidOpen("file:///root/a.ts", "const x = 1;")

	stats := ws.Stats()
	assert.GreaterOrEqual(t, stats.KnownURIs, 1)
	assert.Equal(t, 2, stats.Configurations, "both kind fallbacks exist with no config files")
	assert.GreaterOrEqual(t, stats.StagedFiles, 1)
}

func TestDisposeIsSafeToCallTwice(t *testing.T) {
	v := vfs.New()
	f := fetcher.NewInMemory(v)
	ws := New(Options{WorkspaceRoot: "/root"}, testAnalyzer(), v, f, nil, logging.Noop{})
	ws.Dispose()
	ws.Dispose()
}
