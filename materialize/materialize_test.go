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

package materialize

import (
	"context"
	"path"
	"strings"
	"testing"
	"time"

	"bennypowers.dev/tsworkspace/config"
	"bennypowers.dev/tsworkspace/fetcher"
	"bennypowers.dev/tsworkspace/internal/logging"
	"bennypowers.dev/tsworkspace/router"
	"bennypowers.dev/tsworkspace/session"
	"bennypowers.dev/tsworkspace/types"
	"bennypowers.dev/tsworkspace/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePreProcessor extracts `import './x';`-style specifiers as imports,
// good enough to exercise the resolver without a real compiler.
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

// fakeModuleResolver resolves specifiers relative to the containing file's
// directory, appending ".ts", checking the host for existence.
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
		ConfigParser: &config.DefaultParser{},
		PreProcessor: fakePreProcessor{},
		ModuleResolver: fakeModuleResolver{},
	}
}

func newTestRig(t *testing.T) (*Pipelines, *vfs.InMemory, *fetcher.InMemory, *router.Router) {
	t.Helper()
	v := vfs.New()
	f := fetcher.NewInMemory(v)
	r := router.New(testAnalyzer(), v, session.NewVersionMap(), nil, "/root", false, logging.Noop{})
	p := New(testAnalyzer(), f, v, r, "/root", logging.Noop{})
	t.Cleanup(r.Dispose)
	return p, v, f, r
}

func TestEnsureOwnFilesExcludesNodeModules(t *testing.T) {
	p, v, f, _ := newTestRig(t)
	f.Preload("file:///root/a.ts", "const x = 1;")
	f.Preload("file:///root/node_modules/dep/index.ts", "const y = 1;")
	v.Set("file:///root/a.ts", "")
	v.Set("file:///root/node_modules/dep/index.ts", "")

	_, err := p.EnsureOwnFiles(context.Background()).Wait(context.Background())
	require.NoError(t, err)

	content, ok := v.GetContent("file:///root/a.ts")
	require.True(t, ok)
	assert.Equal(t, "const x = 1;", content)

	content, ok = v.GetContent("file:///root/node_modules/dep/index.ts")
	require.True(t, ok)
	assert.Empty(t, content, "node_modules file must not be fetched by ensureOwnFiles")
}

func TestEnsureAllFilesIncludesNodeModules(t *testing.T) {
	p, v, f, _ := newTestRig(t)
	f.Preload("file:///root/node_modules/dep/index.ts", "const y = 1;")
	v.Set("file:///root/node_modules/dep/index.ts", "")

	_, err := p.EnsureAllFiles(context.Background()).Wait(context.Background())
	require.NoError(t, err)

	content, ok := v.GetContent("file:///root/node_modules/dep/index.ts")
	require.True(t, ok)
	assert.Equal(t, "const y = 1;", content)
}

func TestEnsureModuleStructureErrorIsEvictedAndRetried(t *testing.T) {
	p, v, f, _ := newTestRig(t)
	v.Set("file:///root/tsconfig.json", "")
	f.SetStructure() // EnsureStructure itself succeeds trivially (nothing listed)

	sig1 := p.EnsureModuleStructure(context.Background())
	_, err := sig1.Wait(context.Background())
	require.Error(t, err, "tsconfig.json was never preloaded, so its per-URI fetch fails")

	f.Preload("file:///root/tsconfig.json", `{"compilerOptions":{}}`)
	sig2 := p.EnsureModuleStructure(context.Background())
	_, err = sig2.Wait(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, sig1, sig2)
}

func TestEnsureReferencedFilesResolvesCycleWithoutOverflow(t *testing.T) {
	p, v, f, _ := newTestRig(t)
	aContent := "import './b';\n"
	bContent := "import './a';\n"
	v.Set("file:///root/a.ts", aContent)
	v.Set("file:///root/b.ts", bContent)
	f.Preload("file:///root/a.ts", aContent)
	f.Preload("file:///root/b.ts", bContent)
	f.SetStructure()

	done := make(chan struct{})
	go func() {
		_, _ = p.EnsureReferencedFiles(context.Background(), "file:///root/a.ts", 30).Wait(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ensureReferencedFiles did not terminate on a cycle")
	}
}

func TestEnsureReferencedFilesZeroDepthEmitsNothing(t *testing.T) {
	p, v, f, _ := newTestRig(t)
	v.Set("file:///root/a.ts", "import './b';\n")
	f.Preload("file:///root/a.ts", "import './b';\n")
	f.SetStructure()

	_, err := p.EnsureReferencedFiles(context.Background(), "file:///root/a.ts", 0).Wait(context.Background())
	require.NoError(t, err)
}

func TestInvalidateModuleStructureForcesFreshFetch(t *testing.T) {
	p, _, f, _ := newTestRig(t)
	f.SetStructure()

	sig1 := p.EnsureModuleStructure(context.Background())
	_, err := sig1.Wait(context.Background())
	require.NoError(t, err)

	p.InvalidateModuleStructure()
	sig2 := p.EnsureModuleStructure(context.Background())
	_, err = sig2.Wait(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, sig1, sig2)
}
