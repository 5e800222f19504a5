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
	"testing"

	"bennypowers.dev/tsworkspace/config"
	"bennypowers.dev/tsworkspace/types"
	"bennypowers.dev/tsworkspace/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProgram/fakeLanguageService stand in for the external analyzer's
// program-membership tracking so tests can assert on what the host staged
// without a real compiler.
type fakeProgram struct{ files map[string]struct{} }

func (p *fakeProgram) ContainsFile(path string) bool { _, ok := p.files[path]; return ok }

type fakeLanguageService struct{ program *fakeProgram }

func (l *fakeLanguageService) Program() (types.Program, bool) { return l.program, true }

func testAnalyzer() *types.Analyzer {
	return &types.Analyzer{
		ConfigParser: &config.DefaultParser{},
		NewLanguageService: func(host types.CompilerHost, registry types.DocumentRegistry) types.LanguageService {
			return &fakeLanguageService{program: &fakeProgram{files: make(map[string]struct{})}}
		},
	}
}

func TestEnsureConfigFileParsesAndInitializes(t *testing.T) {
	v := vfs.New()
	v.Set("file:///root/tsconfig.json", `{"compilerOptions":{"strict":true},"include":["src/**/*"]}`)
	v.Set("file:///root/src/a.ts", "export const x = 1;")

	s := New(testAnalyzer(), v, NewVersionMap(), nil, types.ConfigKindTS, "/root", "/root", "/root/tsconfig.json", nil, false, false)

	require.NoError(t, s.ensureConfigFile())
	assert.True(t, s.Initialized())
	assert.Contains(t, s.config.ExpectedFiles, "/root/src/a.ts")
}

func TestEnsureConfigFileFailsOnInvalidJSONAndRetries(t *testing.T) {
	v := vfs.New()
	v.Set("file:///root/tsconfig.json", `{not json`)
	s := New(testAnalyzer(), v, NewVersionMap(), nil, types.ConfigKindTS, "/root", "/root", "/root/tsconfig.json", nil, false, false)

	err := s.ensureConfigFile()
	require.Error(t, err)
	assert.False(t, s.Initialized())

	v.Set("file:///root/tsconfig.json", `{"compilerOptions":{}}`)
	require.NoError(t, s.ensureConfigFile())
	assert.True(t, s.Initialized())
}

func TestJSConfigForcesAllowJS(t *testing.T) {
	v := vfs.New()
	v.Set("file:///root/jsconfig.json", `{"compilerOptions":{}}`)
	s := New(testAnalyzer(), v, NewVersionMap(), nil, types.ConfigKindJS, "/root", "/root", "/root/jsconfig.json", nil, false, false)

	require.NoError(t, s.ensureConfigFile())
	assert.True(t, s.config.AllowJS)
	assert.Equal(t, true, s.config.Options["allowJs"])
}

func TestEnsureAllFilesStagesExpectedSetOnce(t *testing.T) {
	v := vfs.New()
	v.Set("file:///root/tsconfig.json", `{"compilerOptions":{}}`)
	v.Set("file:///root/a.ts", "a")
	v.Set("file:///root/b.ts", "b")

	s := New(testAnalyzer(), v, NewVersionMap(), nil, types.ConfigKindTS, "/root", "/root", "/root/tsconfig.json", nil, false, false)
	require.NoError(t, s.ensureAllFiles())

	assert.ElementsMatch(t, []string{"/root/a.ts", "/root/b.ts"}, s.host.ScriptFileNames())
	assert.True(t, s.host.Complete())

	// Second call is a no-op: host.complete short-circuits before re-staging.
	require.NoError(t, s.ensureAllFiles())
	assert.Len(t, s.host.ScriptFileNames(), 2)
}

func TestEnsureBasicFilesStagesDeclarationFilesOnly(t *testing.T) {
	v := vfs.New()
	v.Set("file:///root/tsconfig.json", `{"compilerOptions":{}}`)
	v.Set("file:///root/global.d.ts", "declare const x: number;")
	v.Set("file:///root/nested/local.d.ts", "declare const y: number;")
	v.Set("file:///root/a.ts", "const z = 1;")

	s := New(testAnalyzer(), v, NewVersionMap(), nil, types.ConfigKindTS, "/root", "/root", "/root/tsconfig.json", nil, false, false)
	require.NoError(t, s.ensureBasicFiles())

	staged := s.host.ScriptFileNames()
	assert.Contains(t, staged, "/root/global.d.ts")
	assert.NotContains(t, staged, "/root/a.ts")
}

func TestResetClearsStagingTiersButAllowsReinitialization(t *testing.T) {
	v := vfs.New()
	v.Set("file:///root/tsconfig.json", `{"compilerOptions":{}}`)
	v.Set("file:///root/a.ts", "a")

	s := New(testAnalyzer(), v, NewVersionMap(), nil, types.ConfigKindTS, "/root", "/root", "/root/tsconfig.json", nil, false, false)
	require.NoError(t, s.ensureAllFiles())
	assert.True(t, s.Initialized())

	s.reset()
	assert.False(t, s.Initialized())

	require.NoError(t, s.ensureSourceFile("/root/a.ts"))
	assert.True(t, s.Initialized())
}

func TestFallbackSessionResolvesSyntheticConfigAgainstVFS(t *testing.T) {
	v := vfs.New()
	v.Set("file:///root/a.js", "const x = 1;")
	v.Set("file:///root/b.ts", "const y = 1;")

	synthetic := map[string]any{
		"compilerOptions": map[string]any{"allowJs": true},
		"include":         []any{"**/*.js", "**/*.jsx"},
	}
	s := New(testAnalyzer(), v, NewVersionMap(), nil, types.ConfigKindJS, "/root", "/root", "", synthetic, true, false)
	require.NoError(t, s.ensureConfigFile())
	assert.Contains(t, s.config.ExpectedFiles, "/root/a.js")
	assert.NotContains(t, s.config.ExpectedFiles, "/root/b.ts")
}
