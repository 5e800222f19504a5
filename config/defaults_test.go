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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWorkspaceDefaultsMissingFileReturnsDefaults(t *testing.T) {
	root := t.TempDir()
	defaults, err := LoadWorkspaceDefaults(root)
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkspaceDefaults(), defaults)
}

func TestLoadWorkspaceDefaultsMergesOverDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".config"), 0o755))
	yamlContent := "traceModuleResolution: true\nmaxReferenceDepth: 5\nremoteRoot: https://example.com/ws\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".config", "tsworkspace.yaml"), []byte(yamlContent), 0o644))

	defaults, err := LoadWorkspaceDefaults(root)
	require.NoError(t, err)
	assert.True(t, defaults.TraceModuleResolution)
	assert.Equal(t, 5, defaults.MaxReferenceDepth)
	assert.Equal(t, "https://example.com/ws", defaults.RemoteRoot)
}

func TestLoadWorkspaceDefaultsZeroDepthFallsBackToDefault(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".config", "tsworkspace.yaml"), []byte("traceModuleResolution: true\n"), 0o644))

	defaults, err := LoadWorkspaceDefaults(root)
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkspaceDefaults().MaxReferenceDepth, defaults.MaxReferenceDepth)
}
