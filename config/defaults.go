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

	"gopkg.in/yaml.v3"
)

// WorkspaceDefaults is the workspace-wide configuration a dispatcher loads
// once per root and passes into workspace.Options — separate from any one
// Session's tsconfig/jsconfig (SPEC_FULL.md §2 "Configuration"), mirroring
// the teacher's cmd/config.CemConfig / workspace.LoadWorkspaceConfig shape.
type WorkspaceDefaults struct {
	// TraceModuleResolution forces traceResolution on every Session's
	// compiler options (§4.2).
	TraceModuleResolution bool `mapstructure:"traceModuleResolution" yaml:"traceModuleResolution"`
	// MaxReferenceDepth overrides ensureReferencedFiles' default depth
	// bound (§6 "ensureReferencedFiles(uri, maxDepth=30)") when positive.
	MaxReferenceDepth int `mapstructure:"maxReferenceDepth" yaml:"maxReferenceDepth"`
	// RemoteRoot, if set, is passed straight through to workspace.Options
	// so a remote-backed Fetcher knows where to resolve relative to.
	RemoteRoot string `mapstructure:"remoteRoot" yaml:"remoteRoot"`
}

// DefaultWorkspaceDefaults is what a workspace root gets when no config
// file is present: no tracing, the spec's default max depth.
func DefaultWorkspaceDefaults() WorkspaceDefaults {
	return WorkspaceDefaults{MaxReferenceDepth: 30}
}

// LoadWorkspaceDefaults reads `.config/tsworkspace.yaml` under workspaceRoot,
// merging it over DefaultWorkspaceDefaults. A missing config file is not an
// error: the defaults are returned as-is, matching
// workspace.LoadWorkspaceConfig's "no config file" case in the teacher.
func LoadWorkspaceDefaults(workspaceRoot string) (WorkspaceDefaults, error) {
	defaults := DefaultWorkspaceDefaults()

	configPath := filepath.Join(workspaceRoot, ".config", "tsworkspace.yaml")
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return defaults, nil
	}
	if err != nil {
		return defaults, err
	}

	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return defaults, err
	}
	if defaults.MaxReferenceDepth <= 0 {
		defaults.MaxReferenceDepth = DefaultWorkspaceDefaults().MaxReferenceDepth
	}
	return defaults, nil
}
