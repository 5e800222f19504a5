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

// Package config owns everything the design calls "classification of a
// path" (§4.2): the filename conventions that decide whether a file is a
// declaration file, a global ambient-declarations file, a config file, or
// a package.json — plus parsing tsconfig.json/jsconfig.json text into a
// types.ParsedConfig. Both the Project Session (C4) and the materialization
// pipelines (C6) classify paths the same way, so the logic lives here
// rather than being duplicated.
package config

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/tsworkspace/types"
)

// IsDeclarationFile reports whether path is a TypeScript declaration file
// (".d.ts", ".d.mts", ".d.cts", or ".d.tsx").
func IsDeclarationFile(path string) bool {
	base := filepath.Base(path)
	for _, suffix := range []string{".d.ts", ".d.mts", ".d.cts", ".d.tsx"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// IsGlobalDeclarationFile reports whether path is a declaration file that
// sits directly under workspaceRoot (one level below it) — the convention
// for ambient declarations visible to every Session.
func IsGlobalDeclarationFile(path, workspaceRoot string) bool {
	if !IsDeclarationFile(path) {
		return false
	}
	dir := filepath.Dir(path)
	return filepath.Clean(dir) == filepath.Clean(workspaceRoot)
}

// IsConfigFile reports whether path's basename is tsconfig.json or
// jsconfig.json, anywhere in the tree.
func IsConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == "tsconfig.json" || base == "jsconfig.json"
}

// IsPackageJSON reports whether path's basename is package.json.
func IsPackageJSON(path string) bool {
	return filepath.Base(path) == "package.json"
}

// IsUnderNodeModules reports whether any path segment is "node_modules".
func IsUnderNodeModules(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, segment := range strings.Split(normalized, "/") {
		if segment == "node_modules" {
			return true
		}
	}
	return false
}

// IsJSOrTSSource reports whether path's extension is one this module
// treats as workspace source: .ts, .tsx, .js, .jsx, .mjs, .cjs, .mts, .cts.
// Declaration files are excluded — callers that want those too should
// check IsDeclarationFile separately, matching §4.4's distinct filters.
func IsJSOrTSSource(path string) bool {
	if IsDeclarationFile(path) {
		return false
	}
	switch filepath.Ext(path) {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts":
		return true
	default:
		return false
	}
}

// ConfigKindFromPath determines a ConfigKind from a config file's basename,
// or from a source file's extension when path isn't a config file: ".js"
// and ".jsx" imply ConfigKindJS, everything else ConfigKindTS.
func ConfigKindFromPath(path string) types.ConfigKind {
	base := filepath.Base(path)
	switch base {
	case "jsconfig.json":
		return types.ConfigKindJS
	case "tsconfig.json":
		return types.ConfigKindTS
	}
	switch filepath.Ext(path) {
	case ".js", ".jsx":
		return types.ConfigKindJS
	default:
		return types.ConfigKindTS
	}
}

// IsJSConfig reports whether a config file's basename is the jsconfig.json
// pattern, which forces allowJs on (§4.2).
func IsJSConfig(configPath string) bool {
	return filepath.Base(configPath) == "jsconfig.json"
}
