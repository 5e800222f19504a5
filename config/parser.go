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
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"bennypowers.dev/tsworkspace/types"
	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/tidwall/gjson"
)

var defaultExcludes = []string{
	"node_modules/**",
	"bower_components/**",
	"jspm_packages/**",
}

// DefaultParser implements types.ConfigFileParser for tsconfig.json /
// jsconfig.json text. tsconfig files are JSON-with-comments, so the text is
// stripped before strict decoding; gjson is used ahead of that strict
// decode to tolerantly peek "extends" without requiring the file to be
// fully well-formed yet.
type DefaultParser struct{}

var _ types.ConfigFileParser = (*DefaultParser)(nil)

// ParseConfigFileText strips JSONC comments and trailing commas, then
// decodes into a generic map. The "extends" field, if present, is kept as a
// string under the same key; this module does not walk extends chains, and
// ParseJSONConfigFileContent ignores the field.
func (p *DefaultParser) ParseConfigFileText(path, text string) (map[string]any, error) {
	extends := gjson.Get(stripJSONComments(text), "extends").String()

	cleaned := stripTrailingCommas(stripJSONComments(text))
	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	if extends != "" {
		raw["extends"] = extends
	}
	return raw, nil
}

// ParseJSONConfigFileContent computes compiler options and the expected
// file set for a config rooted at rootDir, matching include/exclude globs
// against knownPaths (the VFS's current URI snapshot — see
// types.ConfigFileParser for why this module resolves include/exclude
// against the VFS rather than a directory-listing host).
func (p *DefaultParser) ParseJSONConfigFileContent(raw map[string]any, rootDir string, knownPaths []string) (*types.ParsedConfig, error) {
	options := types.CompilerOptions{}
	if co, ok := raw["compilerOptions"].(map[string]any); ok {
		for k, v := range co {
			options[k] = v
		}
	}

	includePatterns := stringSlice(raw["include"])
	if len(includePatterns) == 0 {
		includePatterns = []string{"**/*"}
	}
	excludePatterns := stringSlice(raw["exclude"])
	if len(excludePatterns) == 0 {
		excludePatterns = append(excludePatterns, defaultExcludes...)
	}

	matcher, err := ignore.CompileIgnoreLines(excludePatterns...)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude patterns: %w", err)
	}

	allowJS, _ := options["allowJs"].(bool)

	var expected []string
	for _, path := range knownPaths {
		rel, err := filepath.Rel(rootDir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(includePatterns, rel) {
			continue
		}
		if matcher.MatchesPath(rel) {
			continue
		}
		if !isExpectedSourceKind(path, allowJS) {
			continue
		}
		expected = append(expected, path)
	}

	return &types.ParsedConfig{
		Options:       options,
		ExpectedFiles: expected,
		RootDir:       rootDir,
		AllowJS:       allowJS,
	}, nil
}

func isExpectedSourceKind(path string, allowJS bool) bool {
	if IsDeclarationFile(path) {
		return true
	}
	switch filepath.Ext(path) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	case ".js", ".jsx", ".mjs", ".cjs":
		return allowJS
	default:
		return false
	}
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func stringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// stripJSONComments removes // line comments and /* */ block comments from
// JSONC text, respecting string literals so a "//" inside a string survives.
// No library in this corpus handles JSONC, so this is hand-rolled and kept
// deliberately small (see DESIGN.md).
func stripJSONComments(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	inString := false
	escaped := false
	inLineComment := false
	inBlockComment := false

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		if inLineComment {
			if c == '\n' {
				inLineComment = false
				out.WriteRune(c)
			}
			continue
		}
		if inBlockComment {
			if c == '*' && next == '/' {
				inBlockComment = false
				i++
			}
			continue
		}
		if inString {
			out.WriteRune(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out.WriteRune(c)
		case c == '/' && next == '/':
			inLineComment = true
			i++
		case c == '/' && next == '*':
			inBlockComment = true
			i++
		default:
			out.WriteRune(c)
		}
	}
	return out.String()
}

// stripTrailingCommas removes commas that immediately precede a closing
// bracket/brace, which encoding/json otherwise rejects but tsc tolerates.
func stripTrailingCommas(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	inString := false
	escaped := false

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if inString {
			out.WriteRune(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out.WriteRune(c)
			continue
		}
		if c == ',' {
			// Look ahead past whitespace for a closing bracket.
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\n' || runes[j] == '\r') {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue
			}
		}
		out.WriteRune(c)
	}
	return out.String()
}
