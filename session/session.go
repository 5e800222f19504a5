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
	"sync"

	"bennypowers.dev/tsworkspace/config"
	"bennypowers.dev/tsworkspace/internal/errs"
	"bennypowers.dev/tsworkspace/types"
	"bennypowers.dev/tsworkspace/vfs"
)

// Session is C4: a per-configuration compiler-session wrapper. One exists
// per ProjectConfig — either a real tsconfig.json/jsconfig.json, or the
// Router's synthetic fallback at the workspace root.
type Session struct {
	analyzer      *types.Analyzer
	vfs           types.VFS
	versions      *VersionMap
	registry      types.DocumentRegistry
	workspaceRoot string
	rootDir       string
	configPath    string // "" for a fallback session
	syntheticRaw  map[string]any // non-nil for a fallback session's synthetic config
	forceAllowJS  bool
	traceModuleResolution bool
	Kind          types.ConfigKind

	mu                sync.Mutex
	initialized       bool
	ensuredBasicFiles bool
	ensuredAllFiles   bool
	config            *types.ParsedConfig
	expectedSet       map[string]struct{}
	host              *hostAdapter
	langService       types.LanguageService
}

// New creates an uninitialized Session. ensureConfigFile does the actual
// config parsing and host/language-service construction, lazily, on first
// use (§4.2).
func New(analyzer *types.Analyzer, v types.VFS, versions *VersionMap, registry types.DocumentRegistry, kind types.ConfigKind, workspaceRoot, rootDir, configPath string, syntheticRaw map[string]any, forceAllowJS, traceModuleResolution bool) *Session {
	return &Session{
		analyzer:              analyzer,
		vfs:                   v,
		versions:              versions,
		registry:              registry,
		workspaceRoot:         workspaceRoot,
		rootDir:               rootDir,
		configPath:            configPath,
		syntheticRaw:          syntheticRaw,
		forceAllowJS:          forceAllowJS,
		traceModuleResolution: traceModuleResolution,
		Kind:                  kind,
	}
}

// RootDir returns the session's root directory (used by the Router as its
// map key).
func (s *Session) RootDir() string { return s.rootDir }

// ensureConfigFile is idempotent init: parses the config (or adopts the
// pre-baked fallback config), builds the host and language service. Parse
// failure is fatal to this Session alone; the next call re-attempts.
func (s *Session) ensureConfigFile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	parsed, err := s.loadConfig()
	if err != nil {
		return err
	}

	if s.forceAllowJS || (s.configPath != "" && config.IsJSConfig(s.configPath)) {
		parsed.AllowJS = true
		if parsed.Options == nil {
			parsed.Options = types.CompilerOptions{}
		}
		parsed.Options["allowJs"] = true
	}
	if s.traceModuleResolution {
		if parsed.Options == nil {
			parsed.Options = types.CompilerOptions{}
		}
		parsed.Options["traceResolution"] = true
	}

	s.config = parsed
	s.expectedSet = make(map[string]struct{}, len(parsed.ExpectedFiles))
	for _, p := range parsed.ExpectedFiles {
		s.expectedSet[p] = struct{}{}
	}

	s.host = newHostAdapter(s.rootDir, s.vfs, s.versions, s.analyzer.DefaultLibPath, parsed.Options)
	if s.analyzer.NewLanguageService != nil {
		s.langService = s.analyzer.NewLanguageService(s.host, s.registry)
	}
	s.initialized = true
	return nil
}

// loadConfig produces the raw JSON object for this Session's config, either
// by reading and parsing the real config file or, for a fallback Session,
// from its synthetic raw object — then resolves the expected file set
// against whatever the VFS currently knows, exactly like a real config.
func (s *Session) loadConfig() (*types.ParsedConfig, error) {
	raw := s.syntheticRaw
	if raw == nil {
		text, ok := s.vfs.ReadFile(s.configPath)
		if !ok {
			return nil, &errs.ConfigParseError{ConfigPath: s.configPath, Message: "config file not present in workspace"}
		}
		var err error
		raw, err = s.analyzer.ConfigParser.ParseConfigFileText(s.configPath, text)
		if err != nil {
			return nil, &errs.ConfigParseError{ConfigPath: s.configPath, Message: err.Error(), Err: err}
		}
	}

	known := make([]string, 0, len(s.vfs.URIs()))
	for _, uri := range s.vfs.URIs() {
		known = append(known, vfs.URIToPath(uri))
	}

	parsed, err := s.analyzer.ConfigParser.ParseJSONConfigFileContent(raw, s.rootDir, known)
	if err != nil {
		return nil, &errs.ConfigParseError{ConfigPath: s.configPath, Message: err.Error(), Err: err}
	}
	return parsed, nil
}

// ensureBasicFiles calls ensureConfigFile, then stages global
// ambient-declaration files and declaration files in the expected set.
func (s *Session) ensureBasicFiles() error {
	if err := s.ensureConfigFile(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensuredBasicFiles {
		return nil
	}

	for _, uri := range s.vfs.URIs() {
		path := vfs.URIToPath(uri)
		_, expected := s.expectedSet[path]
		isGlobal := config.IsGlobalDeclarationFile(path, s.workspaceRoot)
		isExpectedDecl := expected && config.IsDeclarationFile(path)
		if isGlobal || isExpectedDecl {
			s.stageIfAbsent(path)
		}
	}
	s.ensuredBasicFiles = true
	return nil
}

// ensureSourceFile stages a single path if the analyzer doesn't already
// have it, used by Change Intake (C7).
func (s *Session) ensureSourceFile(path string) error {
	if err := s.ensureConfigFile(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageIfAbsent(path)
	return nil
}

// ensureAllFiles stages every path in the expected file set, once.
func (s *Session) ensureAllFiles() error {
	if err := s.ensureConfigFile(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.host.Complete() {
		return nil
	}
	for _, path := range s.config.ExpectedFiles {
		s.stageIfAbsent(path)
	}
	s.host.SetComplete(true)
	s.ensuredAllFiles = true
	return nil
}

// stageIfAbsent must be called with s.mu held.
func (s *Session) stageIfAbsent(path string) {
	if s.programContains(path) {
		return
	}
	s.host.AddFile(path)
	if s.registry != nil {
		if content, ok := s.vfs.ReadFile(path); ok {
			s.registry.Acquire(path, content)
		}
	}
}

func (s *Session) programContains(path string) bool {
	if s.langService != nil {
		if prog, ok := s.langService.Program(); ok && prog != nil {
			return prog.ContainsFile(path)
		}
	}
	return s.host.Staged(path)
}

// reset zeroes the staging tier flags and drops the host/language-service,
// which are lazily recreated on next use. The shared document registry
// outlives reset.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry != nil && s.host != nil {
		for _, path := range s.host.ScriptFileNames() {
			s.registry.Release(path)
		}
	}
	s.initialized = false
	s.ensuredBasicFiles = false
	s.ensuredAllFiles = false
	s.config = nil
	s.expectedSet = nil
	s.host = nil
	s.langService = nil
}

// getProgram returns the analyzer's cached program, or false if the Session
// isn't initialized or the analyzer declines.
func (s *Session) getProgram() (types.Program, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized || s.langService == nil {
		return nil, false
	}
	return s.langService.Program()
}

// Initialized reports whether ensureConfigFile has completed successfully.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}
