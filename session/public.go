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

import "bennypowers.dev/tsworkspace/types"

// EnsureConfigFile is the exported form of ensureConfigFile, called by
// Change Intake and the materialization pipelines.
func (s *Session) EnsureConfigFile() error { return s.ensureConfigFile() }

// EnsureBasicFiles is the exported form of ensureBasicFiles.
func (s *Session) EnsureBasicFiles() error { return s.ensureBasicFiles() }

// EnsureSourceFile is the exported form of ensureSourceFile.
func (s *Session) EnsureSourceFile(path string) error { return s.ensureSourceFile(path) }

// EnsureAllFiles is the exported form of ensureAllFiles.
func (s *Session) EnsureAllFiles() error { return s.ensureAllFiles() }

// Reset is the exported form of reset, called by ensureModuleStructure on
// every Session once the fetch completes (§4.4).
func (s *Session) Reset() { s.reset() }

// GetProgram is the exported form of getProgram.
func (s *Session) GetProgram() (types.Program, bool) { return s.getProgram() }

// IncProjectVersion bumps the session's host project version, called by
// Change Intake after staging a file (§4.6). A no-op if the Session hasn't
// been initialized yet.
func (s *Session) IncProjectVersion() {
	s.mu.Lock()
	host := s.host
	s.mu.Unlock()
	if host != nil {
		host.IncProjectVersion()
	}
}

// ConfigPath returns the session's config file path, empty for a fallback.
func (s *Session) ConfigPath() string { return s.configPath }

// StagedFileCount reports how many paths are currently staged into the
// host, or zero if the Session hasn't been initialized yet.
func (s *Session) StagedFileCount() int {
	s.mu.Lock()
	host := s.host
	s.mu.Unlock()
	if host == nil {
		return 0
	}
	return len(host.ScriptFileNames())
}

// CompilerOptions returns the session's parsed compiler options, or nil if
// the Session has not been initialized yet.
func (s *Session) CompilerOptions() types.CompilerOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return nil
	}
	return s.config.Options
}
