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

// Package errs holds the typed error kinds from §7 of the design: which
// ones are fatal to a single session versus merely retried by a
// memoized pipeline.
package errs

import "fmt"

// ConfigParseError is raised when a Session's config file fails to parse.
// It is fatal to that Session alone — the Session stays uninitialized and
// the next ensureConfigFile call retries, but other Sessions (and the
// fallback) keep working.
type ConfigParseError struct {
	ConfigPath string
	Message    string
	Err        error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("failed to parse config %s: %s", e.ConfigPath, e.Message)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// ConfigNotFound is raised by the throwing variant of configurationFor when
// no Session, including no fallback, owns a path.
type ConfigNotFound struct {
	Path string
	Kind string
}

func (e *ConfigNotFound) Error() string {
	return fmt.Sprintf("no %s configuration found for %s", e.Kind, e.Path)
}

// FetchError wraps a failure from the Fetcher surfaced by an ensure-pipeline.
// The pipeline's memoized signal is evicted before this reaches a caller.
type FetchError struct {
	URI string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ReferenceResolutionError wraps a failure resolving a file's direct
// references. In ensureReferencedFiles it is caught per branch and the walk
// continues; as resolveReferencedFiles's own return value, its cache entry
// is evicted before it surfaces.
type ReferenceResolutionError struct {
	URI string
	Err error
}

func (e *ReferenceResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve references for %s: %v", e.URI, e.Err)
}

func (e *ReferenceResolutionError) Unwrap() error { return e.Err }
