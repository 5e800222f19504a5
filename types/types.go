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

// Package types holds the contracts the workspace core consumes from its
// external collaborators (VFS, Fetcher, the incremental analyzer, the
// logger) so that none of those concerns leak their concrete
// implementations into the router/session/materialize packages.
package types

import (
	"context"

	"bennypowers.dev/tsworkspace/signal"
)

// URI is a canonical file identifier: forward slashes, unescaped, comparable
// by exact string equality after normalization.
type URI string

// ConfigKind distinguishes tsconfig.json-rooted projects from
// jsconfig.json-rooted ones. The Router keeps one map per kind.
type ConfigKind string

const (
	ConfigKindTS ConfigKind = "ts"
	ConfigKindJS ConfigKind = "js"
)

// VFSEvent is emitted by a VFS the first time a URI is populated.
type VFSEvent struct {
	URI     URI
	Content string
}

// VFS is the in-memory mapping URI -> content that the workspace core reads
// through. It is an external collaborator: the dispatcher's remote file
// system updater is expected to drive it via DidOpen/DidChange/.../Set.
type VFS interface {
	FileExists(path string) bool
	ReadFile(path string) (string, bool)
	GetContent(uri URI) (string, bool)
	URIs() []URI

	DidOpen(uri URI, text string)
	DidChange(uri URI, text string)
	DidClose(uri URI)
	DidSave(uri URI)

	// Set populates a URI from a fetch pipeline. It reports whether this
	// was the URI's first population, since only first population emits
	// an "added" event to subscribers.
	Set(uri URI, content string) (firstPopulation bool)

	// Subscribe returns a channel of "added" events and an unsubscribe
	// function. Closing a subscription must never cancel in-flight
	// fetches that other subscribers still depend on.
	Subscribe() (events <-chan VFSEvent, unsubscribe func())
}

// Fetcher fulfils VFS content from a (possibly remote) backing store. Both
// methods return a signal shared by every concurrent caller for the same
// scope/URI, per the memoization contract in §4.4/§5.
type Fetcher interface {
	// EnsureStructure populates the VFS with the workspace's "known
	// structure" files: configs, global ambient declarations, package.json.
	EnsureStructure(ctx context.Context) *signal.Signal[struct{}]
	// Ensure populates a single URI, exactly once.
	Ensure(ctx context.Context, uri URI) *signal.Signal[struct{}]
}

// CompilerOptions is an opaque bag of parsed compiler-option values; the
// core never interprets its contents beyond forwarding them to the
// analyzer, so a map is sufficient (the real option set belongs to the
// external compiler, out of scope here).
type CompilerOptions map[string]any

// ParsedConfig is the result of parsing a tsconfig.json/jsconfig.json
// against a root directory: the effective compiler options plus the
// expected file set they imply.
type ParsedConfig struct {
	Options       CompilerOptions
	ExpectedFiles []string // absolute paths, de-duplicated
	RootDir       string
	AllowJS       bool
}

// ConfigFileParser adapts the analyzer's config-file parsing pair:
// text-to-JSON, then JSON-to-parsed-config against a root directory and the
// set of paths currently known to the workspace.
type ConfigFileParser interface {
	// ParseConfigFileText turns raw tsconfig/jsconfig source text into its
	// JSON object form. Comments and trailing commas are tolerated.
	ParseConfigFileText(path, text string) (raw map[string]any, err error)
	// ParseJSONConfigFileContent computes compiler options and the expected
	// file set for a config rooted at rootDir. knownPaths is every path the
	// VFS currently knows about, used to resolve include/exclude globs
	// without a separate directory-listing host.
	ParseJSONConfigFileContent(raw map[string]any, rootDir string, knownPaths []string) (*ParsedConfig, error)
}

// ModuleResolutionHost is the minimal file-probing surface the module
// resolver needs; the VFS satisfies it directly.
type ModuleResolutionHost interface {
	FileExists(path string) bool
	ReadFile(path string) (string, bool)
}

// ResolvedModule is the outcome of resolving one import specifier.
type ResolvedModule struct {
	ResolvedFileName string
}

// ModuleResolver resolves an import specifier from a referencing file.
type ModuleResolver interface {
	ResolveModuleName(specifier, containingFile string, options CompilerOptions, host ModuleResolutionHost) (*ResolvedModule, bool)
}

// ResolvedTypeReferenceDirective is the outcome of resolving one
// triple-slash type-reference directive.
type ResolvedTypeReferenceDirective struct {
	ResolvedFileName string
}

// TypeReferenceResolver resolves `/// <reference types="..." />` directives.
type TypeReferenceResolver interface {
	ResolveTypeReferenceDirective(name, containingFile string, options CompilerOptions) (*ResolvedTypeReferenceDirective, bool)
}

// PreProcessedFileInfo is what the analyzer's lightweight pre-processor
// extracts from a source file without a full parse.
type PreProcessedFileInfo struct {
	ImportedFiles           []string // module specifiers
	ReferencedFiles         []string // triple-slash path references, raw
	TypeReferenceDirectives []string
}

// SourcePreProcessor extracts imports/references from source text.
type SourcePreProcessor interface {
	PreProcessFile(fileName, sourceText string) PreProcessedFileInfo
}

// DefaultLibPathResolver resolves the analyzer's default library path for a
// given option set.
type DefaultLibPathResolver interface {
	DefaultLibFilePath(options CompilerOptions) string
}

// ScriptSnapshot is a lightweight handle on file content as the analyzer
// expects it (avoids forcing callers to re-read the VFS).
type ScriptSnapshot interface {
	Text() string
}

// Program is the analyzer's notion of "everything currently compiled";
// used only to check file membership before staging.
type Program interface {
	ContainsFile(path string) bool
}

// LanguageService is the analyzer's per-session entry point.
type LanguageService interface {
	Program() (Program, bool)
}

// DocumentRegistry is the analyzer's shared parsed-source-file cache,
// mostly opaque to the core beyond being handed to the language-service
// factory — except that a Session calls Acquire/Release itself around
// staging and reset so the cache's bound reflects what's actually staged
// across every Session in the workspace (§5 "Shared resource policy").
type DocumentRegistry interface {
	// Acquire registers fileName as staged with the given content, and
	// reports whether an entry for the same (fileName, content) was
	// already held by another Session — a dedup hit.
	Acquire(fileName, content string) (hit bool)
	// Release drops this Session's hold on fileName. The registry is free
	// to evict the underlying parsed form once nothing holds it.
	Release(fileName string)
}

// CompilerHost is the adapter contract the analyzer requires of a project
// session (C3 in the design).
type CompilerHost interface {
	CurrentDirectory() string
	CompilationSettings() CompilerOptions
	ScriptFileNames() []string
	ScriptVersion(path string) string
	ScriptSnapshot(path string) (ScriptSnapshot, bool)
	ProjectVersion() string
	IncProjectVersion()
	NewLine() string
	AddFile(path string)
	Complete() bool
	SetComplete(complete bool)
}

// Logger is the consumed logging surface. The core calls Error for failed
// change-intake and dispose steps, Warning for a reference-resolution
// failure the referenced-files walk skips, and Debug when the Router
// installs a Session; Info exists for an embedder's convenience.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
}

// Span is one tracing span; Tracer.Start begins a root span, Span.Child
// begins a nested one.
type Span interface {
	Tag(key string, value any)
	Child(name string) Span
	End()
}

// Tracer starts tracing spans (§6 "Logger: ... tracing spans").
type Tracer interface {
	Start(name string) Span
}

// Analyzer bundles every external-analyzer collaborator a Session needs:
// the config-parsing pair, the resolvers the referenced-files walk drives,
// and the factories that build a document registry and a language service
// over a host. One Analyzer is shared by every Session in a workspace (§6
// "Analyzer: document-registry factory; language-service factory over a
// host; ...").
type Analyzer struct {
	ConfigParser    ConfigFileParser
	ModuleResolver  ModuleResolver
	TypeRefResolver TypeReferenceResolver
	PreProcessor    SourcePreProcessor
	DefaultLibPath  DefaultLibPathResolver

	// NewDocumentRegistry is called once per workspace to build the shared
	// document registry handed to every Session's language service.
	NewDocumentRegistry func() DocumentRegistry
	// NewLanguageService builds a Session's language service over its host
	// and the workspace's shared registry.
	NewLanguageService func(host CompilerHost, registry DocumentRegistry) LanguageService
}
