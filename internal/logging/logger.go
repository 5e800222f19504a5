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

// Package logging provides the default implementation of types.Logger used
// when an embedder doesn't supply its own. The dispatcher is free to pass
// any types.Logger it likes; this one exists so the module is usable
// standalone and so tests have somewhere to assert against.
package logging

import (
	"fmt"
	"os"
	"sync"

	"bennypowers.dev/tsworkspace/types"
	"github.com/pterm/pterm"
)

var (
	_ types.Logger = (*Logger)(nil)
	_ types.Logger = Noop{}
	_ types.Logger = Stderr{}
)

func init() {
	pterm.Info = *pterm.Info.WithPrefix(pterm.Prefix{
		Text:  "INFO",
		Style: pterm.NewStyle(pterm.FgBlue),
	}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)

	pterm.Warning = *pterm.Warning.WithPrefix(pterm.Prefix{
		Text:  "WARNING",
		Style: pterm.NewStyle(pterm.FgYellow),
	}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)

	pterm.Error = *pterm.Error.WithPrefix(pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.FgRed),
	}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)

	pterm.Debug = *pterm.Debug.WithPrefix(pterm.Prefix{
		Text:  "DEBUG",
		Style: pterm.NewStyle(pterm.FgCyan),
	}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)
}

// Logger is the default types.Logger: pterm-backed, debug messages gated by
// a runtime toggle (the dispatcher flips this from its own trace setting).
type Logger struct {
	mu           sync.RWMutex
	debugEnabled bool
}

// New creates a Logger with debug output disabled.
func New() *Logger {
	return &Logger{}
}

// SetDebugEnabled toggles whether Debug messages are emitted.
func (l *Logger) SetDebugEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugEnabled = enabled
}

func (l *Logger) Debug(format string, args ...any) {
	l.mu.RLock()
	enabled := l.debugEnabled
	l.mu.RUnlock()
	if !enabled {
		return
	}
	pterm.Debug.Println(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	pterm.Info.Println(fmt.Sprintf(format, args...))
}

func (l *Logger) Warning(format string, args ...any) {
	pterm.Warning.Println(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	pterm.Error.Println(fmt.Sprintf(format, args...))
}

// Noop is a types.Logger that discards everything, used where a caller
// doesn't want pterm's stderr output (tests, silent embedders).
type Noop struct{}

func (Noop) Debug(string, ...any)   {}
func (Noop) Info(string, ...any)    {}
func (Noop) Warning(string, ...any) {}
func (Noop) Error(string, ...any)   {}

// Stderr is a minimal types.Logger that writes plain lines to stderr,
// useful when pterm's ANSI styling isn't wanted (piped output, CI logs).
type Stderr struct{}

func (Stderr) Debug(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
}
func (Stderr) Info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[INFO] "+format+"\n", args...)
}
func (Stderr) Warning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[WARNING] "+format+"\n", args...)
}
func (Stderr) Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
}
