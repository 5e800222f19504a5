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

// Command tsworkspaced bootstraps a bennypowers.dev/tsworkspace Workspace
// for an embedder. It is not the LSP transport or dispatcher (those stay
// external per spec.md §1) — it only wires flags/config into the
// workspace.Options an embedding dispatcher needs, and offers a diagnostic
// "stats" subcommand useful while wiring a real one up.
package main

import "bennypowers.dev/tsworkspace/cmd/tsworkspaced/cmd"

func main() {
	cmd.Execute()
}
