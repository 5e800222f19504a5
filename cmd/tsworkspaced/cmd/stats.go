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

package cmd

import (
	"context"
	"fmt"
	"os"

	"bennypowers.dev/tsworkspace/config"
	"bennypowers.dev/tsworkspace/fetcher"
	"bennypowers.dev/tsworkspace/internal/logging"
	"bennypowers.dev/tsworkspace/types"
	"bennypowers.dev/tsworkspace/vfs"
	"bennypowers.dev/tsworkspace/workspace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Materialize a workspace's module structure and print size counters",
	Long: `Loads .config/tsworkspace.yaml (if present) under --root, constructs a
Workspace over an in-memory VFS with an in-memory Fetcher (or an
HTTP-cache-backed Fetcher if a remote root is set by --remote-root or the
config file), runs ensureModuleStructure, and prints a snapshot
of known URIs, installed configurations, and staged files.

This command wires only this module's own reference VFS/Fetcher and the
tsconfig/jsconfig parser — no real analyzer is attached, so ensureAllFiles
and the hover/definition queries an embedder would run stay unexercised
here. It exists to sanity-check sub-project discovery wiring, not to
replace the LSP dispatcher.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := viper.GetString("root")
		defaults, err := config.LoadWorkspaceDefaults(root)
		if err != nil {
			return fmt.Errorf("loading workspace defaults: %w", err)
		}
		if viper.GetBool("traceModuleResolution") {
			defaults.TraceModuleResolution = true
		}
		if d := viper.GetInt("maxReferenceDepth"); d > 0 {
			defaults.MaxReferenceDepth = d
		}
		remoteRoot := viper.GetString("remoteRoot")
		if remoteRoot == "" {
			remoteRoot = defaults.RemoteRoot
		}

		logger := logging.New()
		if viper.GetBool("verbose") {
			logger.SetDebugEnabled(true)
		}

		v := vfs.New()
		var f types.Fetcher
		if remoteRoot != "" {
			f = fetcher.NewHTTP(remoteRoot, root, os.TempDir()+"/tsworkspaced-cache", v)
		} else {
			f = fetcher.NewInMemory(v)
		}

		analyzer := &types.Analyzer{ConfigParser: &config.DefaultParser{}}
		ws := workspace.New(workspace.Options{
			WorkspaceRoot:         root,
			RemoteRoot:            remoteRoot,
			TraceModuleResolution: defaults.TraceModuleResolution,
			MaxReferenceDepth:     defaults.MaxReferenceDepth,
		}, analyzer, v, f, nil, logger)
		defer ws.Dispose()

		if _, err := ws.EnsureModuleStructure(context.Background()).Wait(context.Background()); err != nil {
			return fmt.Errorf("ensureModuleStructure: %w", err)
		}

		stats := ws.Stats()
		fmt.Printf("known URIs:            %d\n", stats.KnownURIs)
		fmt.Printf("configurations:        %d\n", stats.Configurations)
		fmt.Printf("initialized sessions:  %d\n", stats.InitializedSessions)
		fmt.Printf("staged files:          %d\n", stats.StagedFiles)
		return nil
	},
}
