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
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tsworkspaced",
	Short: "Bootstrap a tsworkspace Workspace for an LSP embedder",
	Long: `tsworkspaced wires flags and a .config/tsworkspace.yaml file into the
workspace.Options an embedding LSP dispatcher needs to construct a
Workspace. It does not itself speak the Language Server Protocol: that
transport, and the incremental analyzer the Workspace stages files into,
are the embedder's own collaborators.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(); it only needs to run once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("root", ".", "workspace root directory")
	rootCmd.PersistentFlags().String("remote-root", "", "remote backing store address (enables the HTTP fetcher instead of the in-memory one)")
	rootCmd.PersistentFlags().Bool("trace-module-resolution", false, "force traceResolution on every session's compiler options")
	rootCmd.PersistentFlags().Int("max-reference-depth", 0, "override ensureReferencedFiles' default depth bound (0 = use workspace config or the built-in default)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging output")

	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("remoteRoot", rootCmd.PersistentFlags().Lookup("remote-root"))
	viper.BindPFlag("traceModuleResolution", rootCmd.PersistentFlags().Lookup("trace-module-resolution"))
	viper.BindPFlag("maxReferenceDepth", rootCmd.PersistentFlags().Lookup("max-reference-depth"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	root := viper.GetString("root")
	abs, err := filepath.Abs(root)
	if err == nil {
		root = abs
	}
	viper.Set("root", root)

	viper.AddConfigPath(filepath.Join(root, ".config"))
	viper.SetConfigType("yaml")
	viper.SetConfigName("tsworkspace")
	viper.AutomaticEnv()

	if viper.GetBool("verbose") {
		pterm.EnableDebugMessages()
	}

	if err := viper.ReadInConfig(); err == nil {
		pterm.Debug.Println("Using config file:", viper.ConfigFileUsed())
	}
}
