// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/esacteksab/gh-actaudit/utils"
)

// Variables to hold build information, populated at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	verbose bool
)

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
	rootCmd.SetVersionTemplate(`{{printf "Version %s" .Version}}` + "\n")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug logging")
}

// Execute runs the root command and exits with its status code. Called by
// main.main.
func Execute() {
	os.Exit(Main())
}

// Main runs the root command and returns the process exit code without
// calling os.Exit, so it can be registered as an in-process pseudo-binary by
// the testscript harness.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

var rootCmd = &cobra.Command{
	Use:          "gh-actaudit",
	Short:        "gh-actaudit audits a project's GitHub Actions workflows for supply-chain risk.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.CreateLogger(verbose)
		return nil
	},
}
