// Package main implements the forge CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"forge/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "forge",
	Short:        "Build orchestrator for native-code projects",
	Long:         "Forge drives an external compiler/archiver toolchain to build a native library, executable and test binaries under multiple configurations.",
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(executableCmd)
	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(runTestsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "debug", "build configuration (debug|release|profile)")
	rootCmd.PersistentFlags().Bool("clean", false, "clean before running the action")
	rootCmd.PersistentFlags().String("ui", "auto", "interactive progress (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show per-stage timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
