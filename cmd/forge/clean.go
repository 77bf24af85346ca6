package main

import (
	"github.com/spf13/cobra"

	"forge/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all build artifacts",
	Long:  "Remove the build, bin and lib directories plus any stray object or archive files under the project root.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(_ *cobra.Command, _ []string) error {
	proj, err := project.Resolve(".")
	if err != nil {
		return err
	}
	return runCleanAction(proj)
}
