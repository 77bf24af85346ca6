package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"forge/internal/project"
	"forge/internal/testrun"
)

var runTestsCmd = &cobra.Command{
	Use:   "run-tests",
	Short: "Execute built test binaries and aggregate pass/fail",
	Args:  cobra.NoArgs,
	RunE:  runRunTests,
}

func runRunTests(cmd *cobra.Command, _ []string) error {
	cleanFirst, err := cmd.Root().PersistentFlags().GetBool("clean")
	if err != nil {
		return err
	}
	proj, err := project.Resolve(".")
	if err != nil {
		return err
	}
	if cleanFirst {
		if err := runCleanAction(proj); err != nil {
			return err
		}
	}

	layout := project.NewLayout(proj)
	allPassed, results, err := testrun.Run(cmd.Context(), layout.BinDir, os.Stdout)
	if err != nil {
		return err
	}
	if allPassed {
		fmt.Fprintf(os.Stdout, "\n%s\n", color.GreenString("All tests passed!"))
		return nil
	}
	failed := 0
	for _, result := range results {
		if !result.Passed {
			failed++
		}
	}
	fmt.Fprintf(os.Stdout, "\n%s\n", color.RedString("Some tests failed!"))
	return fmt.Errorf("%d of %d tests failed", failed, len(results))
}
