package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"forge/internal/buildpipeline"
	"forge/internal/profile"
	"forge/internal/project"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last recorded build per configuration",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	proj, err := project.Resolve(".")
	if err != nil {
		return err
	}
	layout := project.NewLayout(proj)

	found := false
	for _, name := range profile.Names() {
		record, ok, err := buildpipeline.LoadRecord(layout.RecordPath(name))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		found = true
		fmt.Fprintf(os.Stdout, "%s: %s at %s (%d objects, %d recompiled, %d ms)\n",
			record.Profile,
			record.Action,
			record.CreatedAt.Format("2006-01-02 15:04:05"),
			record.ObjectCount,
			record.RecompiledCount,
			record.WallMillis,
		)
		if len(record.FailedTestLinks) > 0 {
			fmt.Fprintf(os.Stdout, "  failed test links: %v\n", record.FailedTestLinks)
		}
	}
	if !found {
		fmt.Fprintln(os.Stdout, "no recorded builds")
	}
	return nil
}
