package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"forge/internal/buildpipeline"
	"forge/internal/profile"
	"forge/internal/project"
	"forge/internal/workspace"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Build the library, executable and tests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBuildAction(cmd, "all")
	},
}

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Build the static library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBuildAction(cmd, "library")
	},
}

var executableCmd = &cobra.Command{
	Use:   "executable",
	Short: "Build the main executable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBuildAction(cmd, "executable")
	},
}

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Build the test executables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBuildAction(cmd, "tests")
	},
}

func runBuildAction(cmd *cobra.Command, action string) error {
	flags := cmd.Root().PersistentFlags()
	configName, err := flags.GetString("config")
	if err != nil {
		return err
	}
	cleanFirst, err := flags.GetBool("clean")
	if err != nil {
		return err
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return err
	}
	showTimings, err := flags.GetBool("timings")
	if err != nil {
		return err
	}
	mode, err := parseProgressMode(uiValue)
	if err != nil {
		return err
	}

	prof, err := profile.Lookup(configName)
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

	builder := buildpipeline.New(proj, prof)
	files, err := buildFileList(builder, action)
	if err != nil {
		return err
	}

	var result buildpipeline.Result
	if mode.wantInteractive() && len(files) > 0 {
		result, err = runBuildWithUI(cmd.Context(), "forge "+action, files, builder, action)
	} else {
		result, err = dispatchBuild(cmd.Context(), builder.WithOutput(os.Stdout), action)
	}
	if showTimings {
		printStageTimings(os.Stdout, result.Timings)
	}
	if err != nil {
		return err
	}

	for _, failure := range result.FailedTestLinks {
		fmt.Fprintf(os.Stdout, "warning: test %s failed to link and will not run\n", failure.Stem)
	}
	return nil
}

func dispatchBuild(ctx context.Context, builder buildpipeline.Builder, action string) (buildpipeline.Result, error) {
	switch action {
	case "all":
		return builder.BuildAll(ctx)
	case "library":
		return builder.BuildLibrary(ctx)
	case "executable":
		return builder.BuildExecutable(ctx)
	case "tests":
		return builder.BuildTests(ctx)
	default:
		return buildpipeline.Result{}, fmt.Errorf("unknown build action %q", action)
	}
}

// buildFileList collects the source files an action will touch, rendered
// the way the pipeline reports them, for the progress UI.
func buildFileList(builder buildpipeline.Builder, action string) ([]string, error) {
	var sources []string
	if action != "tests" {
		libSources, err := builder.LibrarySources()
		if err != nil {
			return nil, err
		}
		sources = append(sources, libSources...)
	}
	if action == "tests" || action == "all" {
		testSources, err := builder.TestSources()
		if err != nil {
			return nil, err
		}
		sources = append(sources, testSources...)
	}
	return displayFileList(sources, builder.Project.Root), nil
}

func displayFileList(files []string, root string) []string {
	display := make([]string, 0, len(files))
	for _, file := range files {
		display = append(display, formatPathForOutput(root, file))
	}
	return display
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func runCleanAction(proj project.Project) error {
	layout := project.NewLayout(proj)
	removed, err := workspace.Clean(proj.Root, layout)
	if err != nil {
		return err
	}
	for _, path := range removed {
		fmt.Fprintf(os.Stdout, "Removed: %s\n", formatPathForOutput(proj.Root, path))
	}
	fmt.Fprintln(os.Stdout, "Clean complete")
	return nil
}
