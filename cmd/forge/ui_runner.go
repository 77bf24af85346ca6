package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"forge/internal/buildpipeline"
	"forge/internal/ui"
)

// runBuildWithUI executes a build action in the background while a Bubble
// Tea model renders its progress events.
func runBuildWithUI(ctx context.Context, title string, files []string, builder buildpipeline.Builder, action string) (buildpipeline.Result, error) {
	events := make(chan buildpipeline.Event, 256)

	var result buildpipeline.Result
	var group errgroup.Group
	group.Go(func() error {
		defer close(events)
		res, err := dispatchBuild(ctx, builder.WithProgress(&buildpipeline.ChannelSink{Ch: events}), action)
		result = res
		return err
	})

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	buildErr := group.Wait()
	if uiErr != nil {
		return result, uiErr
	}
	return result, buildErr
}
