// Package buildpipeline orchestrates compilation, archiving and linking of
// the project's native sources under one build profile.
package buildpipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"forge/internal/profile"
	"forge/internal/project"
	"forge/internal/toolchain"
)

// Builder is the immutable configuration for one profile's build stages.
// Stage methods are functions of (Builder, discovered inputs) -> artifacts;
// nothing on the value is mutated, so two Builders for different profiles
// never interfere.
type Builder struct {
	Project  project.Project
	Layout   project.Layout
	Profile  profile.Profile
	Tools    toolchain.Toolchain
	Progress ProgressSink
	Out      io.Writer
}

// New assembles a Builder for the given project and profile, resolving the
// toolchain from platform defaults plus manifest overrides.
func New(p project.Project, prof profile.Profile) Builder {
	return Builder{
		Project: p,
		Layout:  project.NewLayout(p),
		Profile: prof,
		Tools:   toolchain.Default().WithOverrides(p.CC, p.AR),
		Out:     io.Discard,
	}
}

// WithProgress returns a copy of the Builder that reports events to sink.
func (b Builder) WithProgress(sink ProgressSink) Builder {
	b.Progress = sink
	return b
}

// WithOutput returns a copy of the Builder that writes progress lines to out.
func (b Builder) WithOutput(out io.Writer) Builder {
	if out == nil {
		out = io.Discard
	}
	b.Out = out
	return b
}

// LibrarySources enumerates the library-group sources: everything under the
// source root except test and app subtrees.
func (b Builder) LibrarySources() ([]string, error) {
	return DiscoverSources(b.Project.SrcRoot, "tests", "apps")
}

// TestSources enumerates the test-group sources. Never merged with the
// library group; each test links individually against the library.
func (b Builder) TestSources() ([]string, error) {
	return DiscoverSources(b.Project.TestRoot)
}

func (b Builder) printf(format string, args ...any) {
	if b.Out == nil {
		return
	}
	fmt.Fprintf(b.Out, format, args...)
}

// display renders a path relative to the project root for progress output.
func (b Builder) display(path string) string {
	if b.Project.Root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(b.Project.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// Result captures the artifacts produced by one build action.
type Result struct {
	Action          string
	Objects         []string
	Recompiled      int
	Library         string
	Executable      string
	Alias           string
	TestBinaries    []string
	FailedTestLinks []TestLinkFailure
	Timings         Timings
}

// TestLinkFailure records one test executable that could not be linked.
// These are deliberately non-fatal: one broken test must not block the rest.
type TestLinkFailure struct {
	Stem string
	Err  error
}

func (r *Result) merge(other Result) {
	if len(other.Objects) > 0 {
		r.Objects = other.Objects
	}
	r.Recompiled += other.Recompiled
	if other.Library != "" {
		r.Library = other.Library
	}
	if other.Executable != "" {
		r.Executable = other.Executable
	}
	if other.Alias != "" {
		r.Alias = other.Alias
	}
	r.TestBinaries = append(r.TestBinaries, other.TestBinaries...)
	r.FailedTestLinks = append(r.FailedTestLinks, other.FailedTestLinks...)
	for stage, dur := range other.Timings.stages {
		r.Timings.Add(stage, dur)
	}
}
