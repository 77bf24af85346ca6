// Package testrun executes built test binaries and aggregates pass/fail.
package testrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Test executables are recognised by naming convention, independently of
// any build bookkeeping.
var testPrefixes = []string{"test_", "unit_", "integration_"}

// Result is the outcome of one test executable. It lives only for the
// duration of a run; nothing is persisted.
type Result struct {
	Name     string
	Path     string
	Passed   bool
	ExitCode int
	Output   string
}

var (
	passMark = color.New(color.FgGreen, color.Bold).Sprint("PASS")
	failMark = color.New(color.FgRed, color.Bold).Sprint("FAIL")
)

// Discover re-scans binDir for regular files matching the test naming
// convention, sorted by name. It deliberately ignores in-memory state from
// the build: whatever is on disk right now is what runs.
func Discover(binDir string) ([]string, error) {
	entries, err := os.ReadDir(binDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan %q: %w", binDir, err)
	}
	var tests []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, prefix := range testPrefixes {
			if strings.HasPrefix(name, prefix) {
				tests = append(tests, filepath.Join(binDir, name))
				break
			}
		}
	}
	sort.Strings(tests)
	return tests, nil
}

// Run executes every discovered test binary sequentially, capturing exit
// code and diagnostic output. A failing test never stops subsequent
// executions; allPassed is true iff every test exited zero.
func Run(ctx context.Context, binDir string, out io.Writer) (allPassed bool, results []Result, err error) {
	if out == nil {
		out = io.Discard
	}
	tests, err := Discover(binDir)
	if err != nil {
		return false, nil, err
	}
	fmt.Fprintf(out, "\nRunning %d tests...\n", len(tests))

	allPassed = true
	for _, test := range tests {
		name := filepath.Base(test)
		fmt.Fprintf(out, "\nRunning %s...\n", name)

		// #nosec G204 -- test binaries come from the project's own bin dir
		cmd := exec.CommandContext(ctx, test)
		output, runErr := cmd.CombinedOutput()
		result := Result{
			Name:   name,
			Path:   test,
			Passed: runErr == nil,
			Output: string(output),
		}
		if runErr != nil {
			var exitErr *exec.ExitError
			if !errors.As(runErr, &exitErr) {
				return false, results, fmt.Errorf("failed to execute %q: %w", test, runErr)
			}
			result.ExitCode = exitErr.ExitCode()
		}

		if result.Passed {
			fmt.Fprintf(out, "%s %s\n", passMark, name)
		} else {
			allPassed = false
			fmt.Fprintf(out, "%s %s (exit %d)\n", failMark, name, result.ExitCode)
			if diag := strings.TrimSpace(result.Output); diag != "" {
				fmt.Fprintf(out, "%s\n", diag)
			}
		}
		results = append(results, result)
	}
	return allPassed, results, nil
}
