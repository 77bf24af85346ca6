package testrun

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

func requireSh(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub test binaries require sh")
	}
}

func writeTestBinary(t *testing.T, dir, name string, exitCode int, stderr string) {
	t.Helper()
	script := "#!/bin/sh\n"
	if stderr != "" {
		script += "echo '" + stderr + "' >&2\n"
	}
	script += "exit " + strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o700); err != nil {
		t.Fatalf("write %q: %v", name, err)
	}
}

func TestDiscoverByNamingConvention(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"test_vfs", "unit_tests", "integration_tests", "spectre_debug", "spectre"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o700); err != nil {
			t.Fatalf("write %q: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "test_dir"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	tests, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "integration_tests"),
		filepath.Join(dir, "test_vfs"),
		filepath.Join(dir, "unit_tests"),
	}
	if len(tests) != len(want) {
		t.Fatalf("Discover = %v, want %v", tests, want)
	}
	for i := range want {
		if tests[i] != want[i] {
			t.Fatalf("Discover[%d] = %q, want %q", i, tests[i], want[i])
		}
	}
}

func TestRunAggregatesResults(t *testing.T) {
	requireSh(t)
	dir := t.TempDir()
	writeTestBinary(t, dir, "test_alpha", 0, "")
	writeTestBinary(t, dir, "unit_beta", 0, "")
	writeTestBinary(t, dir, "integration_gamma", 1, "assertion failed: gamma")

	var out bytes.Buffer
	allPassed, results, err := Run(context.Background(), dir, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if allPassed {
		t.Fatalf("allPassed = true with a failing test")
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	failing := 0
	for _, result := range results {
		if !result.Passed {
			failing++
			if result.Name != "integration_gamma" {
				t.Fatalf("failing test = %q, want integration_gamma", result.Name)
			}
			if result.ExitCode != 1 {
				t.Fatalf("failing exit code = %d, want 1", result.ExitCode)
			}
			if !strings.Contains(result.Output, "assertion failed") {
				t.Fatalf("failing output = %q, want captured diagnostics", result.Output)
			}
		}
	}
	if failing != 1 {
		t.Fatalf("failing count = %d, want exactly 1", failing)
	}
	if !strings.Contains(out.String(), "integration_gamma") {
		t.Fatalf("output missing failing test name:\n%s", out.String())
	}
}

func TestRunAllPassing(t *testing.T) {
	requireSh(t)
	dir := t.TempDir()
	writeTestBinary(t, dir, "test_alpha", 0, "")
	writeTestBinary(t, dir, "unit_beta", 0, "")

	allPassed, results, err := Run(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !allPassed || len(results) != 2 {
		t.Fatalf("allPassed = %v, results = %d", allPassed, len(results))
	}
}

func TestRunMissingBinDir(t *testing.T) {
	allPassed, results, err := Run(context.Background(), filepath.Join(t.TempDir(), "bin"), nil)
	if err != nil {
		t.Fatalf("Run on missing dir: %v", err)
	}
	if !allPassed || len(results) != 0 {
		t.Fatalf("allPassed = %v, results = %v; want vacuous pass", allPassed, results)
	}
}
