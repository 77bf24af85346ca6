package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"forge/internal/profile"
	"forge/internal/project"
	"forge/internal/toolchain"
)

// The stub compiler records every invocation in cc.log and fails on demand:
// a compile (-c) of a source containing "broken" fails, as does a link (no
// -c) whose output contains "badlink". Everything else touches the -o
// target and succeeds.
const stubCCScript = `#!/bin/sh
echo "$@" >> "$(dirname "$0")/cc.log"
mode=link
for arg in "$@"; do
  [ "$arg" = "-c" ] && mode=compile
done
for arg in "$@"; do
  case "$arg" in
    *broken*) if [ "$mode" = "compile" ]; then echo "induced compile failure: $arg" >&2; exit 1; fi ;;
  esac
done
if [ "$mode" = "link" ]; then
  for arg in "$@"; do
    case "$arg" in
      *badlink*) echo "induced link failure: $arg" >&2; exit 1 ;;
    esac
  done
fi
out=""
prev=""
for arg in "$@"; do
  [ "$prev" = "-o" ] && out="$arg"
  prev="$arg"
done
[ -n "$out" ] && echo built > "$out"
exit 0
`

const stubARScript = `#!/bin/sh
echo "$@" >> "$(dirname "$0")/ar.log"
[ -n "$2" ] && echo archive > "$2"
exit 0
`

func requireSh(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub toolchain requires sh")
	}
}

func writeStubToolchain(t *testing.T) toolchain.Toolchain {
	t.Helper()
	dir := t.TempDir()
	cc := filepath.Join(dir, "stub-cc")
	ar := filepath.Join(dir, "stub-ar")
	if err := os.WriteFile(cc, []byte(stubCCScript), 0o700); err != nil {
		t.Fatalf("write stub cc: %v", err)
	}
	if err := os.WriteFile(ar, []byte(stubARScript), 0o700); err != nil {
		t.Fatalf("write stub ar: %v", err)
	}
	return toolchain.Toolchain{CC: cc, AR: ar}
}

func writeSource(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir %q: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("int f(void);\n"), 0o600); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}

func newTestBuilder(t *testing.T, root, profileName string) Builder {
	t.Helper()
	prof, err := profile.Lookup(profileName)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", profileName, err)
	}
	proj := project.Project{
		Name:        "spectre",
		Root:        root,
		SrcRoot:     filepath.Join(root, "src"),
		TestRoot:    filepath.Join(root, "tests"),
		IncludeRoot: filepath.Join(root, "include"),
	}
	b := New(proj, prof)
	b.Tools = writeStubToolchain(t)
	return b
}

// compileInvocations counts compiler runs recorded by the stub, optionally
// filtered to lines mentioning substr.
func compileInvocations(t *testing.T, b Builder, substr string) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(b.Tools.CC), "cc.log"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatalf("read cc.log: %v", err)
	}
	count := 0
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if !strings.Contains(line, " -c ") {
			continue
		}
		if substr == "" || strings.Contains(line, substr) {
			count++
		}
	}
	return count
}

// ageSources pushes every source mtime into the past so freshly written
// objects are strictly newer.
func ageSources(t *testing.T, root string) {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		return os.Chtimes(path, past, past)
	})
	if err != nil {
		t.Fatalf("age sources: %v", err)
	}
}

func TestBuildLibraryCompileIdempotent(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "kernel", "scheduler.c"))
	writeSource(t, filepath.Join(root, "src", "embedded", "sensors.c"))
	ageSources(t, root)

	b := newTestBuilder(t, root, "debug")
	ctx := context.Background()

	result, err := b.BuildLibrary(ctx)
	if err != nil {
		t.Fatalf("BuildLibrary: %v", err)
	}
	if len(result.Objects) != 2 || result.Recompiled != 2 {
		t.Fatalf("first build: objects=%d recompiled=%d", len(result.Objects), result.Recompiled)
	}
	if got := compileInvocations(t, b, ""); got != 2 {
		t.Fatalf("first build spawned %d compiles, want 2", got)
	}

	result, err = b.BuildLibrary(ctx)
	if err != nil {
		t.Fatalf("BuildLibrary (second): %v", err)
	}
	if result.Recompiled != 0 {
		t.Fatalf("second build recompiled %d, want 0", result.Recompiled)
	}
	if got := compileInvocations(t, b, ""); got != 2 {
		t.Fatalf("second build spawned extra compiles: total %d, want 2", got)
	}
}

func TestStaleSourceTriggersRebuild(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	src := filepath.Join(root, "src", "kernel.c")
	writeSource(t, src)
	ageSources(t, root)

	b := newTestBuilder(t, root, "debug")
	ctx := context.Background()
	if _, err := b.BuildLibrary(ctx); err != nil {
		t.Fatalf("BuildLibrary: %v", err)
	}

	// Advance the source past its object.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(src, future, future); err != nil {
		t.Fatalf("touch source: %v", err)
	}
	result, err := b.BuildLibrary(ctx)
	if err != nil {
		t.Fatalf("BuildLibrary (after touch): %v", err)
	}
	if result.Recompiled != 1 {
		t.Fatalf("recompiled = %d, want 1", result.Recompiled)
	}
	if got := compileInvocations(t, b, "kernel.c"); got != 2 {
		t.Fatalf("kernel.c compiled %d times, want 2", got)
	}
}

func TestFatalCompileShortCircuits(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "a_first.c"))
	writeSource(t, filepath.Join(root, "src", "broken.c"))
	writeSource(t, filepath.Join(root, "src", "z_last.c"))
	ageSources(t, root)

	b := newTestBuilder(t, root, "debug")
	_, err := b.BuildLibrary(context.Background())
	if err == nil {
		t.Fatalf("expected compile failure")
	}
	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("error = %T %v, want CompileError", err, err)
	}
	if !strings.Contains(compileErr.Output, "induced compile failure") {
		t.Fatalf("error output = %q, want captured stderr", compileErr.Output)
	}
	if got := compileInvocations(t, b, "z_last.c"); got != 0 {
		t.Fatalf("z_last.c was compiled after the fatal failure")
	}
	if _, statErr := os.Stat(b.Layout.LibraryPath("debug")); !os.IsNotExist(statErr) {
		t.Fatalf("library was created despite compile failure")
	}
}

func TestProfileIsolation(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "core.c"))
	ageSources(t, root)

	debug := newTestBuilder(t, root, "debug")
	release := newTestBuilder(t, root, "release")
	ctx := context.Background()

	if _, err := debug.BuildLibrary(ctx); err != nil {
		t.Fatalf("debug BuildLibrary: %v", err)
	}
	if _, err := debug.BuildExecutable(ctx); err != nil {
		t.Fatalf("debug BuildExecutable: %v", err)
	}
	if _, err := release.BuildLibrary(ctx); err != nil {
		t.Fatalf("release BuildLibrary: %v", err)
	}
	if _, err := release.BuildExecutable(ctx); err != nil {
		t.Fatalf("release BuildExecutable: %v", err)
	}

	for _, path := range []string{
		filepath.Join(debug.Layout.ObjDir("debug"), "core.o"),
		debug.Layout.LibraryPath("debug"),
		debug.Layout.ExecutablePath("debug"),
		filepath.Join(release.Layout.ObjDir("release"), "core.o"),
		release.Layout.LibraryPath("release"),
		release.Layout.ExecutablePath("release"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected artifact %q after both profiles built: %v", path, err)
		}
	}
}

func TestAliasLastBuildWins(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "core.c"))
	ageSources(t, root)
	ctx := context.Background()

	release := newTestBuilder(t, root, "release")
	if _, err := release.BuildExecutable(ctx); err != nil {
		t.Fatalf("release BuildExecutable: %v", err)
	}
	debug := newTestBuilder(t, root, "debug")
	result, err := debug.BuildExecutable(ctx)
	if err != nil {
		t.Fatalf("debug BuildExecutable: %v", err)
	}

	alias := debug.Layout.AliasPath()
	if result.Alias != alias {
		t.Fatalf("result.Alias = %q, want %q", result.Alias, alias)
	}
	target, err := os.Readlink(alias)
	if err != nil {
		t.Skipf("alias is not a symlink on this platform: %v", err)
	}
	if target != debug.Layout.ExecutablePath("debug") {
		t.Fatalf("alias points at %q, want debug executable", target)
	}
}

func TestTestLinkFailureIsolated(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "core.c"))
	writeSource(t, filepath.Join(root, "tests", "test_badlink.c"))
	writeSource(t, filepath.Join(root, "tests", "unit_tests.c"))
	ageSources(t, root)

	b := newTestBuilder(t, root, "debug")
	result, err := b.BuildTests(context.Background())
	if err != nil {
		t.Fatalf("BuildTests: %v", err)
	}
	if len(result.FailedTestLinks) != 1 || result.FailedTestLinks[0].Stem != "test_badlink" {
		t.Fatalf("FailedTestLinks = %+v, want one entry for test_badlink", result.FailedTestLinks)
	}
	if len(result.TestBinaries) != 1 {
		t.Fatalf("TestBinaries = %v, want the surviving test", result.TestBinaries)
	}
	surviving := b.Layout.TestExecutablePath("unit_tests", "debug")
	if result.TestBinaries[0] != surviving {
		t.Fatalf("TestBinaries[0] = %q, want %q", result.TestBinaries[0], surviving)
	}
	if _, statErr := os.Stat(surviving); statErr != nil {
		t.Fatalf("surviving test binary missing: %v", statErr)
	}
	if _, statErr := os.Stat(b.Layout.TestExecutablePath("test_badlink", "debug")); !os.IsNotExist(statErr) {
		t.Fatalf("failed test binary should not exist")
	}
}

func TestBuildTestsBuildsLibraryLazily(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "core.c"))
	writeSource(t, filepath.Join(root, "tests", "unit_tests.c"))
	ageSources(t, root)

	b := newTestBuilder(t, root, "debug")
	result, err := b.BuildTests(context.Background())
	if err != nil {
		t.Fatalf("BuildTests: %v", err)
	}
	if result.Library != b.Layout.LibraryPath("debug") {
		t.Fatalf("result.Library = %q", result.Library)
	}
	if _, statErr := os.Stat(result.Library); statErr != nil {
		t.Fatalf("library was not built lazily: %v", statErr)
	}
}

func TestStemCollisionFailsFast(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "kernel", "init.c"))
	writeSource(t, filepath.Join(root, "src", "embedded", "init.c"))
	ageSources(t, root)

	b := newTestBuilder(t, root, "debug")
	_, err := b.BuildLibrary(context.Background())
	var collisionErr *StemCollisionError
	if !errors.As(err, &collisionErr) {
		t.Fatalf("error = %v, want StemCollisionError", err)
	}
	if collisionErr.Stem != "init" {
		t.Fatalf("collision stem = %q, want init", collisionErr.Stem)
	}
	if got := compileInvocations(t, b, ""); got != 0 {
		t.Fatalf("compiled %d files despite collision", got)
	}
}

func TestBuildAllWritesRecord(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "core.c"))
	writeSource(t, filepath.Join(root, "tests", "unit_tests.c"))
	ageSources(t, root)

	b := newTestBuilder(t, root, "debug")
	if _, err := b.BuildAll(context.Background()); err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	record, ok, err := LoadRecord(b.Layout.RecordPath("debug"))
	if err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if !ok {
		t.Fatalf("expected a build record after BuildAll")
	}
	if record.Action != "all" || record.Profile != "debug" || record.Project != "spectre" {
		t.Fatalf("record = %+v", record)
	}
	if record.ObjectCount != 1 {
		t.Fatalf("record.ObjectCount = %d, want 1", record.ObjectCount)
	}
	if len(record.TestBinaries) != 1 {
		t.Fatalf("record.TestBinaries = %v", record.TestBinaries)
	}
}

func TestDiscoverSourcesSortedAndFiltered(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "zeta.c"))
	writeSource(t, filepath.Join(root, "src", "kernel", "alpha.c"))
	writeSource(t, filepath.Join(root, "src", "apps", "tool.c"))
	if err := os.WriteFile(filepath.Join(root, "src", "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	sources, err := DiscoverSources(filepath.Join(root, "src"), "tests", "apps")
	if err != nil {
		t.Fatalf("DiscoverSources: %v", err)
	}
	want := []string{
		filepath.Join(root, "src", "kernel", "alpha.c"),
		filepath.Join(root, "src", "zeta.c"),
	}
	if len(sources) != len(want) {
		t.Fatalf("sources = %v, want %v", sources, want)
	}
	for i := range want {
		if sources[i] != want[i] {
			t.Fatalf("sources[%d] = %q, want %q", i, sources[i], want[i])
		}
	}
}

// recordingSink captures every event for assertions.
type recordingSink struct {
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.events = append(s.events, evt)
}

func (s *recordingSink) has(file string, stage Stage, status Status) bool {
	for _, ev := range s.events {
		if ev.File == file && ev.Stage == stage && ev.Status == status {
			return true
		}
	}
	return false
}

func TestProgressEventsKeyedBySourcePath(t *testing.T) {
	requireSh(t)
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "core.c"))
	writeSource(t, filepath.Join(root, "tests", "test_badlink.c"))
	writeSource(t, filepath.Join(root, "tests", "unit_tests.c"))
	ageSources(t, root)

	sink := &recordingSink{}
	b := newTestBuilder(t, root, "debug").WithProgress(sink)
	if _, err := b.BuildTests(context.Background()); err != nil {
		t.Fatalf("BuildTests: %v", err)
	}

	for _, file := range []string{"src/core.c", "tests/test_badlink.c", "tests/unit_tests.c"} {
		if !sink.has(file, StageCompile, StatusQueued) {
			t.Fatalf("no queued compile event for %q; events: %+v", file, sink.events)
		}
	}
	// Test-link events must reuse the compile-stage key, not the bare stem.
	if !sink.has("tests/unit_tests.c", StageTestLink, StatusDone) {
		t.Fatalf("no test-link done event for tests/unit_tests.c; events: %+v", sink.events)
	}
	if !sink.has("tests/test_badlink.c", StageTestLink, StatusError) {
		t.Fatalf("no test-link error event for tests/test_badlink.c; events: %+v", sink.events)
	}
	for _, ev := range sink.events {
		if ev.Stage == StageTestLink && (ev.File == "unit_tests" || ev.File == "test_badlink") {
			t.Fatalf("test-link event carries bare stem %q", ev.File)
		}
	}
}

func TestMissingToolchainFailsEarly(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "src", "core.c"))

	b := newTestBuilder(t, root, "debug")
	b.Tools = toolchain.Toolchain{CC: "forge-no-such-cc", AR: "forge-no-such-ar"}
	_, err := b.BuildLibrary(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not found on PATH") {
		t.Fatalf("error = %v, want a missing-tool report", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "build")); !os.IsNotExist(statErr) {
		t.Fatalf("build tree was created despite missing toolchain")
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	sources, err := DiscoverSources(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("DiscoverSources on missing root: %v", err)
	}
	if len(sources) != 0 {
		t.Fatalf("sources = %v, want empty", sources)
	}
}
