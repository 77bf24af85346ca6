package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"forge/internal/workspace"
)

// BuildLibrary compiles the library-group sources and archives them into
// the profile's static library.
func (b Builder) BuildLibrary(ctx context.Context) (Result, error) {
	result := Result{Action: "library"}
	start := time.Now()
	b.printf("\nBuilding library (%s)...\n", b.Profile.Name)

	if err := b.Tools.Check(); err != nil {
		return result, err
	}
	if err := workspace.Setup(b.Layout, b.Profile.Name); err != nil {
		return result, err
	}
	sources, err := b.LibrarySources()
	if err != nil {
		return result, err
	}
	b.printf("Found %d source files\n", len(sources))

	objects, recompiled, err := b.compileGroup(ctx, sources, b.Layout.ObjDir(b.Profile.Name), &result.Timings)
	if err != nil {
		return result, err
	}
	result.Objects = objects
	result.Recompiled = recompiled

	library, err := b.archive(ctx, objects, &result.Timings)
	if err != nil {
		return result, err
	}
	result.Library = library
	b.printf("Library built: %s\n", b.display(library))

	b.writeRecord(result, time.Since(start))
	return result, nil
}

// BuildExecutable compiles the library-group sources and links them into
// the profile-named main executable, then republishes the default alias.
func (b Builder) BuildExecutable(ctx context.Context) (Result, error) {
	result := Result{Action: "executable"}
	start := time.Now()
	b.printf("\nBuilding executable (%s)...\n", b.Profile.Name)

	if err := b.Tools.Check(); err != nil {
		return result, err
	}
	if err := workspace.Setup(b.Layout, b.Profile.Name); err != nil {
		return result, err
	}
	sources, err := b.LibrarySources()
	if err != nil {
		return result, err
	}

	objects, recompiled, err := b.compileGroup(ctx, sources, b.Layout.ObjDir(b.Profile.Name), &result.Timings)
	if err != nil {
		return result, err
	}
	result.Objects = objects
	result.Recompiled = recompiled

	exe, alias, err := b.linkExecutable(ctx, objects, &result.Timings)
	if err != nil {
		return result, err
	}
	result.Executable = exe
	result.Alias = alias
	b.printf("Executable built: %s\n", b.display(exe))

	b.writeRecord(result, time.Since(start))
	return result, nil
}

// BuildTests compiles each test source and links it individually against
// the profile's library, building the library first when it is absent.
// A test that fails to link is recorded and skipped; the remaining tests
// are still built.
func (b Builder) BuildTests(ctx context.Context) (Result, error) {
	result := Result{Action: "tests"}
	start := time.Now()
	b.printf("\nBuilding tests (%s)...\n", b.Profile.Name)

	if err := b.Tools.Check(); err != nil {
		return result, err
	}
	if err := workspace.Setup(b.Layout, b.Profile.Name); err != nil {
		return result, err
	}

	library := b.Layout.LibraryPath(b.Profile.Name)
	if _, err := os.Stat(library); err != nil {
		if !os.IsNotExist(err) {
			return result, fmt.Errorf("failed to stat library %q: %w", library, err)
		}
		libResult, err := b.BuildLibrary(ctx)
		if err != nil {
			return result, err
		}
		result.merge(libResult)
		library = libResult.Library
	}
	result.Library = library

	sources, err := b.TestSources()
	if err != nil {
		return result, err
	}

	testObjDir := b.Layout.TestObjDir(b.Profile.Name)
	testObjects, recompiled, err := b.compileGroup(ctx, sources, testObjDir, &result.Timings)
	if err != nil {
		return result, err
	}
	result.Recompiled += recompiled

	for i, obj := range testObjects {
		exe, err := b.linkTest(ctx, obj, library, b.display(sources[i]), &result.Timings)
		if err != nil {
			b.printf("Error building test %s: %v\n", Stem(obj), err)
			result.FailedTestLinks = append(result.FailedTestLinks, TestLinkFailure{Stem: Stem(obj), Err: err})
			continue
		}
		result.TestBinaries = append(result.TestBinaries, exe)
	}
	b.printf("Tests built: %d ok, %d failed\n", len(result.TestBinaries), len(result.FailedTestLinks))

	b.writeRecord(result, time.Since(start))
	return result, nil
}

// BuildAll runs the full sequence for one profile: library, executable,
// tests. Any fatal stage error aborts the remainder of the sequence.
func (b Builder) BuildAll(ctx context.Context) (Result, error) {
	result := Result{Action: "all"}
	start := time.Now()
	b.printf("=== Building %s (%s) ===\n", b.Project.Name, b.Profile.Name)

	if err := workspace.Setup(b.Layout, b.Profile.Name); err != nil {
		return result, err
	}
	libResult, err := b.BuildLibrary(ctx)
	result.merge(libResult)
	if err != nil {
		return result, err
	}
	exeResult, err := b.BuildExecutable(ctx)
	result.merge(exeResult)
	if err != nil {
		return result, err
	}
	testsResult, err := b.BuildTests(ctx)
	result.merge(testsResult)
	if err != nil {
		return result, err
	}

	b.printf("\n=== Build Complete ===\n")
	b.printf("Executable: %s\n", b.display(b.Layout.AliasPath()))
	b.printf("Library: %s\n", b.display(b.Layout.LibraryPath(b.Profile.Name)))

	b.writeRecord(result, time.Since(start))
	return result, nil
}
