package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"forge/internal/toolchain"
)

// compileFile produces the object for one source under the current profile.
// The object is fresh iff it exists and its mtime is strictly newer than
// the source's; a fresh object is returned untouched with no process
// spawned. rebuilt reports whether the compiler actually ran.
func (b Builder) compileFile(ctx context.Context, source, objDir string) (obj string, rebuilt bool, err error) {
	obj = filepath.Join(objDir, Stem(source)+".o")

	srcInfo, err := os.Stat(source)
	if err != nil {
		return "", false, fmt.Errorf("failed to stat source %q: %w", source, err)
	}
	if objInfo, statErr := os.Stat(obj); statErr == nil {
		if objInfo.ModTime().After(srcInfo.ModTime()) {
			return obj, false, nil
		}
	}

	args := make([]string, 0, len(b.Profile.CFlags)+6)
	args = append(args, b.Profile.CFlags...)
	args = append(args,
		"-I"+b.Project.IncludeRoot,
		"-I"+filepath.Dir(source),
		"-c", source,
		"-o", obj,
	)
	if err := toolchain.Run(ctx, b.Tools.CC, args...); err != nil {
		return "", false, &CompileError{Source: b.display(source), Output: err.Error()}
	}
	return obj, true, nil
}

// compileGroup compiles every source into objDir, stopping at the first
// failure. Compile failures are fatal for the whole build action; no
// further sources are attempted.
func (b Builder) compileGroup(ctx context.Context, sources []string, objDir string, timings *Timings) (objects []string, recompiled int, err error) {
	if err := checkStemCollisions(sources); err != nil {
		return nil, 0, err
	}
	for _, src := range sources {
		emit(b.Progress, b.display(src), StageCompile, StatusQueued, nil, 0)
	}
	objects = make([]string, 0, len(sources))
	for _, src := range sources {
		name := b.display(src)
		start := time.Now()
		emit(b.Progress, name, StageCompile, StatusWorking, nil, 0)
		obj, rebuilt, err := b.compileFile(ctx, src, objDir)
		elapsed := time.Since(start)
		timings.Add(StageCompile, elapsed)
		if err != nil {
			emit(b.Progress, name, StageCompile, StatusError, err, elapsed)
			return nil, recompiled, err
		}
		if rebuilt {
			b.printf("Compiling: %s\n", filepath.Base(src))
			recompiled++
			emit(b.Progress, name, StageCompile, StatusDone, nil, elapsed)
		} else {
			emit(b.Progress, name, StageCompile, StatusSkipped, nil, elapsed)
		}
		objects = append(objects, obj)
	}
	return objects, recompiled, nil
}
