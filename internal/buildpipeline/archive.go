package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"forge/internal/toolchain"
)

// archive aggregates the library-group objects into the profile's static
// library. An existing archive is always deleted first: there is no
// per-member incrementality at this layer, even though the members
// themselves may have been skip-compiled.
func (b Builder) archive(ctx context.Context, objects []string, timings *Timings) (string, error) {
	libPath := b.Layout.LibraryPath(b.Profile.Name)

	start := time.Now()
	emit(b.Progress, "", StageArchive, StatusWorking, nil, 0)

	if err := os.Remove(libPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove stale library %q: %w", libPath, err)
	}

	args := make([]string, 0, len(objects)+2)
	args = append(args, "rcs", libPath)
	args = append(args, objects...)

	b.printf("Creating library: %s\n", filepath.Base(libPath))
	if err := toolchain.Run(ctx, b.Tools.AR, args...); err != nil {
		archiveErr := &ArchiveError{Library: b.display(libPath), Output: err.Error()}
		emit(b.Progress, "", StageArchive, StatusError, archiveErr, time.Since(start))
		return "", archiveErr
	}
	elapsed := time.Since(start)
	timings.Add(StageArchive, elapsed)
	emit(b.Progress, "", StageArchive, StatusDone, nil, elapsed)
	return libPath, nil
}
