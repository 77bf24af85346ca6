package buildpipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"forge/internal/toolchain"
)

// linkExecutable links every library-group object into the profile-named
// main executable, marks it executable, and republishes the
// profile-independent alias. Nonzero linker exit is fatal.
func (b Builder) linkExecutable(ctx context.Context, objects []string, timings *Timings) (exePath, aliasPath string, err error) {
	exePath = b.Layout.ExecutablePath(b.Profile.Name)

	start := time.Now()
	emit(b.Progress, "", StageLink, StatusWorking, nil, 0)

	args := make([]string, 0, len(objects)+len(b.Profile.LDFlags)+2)
	args = append(args, objects...)
	args = append(args, b.Profile.LDFlags...)
	args = append(args, "-o", exePath)

	b.printf("Linking executable: %s\n", filepath.Base(exePath))
	if err := toolchain.Run(ctx, b.Tools.CC, args...); err != nil {
		linkErr := &LinkError{Target: b.display(exePath), Output: err.Error()}
		emit(b.Progress, "", StageLink, StatusError, linkErr, time.Since(start))
		return "", "", linkErr
	}
	// #nosec G302 -- build outputs must be executable by the invoking user
	if err := os.Chmod(exePath, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to mark %q executable: %w", exePath, err)
	}

	aliasPath = b.Layout.AliasPath()
	if err := publishAlias(exePath, aliasPath); err != nil {
		return "", "", err
	}

	elapsed := time.Since(start)
	timings.Add(StageLink, elapsed)
	emit(b.Progress, "", StageLink, StatusDone, nil, elapsed)
	return exePath, aliasPath, nil
}

// publishAlias points the stable, unversioned alias at the most recently
// linked executable: remove-if-exists, then create. Platforms without
// symlink support get a plain copy instead.
func publishAlias(target, alias string) error {
	if _, err := os.Lstat(alias); err == nil {
		if err := os.Remove(alias); err != nil {
			return fmt.Errorf("failed to remove alias %q: %w", alias, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat alias %q: %w", alias, err)
	}
	if err := os.Symlink(target, alias); err == nil {
		return nil
	}
	return copyExecutable(target, alias)
}

func copyExecutable(src, dst string) error {
	// #nosec G304 -- both paths are derived from the project layout
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", src, err)
	}
	defer func() { _ = in.Close() }()
	// #nosec G302 G304 -- alias must stay executable
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy alias %q: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finish alias %q: %w", dst, err)
	}
	return nil
}

// linkTest links one test object against the profile library into its own
// executable. Unlike the main link, a nonzero exit here is non-fatal: the
// caller records the failure and moves on to the next test source.
// Progress events carry the display path of the test source, matching the
// key the compile stage used for the same file.
func (b Builder) linkTest(ctx context.Context, testObject, library, displayFile string, timings *Timings) (string, error) {
	stem := Stem(testObject)
	exePath := b.Layout.TestExecutablePath(stem, b.Profile.Name)

	start := time.Now()
	emit(b.Progress, displayFile, StageTestLink, StatusWorking, nil, 0)

	args := make([]string, 0, len(b.Profile.LDFlags)+4)
	args = append(args, testObject, library)
	args = append(args, b.Profile.LDFlags...)
	args = append(args, "-o", exePath)

	b.printf("Building test: %s\n", filepath.Base(exePath))
	if err := toolchain.Run(ctx, b.Tools.CC, args...); err != nil {
		linkErr := &LinkError{Target: b.display(exePath), Output: err.Error()}
		emit(b.Progress, displayFile, StageTestLink, StatusError, linkErr, time.Since(start))
		return "", linkErr
	}
	// #nosec G302 -- test binaries must be executable by the invoking user
	if err := os.Chmod(exePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to mark %q executable: %w", exePath, err)
	}
	elapsed := time.Since(start)
	timings.Add(StageTestLink, elapsed)
	emit(b.Progress, displayFile, StageTestLink, StatusDone, nil, elapsed)
	return exePath, nil
}
