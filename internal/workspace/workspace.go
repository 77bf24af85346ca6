// Package workspace creates and destroys the artifact directory tree.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"forge/internal/project"
)

// Setup idempotently creates the build/bin/lib roots plus the per-profile
// object directories.
func Setup(layout project.Layout, profileName string) error {
	dirs := []string{
		layout.BuildDir,
		layout.BinDir,
		layout.LibDir,
		layout.ObjDir(profileName),
		layout.TestObjDir(profileName),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create %q: %w", dir, err)
		}
	}
	return nil
}

// Clean removes the build/bin/lib roots, then sweeps the project root for
// stray object and archive files left behind by legacy invocations.
// Irreversible; any confirmation gating belongs to the CLI layer.
func Clean(projectRoot string, layout project.Layout) ([]string, error) {
	removed := make([]string, 0, 3)
	for _, dir := range []string{layout.BuildDir, layout.BinDir, layout.LibDir} {
		if _, err := os.Stat(dir); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to stat %q: %w", dir, err)
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("failed to remove %q: %w", dir, err)
		}
		removed = append(removed, dir)
	}

	err := filepath.WalkDir(projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".o") || strings.HasSuffix(path, ".a") {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove stray artifact %q: %w", path, err)
			}
			removed = append(removed, path)
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("artifact sweep failed: %w", err)
	}
	return removed, nil
}
