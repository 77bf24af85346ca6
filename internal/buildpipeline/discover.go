package buildpipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SourceExt is the file extension of compilable sources.
const SourceExt = ".c"

// DiscoverSources recursively enumerates files under root carrying the
// source extension, skipping any directory whose base name appears in
// skipDirs. A missing root yields an empty set, not an error. Results are
// sorted lexicographically so later compile/link order is reproducible
// regardless of traversal order.
func DiscoverSources(root string, skipDirs ...string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat source root %q: %w", root, err)
	}
	skip := make(map[string]struct{}, len(skipDirs))
	for _, dir := range skipDirs {
		skip[dir] = struct{}{}
	}
	var sources []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skipped := skip[d.Name()]; skipped && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), SourceExt) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %q: %w", root, err)
	}
	sort.Strings(sources)
	return sources, nil
}

// Stem returns the object-name stem of a source path (base name without
// extension).
func Stem(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// checkStemCollisions rejects a source set in which two files would derive
// the same object name.
func checkStemCollisions(sources []string) error {
	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		stem := Stem(src)
		if first, ok := seen[stem]; ok {
			return &StemCollisionError{Stem: stem, First: first, Second: src}
		}
		seen[stem] = src
	}
	return nil
}
