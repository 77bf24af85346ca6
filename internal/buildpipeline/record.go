package buildpipeline

import (
	"fmt"
	"os"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when BuildRecord format changes.
const recordSchemaVersion uint16 = 1

// BuildRecord is per-profile bookkeeping written after a successful build
// action. It never feeds staleness decisions (those use mtimes only) and
// the test runner never reads it; it exists for `forge status` and
// operator diagnostics.
type BuildRecord struct {
	Schema uint16

	Project string
	Profile string
	Action  string

	ObjectCount     uint32
	RecompiledCount uint32
	Library         string
	Executable      string
	TestBinaries    []string
	FailedTestLinks []string

	CreatedAt  time.Time
	WallMillis int64
}

func (b Builder) writeRecord(result Result, wall time.Duration) {
	objectCount, err := safecast.Conv[uint32](len(result.Objects))
	if err != nil {
		return
	}
	recompiledCount, err := safecast.Conv[uint32](result.Recompiled)
	if err != nil {
		return
	}
	failed := make([]string, 0, len(result.FailedTestLinks))
	for _, f := range result.FailedTestLinks {
		failed = append(failed, f.Stem)
	}
	record := BuildRecord{
		Schema:          recordSchemaVersion,
		Project:         b.Project.Name,
		Profile:         b.Profile.Name,
		Action:          result.Action,
		ObjectCount:     objectCount,
		RecompiledCount: recompiledCount,
		Library:         result.Library,
		Executable:      result.Executable,
		TestBinaries:    result.TestBinaries,
		FailedTestLinks: failed,
		CreatedAt:       time.Now(),
		WallMillis:      wall.Milliseconds(),
	}
	data, err := msgpack.Marshal(&record)
	if err != nil {
		return
	}
	// Best effort: a failed record write must not fail the build.
	_ = os.WriteFile(b.Layout.RecordPath(b.Profile.Name), data, 0o600)
}

// LoadRecord reads the last build record for a profile. ok is false when no
// record exists or its schema is from a different version.
func LoadRecord(path string) (BuildRecord, bool, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the project layout
	if err != nil {
		if os.IsNotExist(err) {
			return BuildRecord{}, false, nil
		}
		return BuildRecord{}, false, fmt.Errorf("failed to read build record %q: %w", path, err)
	}
	var record BuildRecord
	if err := msgpack.Unmarshal(data, &record); err != nil {
		return BuildRecord{}, false, fmt.Errorf("failed to decode build record %q: %w", path, err)
	}
	if record.Schema != recordSchemaVersion {
		return BuildRecord{}, false, nil
	}
	return record, true, nil
}
