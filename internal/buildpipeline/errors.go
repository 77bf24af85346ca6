package buildpipeline

import "fmt"

// CompileError is a fatal compiler failure for one source file. The build
// action stops at the first one; Output carries the compiler's stderr
// verbatim.
type CompileError struct {
	Source string
	Output string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s: %s", e.Source, e.Output)
}

// ArchiveError is a fatal archiver failure.
type ArchiveError struct {
	Library string
	Output  string
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("failed to create %s: %s", e.Library, e.Output)
}

// LinkError is a linker failure. Fatal for the main executable; recorded
// and skipped for test executables.
type LinkError struct {
	Target string
	Output string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link %s: %s", e.Target, e.Output)
}

// StemCollisionError reports two discovered sources whose base names map to
// the same object path. Failing fast here keeps a later compile from
// silently overwriting the earlier object.
type StemCollisionError struct {
	Stem   string
	First  string
	Second string
}

func (e *StemCollisionError) Error() string {
	return fmt.Sprintf("object name collision: %s and %s both produce %s.o", e.First, e.Second, e.Stem)
}
