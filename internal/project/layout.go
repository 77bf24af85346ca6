package project

import "path/filepath"

// Layout maps a project to its artifact directory tree:
//
//	build/<profile>/obj       library-group objects
//	build/<profile>/test_obj  test objects
//	lib/lib<name>_<profile>.a static library
//	bin/<name>_<profile>      main executable
//	bin/<name>                alias to the most recently linked executable
//	bin/<test-stem>_<profile> test executables
type Layout struct {
	BuildDir string
	BinDir   string
	LibDir   string

	project string
}

// NewLayout derives the artifact layout for a project.
func NewLayout(p Project) Layout {
	return Layout{
		BuildDir: filepath.Join(p.Root, "build"),
		BinDir:   filepath.Join(p.Root, "bin"),
		LibDir:   filepath.Join(p.Root, "lib"),
		project:  p.Name,
	}
}

// ObjDir returns the library-group object directory for a profile.
func (l Layout) ObjDir(profile string) string {
	return filepath.Join(l.BuildDir, profile, "obj")
}

// TestObjDir returns the test object directory for a profile.
func (l Layout) TestObjDir(profile string) string {
	return filepath.Join(l.BuildDir, profile, "test_obj")
}

// LibraryPath returns the static library path for a profile.
func (l Layout) LibraryPath(profile string) string {
	return filepath.Join(l.LibDir, "lib"+l.project+"_"+profile+".a")
}

// ExecutablePath returns the profile-named main executable path.
func (l Layout) ExecutablePath(profile string) string {
	return filepath.Join(l.BinDir, l.project+"_"+profile)
}

// AliasPath returns the profile-independent executable alias path.
func (l Layout) AliasPath() string {
	return filepath.Join(l.BinDir, l.project)
}

// TestExecutablePath returns the path for one test executable.
func (l Layout) TestExecutablePath(stem, profile string) string {
	return filepath.Join(l.BinDir, stem+"_"+profile)
}

// RecordPath returns the per-profile build record location.
func (l Layout) RecordPath(profile string) string {
	return filepath.Join(l.BuildDir, profile, "record.bin")
}
