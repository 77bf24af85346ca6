package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the loaded forge.toml plus its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the forge.toml schema. Only [package].name is required;
// everything else falls back to conventional defaults.
type Config struct {
	Package   PackageConfig   `toml:"package"`
	Paths     PathsConfig     `toml:"paths"`
	Toolchain ToolchainConfig `toml:"toolchain"`
}

// PackageConfig names the project; artifact names derive from it.
type PackageConfig struct {
	Name string `toml:"name"`
}

// PathsConfig overrides the conventional source/test/include roots,
// relative to the project root.
type PathsConfig struct {
	Src     string `toml:"src"`
	Tests   string `toml:"tests"`
	Include string `toml:"include"`
}

// ToolchainConfig overrides the platform-default compiler and archiver.
type ToolchainConfig struct {
	CC string `toml:"cc"`
	AR string `toml:"ar"`
}

// LoadManifest finds and parses forge.toml starting from startDir.
// ok is false when no manifest exists anywhere up the tree.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindForgeToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	return cfg, nil
}

// Resolve builds the immutable project description for a working directory:
// manifest values where present, conventional defaults otherwise. Stage
// functions receive this value explicitly and never mutate it.
func Resolve(startDir string) (Project, error) {
	manifest, ok, err := LoadManifest(startDir)
	if err != nil {
		return Project{}, err
	}
	if ok {
		return fromManifest(manifest), nil
	}
	root, err := filepath.Abs(startDir)
	if err != nil {
		return Project{}, fmt.Errorf("failed to resolve project root: %w", err)
	}
	return withDefaults(Project{
		Name: filepath.Base(root),
		Root: root,
	}), nil
}

func fromManifest(m *Manifest) Project {
	p := Project{
		Name: m.Config.Package.Name,
		Root: m.Root,
		CC:   m.Config.Toolchain.CC,
		AR:   m.Config.Toolchain.AR,
	}
	if m.Config.Paths.Src != "" {
		p.SrcRoot = filepath.Join(m.Root, filepath.FromSlash(m.Config.Paths.Src))
	}
	if m.Config.Paths.Tests != "" {
		p.TestRoot = filepath.Join(m.Root, filepath.FromSlash(m.Config.Paths.Tests))
	}
	if m.Config.Paths.Include != "" {
		p.IncludeRoot = filepath.Join(m.Root, filepath.FromSlash(m.Config.Paths.Include))
	}
	return withDefaults(p)
}

func withDefaults(p Project) Project {
	if p.SrcRoot == "" {
		p.SrcRoot = filepath.Join(p.Root, "src")
	}
	if p.TestRoot == "" {
		p.TestRoot = filepath.Join(p.Root, "tests")
	}
	if p.IncludeRoot == "" {
		p.IncludeRoot = filepath.Join(p.Root, "include")
	}
	return p
}

// Project is the resolved, immutable description of the orchestrated
// native-code project.
type Project struct {
	Name        string
	Root        string
	SrcRoot     string
	TestRoot    string
	IncludeRoot string
	CC          string
	AR          string
}
