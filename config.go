package hsext

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the project file read by LoadConfig when no path is given.
const DefaultConfigFile = "hsext.yaml"

// DefaultOutDir is the cabal build directory used when none is configured.
var DefaultOutDir = filepath.Join("dist-newstyle", "hsext")

// Output formats for the link directives.
const (
	FormatText = "text" // line protocol on stdout
	FormatCgo  = "cgo"  // #cgo LDFLAGS Go file
)

// Config is the hsext.yaml project file.
//
// # Example
//
//	package: mylib
//	out_dir: dist-newstyle/hsext
//	rts: threaded
//	dependencies: [ghc, base]
//	rpath: true
//	format: cgo
//	bindings: hs/bindings.go
//	go_package: hs
//	link_file: hs/link.go
//
// Package and OutDir fall back to HSEXT_PACKAGE and HSEXT_OUT_DIR; OutDir
// finally falls back to DefaultOutDir.
type Config struct {
	Package      string   `yaml:"package,omitempty"`
	OutDir       string   `yaml:"out_dir,omitempty"`
	Cabal        string   `yaml:"cabal,omitempty"`
	GhcPkg       string   `yaml:"ghc_pkg,omitempty"`
	RTS          string   `yaml:"rts,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	Rpath        bool     `yaml:"rpath"`
	Format       string   `yaml:"format,omitempty"`
	Bindings     string   `yaml:"bindings,omitempty"`
	GoPackage    string   `yaml:"go_package,omitempty"`
	LinkFile     string   `yaml:"link_file,omitempty"`
	TargetOS     string   `yaml:"target_os,omitempty"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	deps := DefaultDependencies()
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = string(d)
	}
	return &Config{
		RTS:          NonThreaded.String(),
		Dependencies: names,
		Rpath:        true,
		Format:       FormatText,
	}
}

// LoadConfig loads configuration from file. A missing file yields
// DefaultConfig; fields absent from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigFile
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Environment returns the build environment, taking Package and OutDir from
// the file and falling back to the environment.
func (c *Config) Environment() (Environment, error) {
	env := Environment{PackageName: c.Package, OutDir: c.OutDir}
	if env.PackageName == "" {
		env.PackageName = os.Getenv(EnvPackage)
	}
	if env.OutDir == "" {
		env.OutDir = os.Getenv(EnvOutDir)
	}
	if env.OutDir == "" {
		env.OutDir = DefaultOutDir
	}
	return env, env.validate()
}

// Options translates the tool, runtime and dependency fields into Build
// options.
func (c *Config) Options() ([]Option, error) {
	var opts []Option

	if c.Cabal != "" {
		opts = append(opts, WithCabal(c.Cabal))
	}
	if c.GhcPkg != "" {
		opts = append(opts, WithGhcPkg(c.GhcPkg))
	}

	rts, err := ParseRTSVersion(c.RTS)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithRTS(rts))

	if c.Dependencies != nil {
		deps := make([]Dependency, len(c.Dependencies))
		for i, name := range c.Dependencies {
			deps[i] = Dependency(name)
			if err := deps[i].validate(); err != nil {
				return nil, err
			}
		}
		opts = append(opts, WithDependencies(deps...))
	}

	if c.TargetOS != "" {
		opts = append(opts, WithTargetOS(c.TargetOS))
	}

	switch c.Format {
	case "", FormatText, FormatCgo:
	default:
		return nil, fmt.Errorf("unknown format %q (want %s or %s)", c.Format, FormatText, FormatCgo)
	}

	return opts, nil
}
