package hsext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RTSVersion selects one of the GHC runtime system flavours.
//
// Each flavour ships as a differently named shared library:
//
//	NonThreaded       libHSrts-1.0.2-ghc9.4.7.so
//	NonThreadedL      libHSrts-1.0.2_l-ghc9.4.7.so
//	NonThreadedDebug  libHSrts-1.0.2_debug-ghc9.4.7.so
//	Threaded          libHSrts-1.0.2_thr-ghc9.4.7.so
//	ThreadedL         libHSrts-1.0.2_thr_l-ghc9.4.7.so
//	ThreadedDebug     libHSrts-1.0.2_thr_debug-ghc9.4.7.so
//
// The zero value is NonThreaded, the default.
type RTSVersion int

const (
	NonThreaded RTSVersion = iota
	NonThreadedL
	NonThreadedDebug
	Threaded
	ThreadedL
	ThreadedDebug
)

var rtsNames = [...]string{
	NonThreaded:      "non-threaded",
	NonThreadedL:     "non-threaded-l",
	NonThreadedDebug: "non-threaded-debug",
	Threaded:         "threaded",
	ThreadedL:        "threaded-l",
	ThreadedDebug:    "threaded-debug",
}

var rtsSuffixes = [...]string{
	NonThreaded:      "",
	NonThreadedL:     "_l",
	NonThreadedDebug: "_debug",
	Threaded:         "_thr",
	ThreadedL:        "_thr_l",
	ThreadedDebug:    "_thr_debug",
}

// Suffix returns the filename token placed between the RTS version and the
// "-ghc" marker. NonThreaded has the empty suffix.
func (v RTSVersion) Suffix() string {
	if !v.valid() {
		return ""
	}
	return rtsSuffixes[v]
}

func (v RTSVersion) String() string {
	if !v.valid() {
		return fmt.Sprintf("RTSVersion(%d)", int(v))
	}
	return rtsNames[v]
}

func (v RTSVersion) valid() bool {
	return v >= NonThreaded && v <= ThreadedDebug
}

// RTSVersions returns every flavour in declaration order.
func RTSVersions() []RTSVersion {
	return []RTSVersion{NonThreaded, NonThreadedL, NonThreadedDebug, Threaded, ThreadedL, ThreadedDebug}
}

// ParseRTSVersion accepts the names printed by String. The empty string
// selects the default.
func ParseRTSVersion(name string) (RTSVersion, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return NonThreaded, nil
	}
	for _, v := range RTSVersions() {
		if rtsNames[v] == name {
			return v, nil
		}
	}
	return NonThreaded, fmt.Errorf("unknown RTS version %q (want one of %s)", name, strings.Join(rtsNames[:], ", "))
}

// Dependency is a Haskell package whose shared library must be linked
// alongside the RTS. The value is the package name as ghc-pkg knows it.
type Dependency string

const (
	DepGHC  Dependency = "ghc"
	DepBase Dependency = "base"

	// DepRTS is the runtime system. It is always linked and uses its own
	// filename grammar, so it is never part of a dependency list.
	DepRTS Dependency = "rts"
)

// DefaultDependencies is the fixed set linked when no other list is declared.
func DefaultDependencies() []Dependency {
	return []Dependency{DepGHC, DepBase}
}

// Prefix returns the filename stem prefix, e.g. "HSbase".
func (d Dependency) Prefix() string {
	return "HS" + string(d)
}

func (d Dependency) validate() error {
	if d == "" {
		return fmt.Errorf("empty dependency name")
	}
	if d == DepRTS {
		return fmt.Errorf("%s is linked implicitly and cannot be declared", DepRTS)
	}
	for _, r := range d {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return fmt.Errorf("invalid dependency name %q", string(d))
		}
	}
	return nil
}

// Environment carries the values the host build hands to a build script:
// the cabal foreign-library name and the directory cabal may build into.
// It is read once and passed explicitly.
type Environment struct {
	PackageName string
	OutDir      string
}

// Environment variables read by EnvironmentFromOS.
const (
	EnvPackage = "HSEXT_PACKAGE"
	EnvOutDir  = "HSEXT_OUT_DIR"
)

// EnvironmentFromOS reads HSEXT_PACKAGE and HSEXT_OUT_DIR.
func EnvironmentFromOS() (Environment, error) {
	env := Environment{
		PackageName: os.Getenv(EnvPackage),
		OutDir:      os.Getenv(EnvOutDir),
	}
	return env, env.validate()
}

func (e Environment) validate() error {
	if e.PackageName == "" {
		return fmt.Errorf("%w: package name is required", ErrInvalidEnvironment)
	}
	if e.OutDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidEnvironment)
	}
	return nil
}

// Library is a foreign library produced by (*Build).Build. It refers back
// to the Build that produced it and is only meaningful while that Build is.
type Library struct {
	build *Build

	// Path is the dynamic library reported by "cabal list-bin".
	Path string

	deps []Dependency
}

// Dir returns the directory holding the built library.
func (l *Library) Dir() string {
	return filepath.Dir(l.Path)
}

// Dependencies returns the Haskell packages linked with the library, not
// counting the RTS.
func (l *Library) Dependencies() []Dependency {
	return append([]Dependency(nil), l.deps...)
}

// StubHeader returns the header GHC writes next to the library,
// <dir>/<package>-tmp/Lib_stub.h.
func (l *Library) StubHeader() string {
	return filepath.Join(l.Dir(), l.build.env.PackageName+"-tmp", "Lib_stub.h")
}
