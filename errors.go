package hsext

import (
	"errors"
	"fmt"
	"strings"
)

// Stage identifies the pipeline step an error came from.
type Stage string

const (
	StageResolve  Stage = "resolve"  // locating cabal / ghc-pkg
	StageBuild    Stage = "build"    // cabal build + list-bin
	StageQuery    Stage = "query"    // ghc-pkg field
	StageBindings Stage = "bindings" // header to Go bindings
	StageLink     Stage = "link"     // directive emission
)

var (
	// ErrToolNotFound is matched by a ResolutionError.
	ErrToolNotFound = errors.New("executable not found in PATH")

	// ErrBuildFailed is matched by a BuildFailure.
	ErrBuildFailed = errors.New("build exited unsuccessfully")

	// ErrMissingLibrary is matched by a MissingLibraryError.
	ErrMissingLibrary = errors.New("required runtime library not found")

	// ErrAlreadyBuilt is returned by the Use* setters once Build has run.
	ErrAlreadyBuilt = errors.New("build configuration is frozen after build")

	// ErrInvalidEnvironment reports a missing package name or output directory.
	ErrInvalidEnvironment = errors.New("invalid build environment")
)

// Error is the error type returned by every exported operation of the
// package. Stage says which step failed, Tool names the external executable
// involved (empty when none was), and Err carries the typed cause.
//
// Callers usually only need errors.Is / errors.As:
//
//	var bf *hsext.BuildFailure
//	if errors.As(err, &bf) {
//	    fmt.Println(bf.Output)
//	}
type Error struct {
	Stage Stage
	Tool  string
	Err   error
}

func (e *Error) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("hsext: %s (%s): %v", e.Stage, e.Tool, e.Err)
	}
	return fmt.Sprintf("hsext: %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ResolutionError reports an executable that is not on the search path.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s not found in PATH", e.Name)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrToolNotFound
}

// InvocationError reports that a process could not be spawned or that its
// output could not be captured. A process that ran and exited non-zero is
// not an InvocationError.
type InvocationError struct {
	Command string
	Err     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoking %s: %v", e.Command, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// BuildFailure reports that cabal ran but exited with a non-zero status.
// It carries no underlying error.
type BuildFailure struct {
	ExitStatus int
	Output     []string
}

// Error formats the failure with the captured output:
//
//	cabal build failed with exit status 1
//
//	Build output:
//	src/Lib.hs:3:1: error: ...
func (e *BuildFailure) Error() string {
	prefix := fmt.Sprintf("cabal build failed with exit status %d", e.ExitStatus)
	output := strings.TrimSpace(strings.Join(e.Output, "\n"))
	if output == "" {
		return prefix
	}
	return fmt.Sprintf("%s\n\nBuild output:\n%s", prefix, output)
}

func (e *BuildFailure) Is(target error) bool {
	return target == ErrBuildFailed
}

// GeneratorError reports a failure of the binding generator itself.
type GeneratorError struct {
	Header string
	Err    error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("generating bindings for %s: %v", e.Header, e.Err)
}

func (e *GeneratorError) Unwrap() error {
	return e.Err
}

// DirectoryError reports that the runtime library directory could not be
// resolved or listed.
type DirectoryError struct {
	Dir string
	Op  string // "resolve" or "list"
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Dir, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// MissingLibraryError lists declared dependencies for which no file in Dir
// matched.
type MissingLibraryError struct {
	Dir     string
	Missing []Dependency
}

func (e *MissingLibraryError) Error() string {
	names := make([]string, len(e.Missing))
	for i, d := range e.Missing {
		names[i] = string(d)
	}
	return fmt.Sprintf("no shared library for %s in %s", strings.Join(names, ", "), e.Dir)
}

func (e *MissingLibraryError) Is(target error) bool {
	return target == ErrMissingLibrary
}
