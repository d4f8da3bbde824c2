package hsext

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executable names searched on PATH.
const (
	ToolCabal  = "cabal"
	ToolGhcPkg = "ghc-pkg"
)

// ToolRequirement describes an external executable the build depends on.
//
// # Examples
//
// Required tool:
//
//	ToolRequirement{
//	    Name:    "cabal",
//	    Purpose: "builds the foreign library",
//	}
//
// Tool with an explicit location, which skips the PATH search:
//
//	ToolRequirement{
//	    Name: "ghc-pkg",
//	    Path: "/opt/ghc/9.4.7/bin/ghc-pkg-9.4.7",
//	}
type ToolRequirement struct {
	// Name is the executable looked up on PATH (e.g., "cabal").
	Name string

	// Path, when set, is used as is instead of searching PATH.
	Path string

	// Optional tools are reported but never cause CheckRequiredTools to fail.
	Optional bool

	// Purpose is a human-readable description used in error messages.
	Purpose string
}

// LocateTool resolves an executable name to an absolute path using the
// process search path.
//
// # Returns
//
// Returns the absolute path on success. If nothing named name is found the
// error is a *ResolutionError, which matches ErrToolNotFound:
//
//	if _, err := LocateTool("cabal"); errors.Is(err, ErrToolNotFound) {
//	    // install cabal-install or pass WithCabal
//	}
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func LocateTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", &ResolutionError{Name: name, Err: err}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ResolutionError{Name: name, Err: err}
	}
	return abs, nil
}

// CheckToolAvailable checks if a tool is available in the system PATH.
func CheckToolAvailable(tool string) error {
	_, err := LocateTool(tool)
	return err
}

// CheckRequiredTools verifies all required tools are available.
//
// # Behavior
//
//   - A requirement with Path set is checked at that path
//   - Otherwise Name is searched on PATH
//   - Optional tools are checked but don't cause errors
//   - All missing required tools are reported in a single error
//
// # Error Format
//
// Single missing tool:
//
//	cabal (builds the foreign library) not found in PATH
//
// Single tool missing at an explicit Path:
//
//	ghc-pkg (queries the GHC package database) not found at /opt/ghc/bin/ghc-pkg
//
// Multiple missing tools:
//
//	missing required tools: cabal (builds the foreign library), ghc-pkg (queries the GHC package database) at /opt/ghc/bin/ghc-pkg
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missingTools []ToolRequirement

	for _, req := range requirements {
		var err error
		if req.Path != "" {
			_, err = exec.LookPath(req.Path)
		} else {
			err = CheckToolAvailable(req.Name)
		}

		if err != nil && !req.Optional {
			missingTools = append(missingTools, req)
		}
	}

	if len(missingTools) == 0 {
		return nil
	}

	if len(missingTools) == 1 {
		req := missingTools[0]
		if req.Path != "" {
			return fmt.Errorf("%s not found at %s", describeTool(req), req.Path)
		}
		return fmt.Errorf("%s not found in PATH", describeTool(req))
	}

	names := make([]string, len(missingTools))
	for i, req := range missingTools {
		names[i] = describeTool(req)
		if req.Path != "" {
			names[i] += " at " + req.Path
		}
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(names, ", "))
}

func describeTool(req ToolRequirement) string {
	if req.Purpose != "" {
		return fmt.Sprintf("%s (%s)", req.Name, req.Purpose)
	}
	return req.Name
}

// RequiredTools returns the executables this build invokes, with the paths
// it resolved or was given.
func (b *Build) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: ToolCabal, Path: b.cabal, Purpose: "builds the foreign library"},
		{Name: ToolGhcPkg, Path: b.ghcPkg, Purpose: "queries the GHC package database"},
	}
}

// CheckTools verifies that cabal and ghc-pkg can be executed.
func (b *Build) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}
