package hsext

import "go.uber.org/zap"

// ghc-pkg fields read from the rts package.
const (
	FieldIncludeDirs        = "include-dirs"
	FieldDynamicLibraryDirs = "dynamic-library-dirs"

	rtsPackage = "rts"
)

// Field runs "ghc-pkg field <section> <field> --simple-output" and returns
// its trimmed output.
//
// The output is returned as is even when ghc-pkg exits non-zero; a warning
// is logged. Failing to run ghc-pkg at all yields an *InvocationError inside
// an *Error with Stage StageQuery.
func (b *Build) Field(section, field string) (string, error) {
	args := []string{"field", section, field, "--simple-output"}
	b.log.Debug("running ghc-pkg", zap.Strings("args", args))

	res, err := b.runner.Run(b.ghcPkg, args...)
	if err != nil {
		return "", &Error{Stage: StageQuery, Tool: ToolGhcPkg, Err: err}
	}
	if !res.Success() {
		b.log.Warn("ghc-pkg exited non-zero",
			zap.Strings("args", args),
			zap.Int("status", res.ExitStatus),
			zap.String("stderr", res.Stderr))
	}
	return res.Trimmed(), nil
}

// IncludeDir returns the directory holding the RTS headers (HsFFI.h).
func (b *Build) IncludeDir() (string, error) {
	return b.Field(rtsPackage, FieldIncludeDirs)
}

// DynamicLibraryDir returns the directory holding the RTS and boot
// package shared libraries.
func (b *Build) DynamicLibraryDir() (string, error) {
	return b.Field(rtsPackage, FieldDynamicLibraryDirs)
}
