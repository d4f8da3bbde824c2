package hsext

import (
	"fmt"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
)

// Build holds the configuration for one build-script invocation: where
// cabal and ghc-pkg live, which RTS flavour to link, and which Haskell
// packages the library needs at run time.
//
// # Lifecycle
//
//  1. NewBuild - resolve tools and apply options
//  2. UseCabal / UseGhcPkg / UseRTS - optional overrides
//  3. Build - run cabal and return the Library
//
// Once Build has returned a Library the configuration is frozen and the
// setters return ErrAlreadyBuilt. A Build is meant for a single goroutine.
type Build struct {
	env    Environment
	cabal  string
	ghcPkg string
	rts    RTSVersion
	deps   []Dependency
	goos   string
	runner Runner
	log    *zap.Logger
	built  bool
}

// Option customises a Build at construction.
type Option func(*Build)

// WithCabal uses the given cabal executable instead of searching PATH.
func WithCabal(path string) Option {
	return func(b *Build) { b.cabal = path }
}

// WithGhcPkg uses the given ghc-pkg executable instead of searching PATH.
func WithGhcPkg(path string) Option {
	return func(b *Build) { b.ghcPkg = path }
}

// WithRTS selects the runtime flavour. The default is NonThreaded.
func WithRTS(v RTSVersion) Option {
	return func(b *Build) { b.rts = v }
}

// WithDependencies replaces the default {ghc, base} dependency list.
func WithDependencies(deps ...Dependency) Option {
	return func(b *Build) { b.deps = append([]Dependency(nil), deps...) }
}

// WithRunner replaces the process runner, mostly for tests.
func WithRunner(r Runner) Option {
	return func(b *Build) { b.runner = r }
}

// WithLogger sets the logger used by this build.
func WithLogger(l *zap.Logger) Option {
	return func(b *Build) { b.log = l }
}

// WithTargetOS picks the shared-library extension for a GOOS other than
// the running one.
func WithTargetOS(goos string) Option {
	return func(b *Build) { b.goos = goos }
}

// NewBuild validates env, applies opts and resolves whichever of cabal and
// ghc-pkg was not given explicitly.
func NewBuild(env Environment, opts ...Option) (*Build, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	outDir, err := filepath.Abs(env.OutDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvironment, err)
	}
	env.OutDir = outDir

	b := &Build{
		env:  env,
		rts:  NonThreaded,
		deps: DefaultDependencies(),
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.log == nil {
		b.log = Logger()
	}
	if b.runner == nil {
		b.runner = NewShellRunner()
	}
	if !b.rts.valid() {
		return nil, fmt.Errorf("unknown RTS version %d", int(b.rts))
	}
	for _, d := range b.deps {
		if err := d.validate(); err != nil {
			return nil, err
		}
	}

	if b.cabal == "" {
		if b.cabal, err = LocateTool(ToolCabal); err != nil {
			return nil, &Error{Stage: StageResolve, Tool: ToolCabal, Err: err}
		}
	}
	if b.ghcPkg == "" {
		if b.ghcPkg, err = LocateTool(ToolGhcPkg); err != nil {
			return nil, &Error{Stage: StageResolve, Tool: ToolGhcPkg, Err: err}
		}
	}

	b.log.Debug("resolved tools",
		zap.String("cabal", b.cabal),
		zap.String("ghc-pkg", b.ghcPkg),
		zap.Stringer("rts", b.rts))

	return b, nil
}

// UseCabal overrides the cabal executable.
func (b *Build) UseCabal(path string) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	b.cabal = path
	return nil
}

// UseGhcPkg overrides the ghc-pkg executable.
func (b *Build) UseGhcPkg(path string) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	b.ghcPkg = path
	return nil
}

// UseRTS overrides the runtime flavour.
func (b *Build) UseRTS(v RTSVersion) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	if !v.valid() {
		return fmt.Errorf("unknown RTS version %d", int(v))
	}
	b.rts = v
	return nil
}

// Environment returns the package name and output directory of this build.
func (b *Build) Environment() Environment { return b.env }

// RTS returns the selected runtime flavour.
func (b *Build) RTS() RTSVersion { return b.rts }

// Build runs "cabal build" into the output directory and then
// "cabal list-bin" to find the produced library.
//
// A cabal that exits non-zero yields a *BuildFailure; a cabal that cannot be
// started, or whose list-bin output cannot be read, yields an
// *InvocationError. Both come wrapped in an *Error with Stage StageBuild.
func (b *Build) Build() (*Library, error) {
	args := b.cabalArgs("build")
	b.log.Debug("running cabal", zap.Strings("args", args))

	res, err := b.runner.Run(b.cabal, args...)
	if err != nil {
		return nil, &Error{Stage: StageBuild, Tool: ToolCabal, Err: err}
	}
	if !res.Success() {
		return nil, &Error{Stage: StageBuild, Tool: ToolCabal, Err: &BuildFailure{
			ExitStatus: res.ExitStatus,
			Output:     outputLines(res),
		}}
	}

	args = append(b.cabalArgs("list-bin"), b.env.PackageName)
	res, err = b.runner.Run(b.cabal, args...)
	if err != nil {
		return nil, &Error{Stage: StageBuild, Tool: ToolCabal, Err: err}
	}
	path := res.Trimmed()
	if !res.Success() || path == "" {
		// list-bin printed nothing usable; treat it like an unreadable result.
		return nil, &Error{Stage: StageBuild, Tool: ToolCabal, Err: &InvocationError{
			Command: commandLine(b.cabal, args),
			Err:     fmt.Errorf("exit status %d, no artifact path on stdout", res.ExitStatus),
		}}
	}

	b.built = true
	b.log.Info("built foreign library", zap.String("path", path))

	return &Library{
		build: b,
		Path:  path,
		deps:  append([]Dependency(nil), b.deps...),
	}, nil
}

func (b *Build) cabalArgs(cmd string) []string {
	return []string{cmd, "--builddir", b.env.OutDir}
}
