package hsext

import "go.uber.org/zap"

// RunOptions controls (*Build).Run.
type RunOptions struct {
	// Emitter receives every link directive. Required.
	Emitter Emitter

	// Rpath adds run-path entries for the artifact and library directories.
	Rpath bool

	// Generator, when set, generates bindings for the stub header.
	Generator Generator

	// BindingsFile is where generated bindings are written. Ignored
	// without a Generator.
	BindingsFile string
}

// Run performs a whole build-script pass.
//
// # Process Flow
//
//  1. Build the foreign library with cabal
//  2. Generate bindings and write them to BindingsFile (when a Generator is set)
//  3. Emit the directives for the library itself
//  4. Emit the directives for the GHC runtime and boot packages
//
// Run stops at the first error. Typical magefile usage:
//
//	func Haskell() error {
//	    env, err := hsext.EnvironmentFromOS()
//	    if err != nil {
//	        return err
//	    }
//	    b, err := hsext.NewBuild(env, hsext.WithRTS(hsext.Threaded))
//	    if err != nil {
//	        return err
//	    }
//	    _, err = b.Run(hsext.RunOptions{
//	        Emitter:      &hsext.TextEmitter{W: os.Stdout},
//	        Rpath:        true,
//	        Generator:    &hsext.CgoGenerator{Package: "hs"},
//	        BindingsFile: "hs/bindings.go",
//	    })
//	    return err
//	}
func (b *Build) Run(opts RunOptions) (*Library, error) {
	if opts.Emitter == nil {
		opts.Emitter = &DirectiveList{}
	}

	lib, err := b.Build()
	if err != nil {
		return nil, err
	}

	if opts.Generator != nil {
		bindings, err := lib.Bindings(opts.Generator)
		if err != nil {
			return lib, err
		}
		if opts.BindingsFile != "" {
			if err := bindings.WriteFile(opts.BindingsFile); err != nil {
				return lib, &Error{Stage: StageBindings, Err: err}
			}
			b.log.Info("wrote bindings", zap.String("file", opts.BindingsFile))
		}
	}

	if err := lib.Link(opts.Emitter, opts.Rpath); err != nil {
		return lib, err
	}
	if err := lib.LinkSystem(opts.Emitter, opts.Rpath); err != nil {
		return lib, err
	}
	return lib, nil
}
