// Package hsext builds Haskell foreign libraries for Go programs.
//
// It is meant to run as a build step (a magefile target or the hsext
// command) before go build. It drives cabal to produce a shared library
// from a cabal foreign-library package, finds the GHC runtime and boot
// package libraries the result needs, and tells the host build how to link
// all of them.
//
// # Pipeline
//
// A build-script pass has four steps:
//   - Build - "cabal build --builddir <out>" then "cabal list-bin" for the artifact
//   - Bindings - translate <dir>/<pkg>-tmp/Lib_stub.h into Go
//   - Link - search-path and link-dylib for the artifact itself
//   - LinkSystem - the RTS and the declared Haskell packages from ghc-pkg's
//     dynamic-library-dirs
//
// (*Build).Run runs them in order.
//
// # Basic Usage
//
//	env, err := hsext.EnvironmentFromOS() // HSEXT_PACKAGE, HSEXT_OUT_DIR
//	if err != nil {
//	    return err
//	}
//
//	b, err := hsext.NewBuild(env, hsext.WithRTS(hsext.Threaded))
//	if err != nil {
//	    return err
//	}
//
//	lib, err := b.Build()
//	if err != nil {
//	    return err
//	}
//
//	var flags hsext.FlagEmitter
//	if err := lib.Link(&flags, true); err != nil {
//	    return err
//	}
//	if err := lib.LinkSystem(&flags, true); err != nil {
//	    return err
//	}
//	fmt.Println(flags.LDFLAGS())
//
// # Link Directives
//
// Directives are handed to an Emitter. TextEmitter writes the line
// protocol
//
//	search-path <dir>
//	link-dylib <name>
//	runpath <dir>
//
// and FlagEmitter renders the same directives as cgo linker flags.
//
// # Runtime Libraries
//
// Only files named like
//
//	libHSbase-4.17.0-ghc9.4.7.so
//	libHSrts-1.0.2_thr-ghc9.4.7.so
//
// are linked. The RTS flavour is matched exactly; see RTSVersion and Matcher.
//
// # Errors
//
// Every operation returns an *Error naming the failing Stage. Use
// errors.Is with ErrToolNotFound, ErrBuildFailed or ErrMissingLibrary, or
// errors.As with the concrete cause types.
//
// # Requirements
//
// Requires Go 1.25 or later, cabal-install and a GHC whose ghc-pkg knows
// the rts package.
package hsext
