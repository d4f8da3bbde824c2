package hsext

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// BindingRequest is the input handed to a Generator.
type BindingRequest struct {
	// Header is the stub header to translate.
	Header string

	// SystemIncludes are added as -isystem directories when parsing Header.
	SystemIncludes []string
}

// Generator turns a C header into Go bindings.
type Generator interface {
	Generate(req BindingRequest) (*Bindings, error)
}

// Bindings is generated Go source. The package does not write it anywhere;
// callers use WriteTo or WriteFile.
type Bindings struct {
	Source []byte
}

// WriteTo implements io.WriterTo.
func (b *Bindings) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Source)
	return int64(n), err
}

// WriteFile writes the bindings to path, creating parent directories.
func (b *Bindings) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b.Source, 0o644)
}

// Bindings generates Go bindings for the library's stub header.
//
// The RTS include directory comes from ghc-pkg and is passed as a system
// include so HsFFI.h resolves. A ghc-pkg failure is reported as Stage
// StageBindings with the ghc-pkg InvocationError; a generator failure as
// Stage StageBindings with a *GeneratorError.
func (l *Library) Bindings(gen Generator) (*Bindings, error) {
	b := l.build

	include, err := b.IncludeDir()
	if err != nil {
		var cause error = err
		if e, ok := err.(*Error); ok {
			cause = e.Err
		}
		return nil, &Error{Stage: StageBindings, Tool: ToolGhcPkg, Err: cause}
	}

	req := BindingRequest{
		Header:         l.StubHeader(),
		SystemIncludes: []string{include},
	}
	b.log.Debug("generating bindings",
		zap.String("header", req.Header),
		zap.Strings("includes", req.SystemIncludes))

	bindings, err := gen.Generate(req)
	if err != nil {
		if _, ok := err.(*GeneratorError); !ok {
			err = &GeneratorError{Header: req.Header, Err: err}
		}
		return nil, &Error{Stage: StageBindings, Err: err}
	}
	return bindings, nil
}
