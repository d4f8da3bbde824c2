package hsext

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type recordingGenerator struct {
	req BindingRequest
	err error
}

func (g *recordingGenerator) Generate(req BindingRequest) (*Bindings, error) {
	g.req = req
	if g.err != nil {
		return nil, g.err
	}
	return &Bindings{Source: []byte("package hs\n")}, nil
}

func TestLibraryBindingsRequest(t *testing.T) {
	r := &fakeRunner{listBin: "/out/build/mylib/libmylib.so", includeDir: "/ghc/rts/include"}
	lib, err := newTestBuild(t, r).Build()
	if err != nil {
		t.Fatal(err)
	}

	gen := &recordingGenerator{}
	bindings, err := lib.Bindings(gen)
	if err != nil {
		t.Fatalf("Bindings failed: %v", err)
	}

	wantHeader := filepath.Join("/out/build/mylib", "mylib-tmp", "Lib_stub.h")
	if gen.req.Header != wantHeader {
		t.Errorf("Header = %q, want %q", gen.req.Header, wantHeader)
	}
	if len(gen.req.SystemIncludes) != 1 || gen.req.SystemIncludes[0] != "/ghc/rts/include" {
		t.Errorf("SystemIncludes = %v", gen.req.SystemIncludes)
	}

	var buf bytes.Buffer
	if _, err := bindings.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "package hs\n" {
		t.Errorf("WriteTo wrote %q", buf.String())
	}
}

func TestLibraryBindingsGeneratorFailure(t *testing.T) {
	r := &fakeRunner{listBin: "/out/libmylib.so"}
	lib, err := newTestBuild(t, r).Build()
	if err != nil {
		t.Fatal(err)
	}

	cause := errors.New("unknown type name 'HsFoo'")
	_, err = lib.Bindings(&recordingGenerator{err: cause})

	var ge *GeneratorError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GeneratorError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("expected the generator's error in the chain")
	}
	var e *Error
	if !errors.As(err, &e) || e.Stage != StageBindings {
		t.Errorf("expected bindings stage, got %v", err)
	}
}

func TestLibraryBindingsQueryFailure(t *testing.T) {
	spawn := errors.New("permission denied")
	r := &fakeRunner{listBin: "/out/libmylib.so", ghcPkgErr: &InvocationError{Command: "ghc-pkg", Err: spawn}}
	lib, err := newTestBuild(t, r).Build()
	if err != nil {
		t.Fatal(err)
	}

	gen := &recordingGenerator{}
	_, err = lib.Bindings(gen)

	var e *Error
	if !errors.As(err, &e) || e.Stage != StageBindings || e.Tool != ToolGhcPkg {
		t.Fatalf("expected bindings stage error from ghc-pkg, got %v", err)
	}
	var ie *InvocationError
	if !errors.As(err, &ie) {
		t.Error("expected an InvocationError cause")
	}
	var ge *GeneratorError
	if errors.As(err, &ge) {
		t.Error("a query failure must not look like a generator failure")
	}
	if gen.req.Header != "" {
		t.Error("generator must not run when the include dir is unknown")
	}
}

func TestBindingsWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hs", "bindings.go")
	b := &Bindings{Source: []byte("package hs\n")}
	if err := b.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "package hs\n" {
		t.Errorf("file contains %q", data)
	}
}
