package hsext

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldQueries(t *testing.T) {
	r := &fakeRunner{
		includeDir: "/ghc/lib/x86_64-linux-ghc-9.4.7/rts-1.0.2/include",
		libraryDir: "/ghc/lib/x86_64-linux-ghc-9.4.7",
	}
	b := newTestBuild(t, r)

	inc, err := b.IncludeDir()
	if err != nil {
		t.Fatal(err)
	}
	if inc != r.includeDir {
		t.Errorf("IncludeDir() = %q", inc)
	}

	lib, err := b.DynamicLibraryDir()
	if err != nil {
		t.Fatal(err)
	}
	if lib != r.libraryDir {
		t.Errorf("DynamicLibraryDir() = %q", lib)
	}

	want := []call{
		{name: "/opt/bin/ghc-pkg", args: []string{"field", "rts", "include-dirs", "--simple-output"}},
		{name: "/opt/bin/ghc-pkg", args: []string{"field", "rts", "dynamic-library-dirs", "--simple-output"}},
	}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("calls = %+v, want %+v", r.calls, want)
	}
}

func TestFieldNonZeroExitReturnsText(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := &fakeRunner{ghcPkgStatus: 1, libraryDir: "partial"}
	b := newTestBuild(t, r, WithLogger(zap.New(core)))

	got, err := b.DynamicLibraryDir()
	if err != nil {
		t.Fatalf("expected raw text, got error %v", err)
	}
	if got != "partial" {
		t.Errorf("got %q", got)
	}
	if logs.FilterMessage("ghc-pkg exited non-zero").Len() != 1 {
		t.Error("expected a warning for the non-zero exit")
	}
}

func TestFieldInvocationError(t *testing.T) {
	r := &fakeRunner{ghcPkgErr: &InvocationError{Command: "ghc-pkg", Err: errors.New("no such file")}}
	b := newTestBuild(t, r)

	_, err := b.IncludeDir()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if e.Stage != StageQuery || e.Tool != ToolGhcPkg {
		t.Errorf("got stage %s tool %s", e.Stage, e.Tool)
	}
	var ie *InvocationError
	if !errors.As(err, &ie) {
		t.Error("expected an InvocationError cause")
	}
	if errors.Is(err, ErrBuildFailed) {
		t.Error("a query failure must be distinct from a build failure")
	}
}
