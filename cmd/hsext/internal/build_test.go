package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// writeTool writes an executable shell script into dir.
func writeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// buildProject lays out fake cabal and ghc-pkg tools, a GHC library
// directory and an hsext.yaml pointing at them. It returns the config path
// and the directory the fake cabal reports the library in.
func buildProject(t *testing.T, extra string) (cfg, artifactDir string) {
	t.Helper()

	bin := t.TempDir()
	artifactDir = t.TempDir()
	libDir := t.TempDir()
	for _, name := range []string{
		"libHSrts-1.0.2-ghc9.4.7.so",
		"libHSbase-4.17.0-ghc9.4.7.so",
		"libHSghc-9.4.7-ghc9.4.7.so",
	} {
		if err := os.WriteFile(filepath.Join(libDir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cabal := writeTool(t, bin, "cabal", `case "$1" in
build) exit 0 ;;
list-bin) echo "`+filepath.Join(artifactDir, "libmylib.so")+`" ;;
*) exit 2 ;;
esac`)
	ghcPkg := writeTool(t, bin, "ghc-pkg", `case "$3" in
include-dirs) echo "`+filepath.Join(libDir, "include")+`" ;;
dynamic-library-dirs) echo "`+libDir+`" ;;
*) exit 1 ;;
esac`)

	cfg = filepath.Join(t.TempDir(), "hsext.yaml")
	data := "package: mylib\n" +
		"out_dir: " + filepath.Join(t.TempDir(), "out") + "\n" +
		"cabal: " + cabal + "\n" +
		"ghc_pkg: " + ghcPkg + "\n" +
		"target_os: linux\n" +
		"rpath: true\n" +
		extra
	if err := os.WriteFile(cfg, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg, artifactDir
}

// resetBuildFlags clears flag values left behind by an earlier run.
func resetBuildFlags(t *testing.T) {
	t.Helper()
	buildCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("resetting --%s: %v", f.Name, err)
		}
		f.Changed = false
	})
}

func TestBuildCommandText(t *testing.T) {
	resetBuildFlags(t)
	cfg, artifactDir := buildProject(t, "format: text\n")

	out, err := execute(t, "build", "--config", cfg)
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}

	for _, want := range []string{
		"search-path " + artifactDir + "\n",
		"link-dylib mylib\n",
		"runpath " + artifactDir + "\n",
		"link-dylib HSrts-1.0.2-ghc9.4.7\n",
		"link-dylib HSbase-4.17.0-ghc9.4.7\n",
		"link-dylib HSghc-9.4.7-ghc9.4.7\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBuildCommandFlagsOverrideConfig(t *testing.T) {
	resetBuildFlags(t)
	cfg, _ := buildProject(t, "format: cgo\n")

	out, err := execute(t, "build", "--config", cfg, "--format", "text", "--no-rpath")
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "link-dylib mylib\n") {
		t.Errorf("expected text directives:\n%s", out)
	}
	if strings.Contains(out, "runpath") {
		t.Errorf("--no-rpath should drop run paths:\n%s", out)
	}
}

func TestBuildCommandCgoStdout(t *testing.T) {
	resetBuildFlags(t)
	cfg, artifactDir := buildProject(t, "format: cgo\n")

	out, err := execute(t, "build", "--config", cfg)
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	want := "-L" + artifactDir + " -lmylib -Wl,-rpath," + artifactDir + " -L"
	if !strings.HasPrefix(out, want) {
		t.Errorf("LDFLAGS = %q, want prefix %q", out, want)
	}
	if !strings.Contains(out, "-lHSrts-1.0.2-ghc9.4.7") {
		t.Errorf("runtime missing from %q", out)
	}
	if strings.Contains(out, "link-dylib") {
		t.Errorf("text directives printed in cgo mode:\n%s", out)
	}
}

func TestBuildCommandLinkFile(t *testing.T) {
	resetBuildFlags(t)
	cfg, _ := buildProject(t, "format: cgo\n")
	linkFile := filepath.Join(t.TempDir(), "hs", "link.go")

	out, err := execute(t, "build", "--config", cfg, "--link-file", linkFile)
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	if out != "" {
		t.Errorf("nothing should be printed with --link-file, got %q", out)
	}

	data, err := os.ReadFile(linkFile)
	if err != nil {
		t.Fatalf("link file not written: %v", err)
	}
	src := string(data)
	for _, want := range []string{"package hs", "// #cgo LDFLAGS: ", "-lmylib", `import "C"`} {
		if !strings.Contains(src, want) {
			t.Errorf("link file missing %q:\n%s", want, src)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	bin := t.TempDir()
	cabal := writeTool(t, bin, "cabal", "exit 0")
	missing := filepath.Join(bin, "ghc-pkg")

	cfg := filepath.Join(t.TempDir(), "hsext.yaml")
	data := "cabal: " + cabal + "\nghc_pkg: " + missing + "\n"
	if err := os.WriteFile(cfg, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "check", "--config", cfg)
	if err == nil {
		t.Fatal("expected check to fail for a missing ghc-pkg")
	}
	if want := "not found at " + missing; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not contain %q", err, want)
	}
	if !strings.Contains(out, "cabal    "+cabal) {
		t.Errorf("cabal not reported:\n%s", out)
	}
	if !strings.Contains(out, "ghc-pkg  missing") {
		t.Errorf("ghc-pkg not reported missing:\n%s", out)
	}
}
