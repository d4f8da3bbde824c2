package internal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	hsext "github.com/contriboss/haskell-extension-go"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMatchCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"libHSbase-4.17.0-ghc9.4.7.so",
		"libHSghc-9.4.7-ghc9.4.7.so",
		"libHSrts-1.0.2-ghc9.4.7.so",
		"libHSrts-1.0.2_thr-ghc9.4.7.so",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := filepath.Join(t.TempDir(), "hsext.yaml")

	out, err := execute(t, "match", dir, "--config", cfg, "--rts", "threaded", "--target-os", "linux")
	if err != nil {
		t.Fatalf("match failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "HSrts-1.0.2_thr-ghc9.4.7\trts\t1.0.2\tghc-9.4.7") {
		t.Errorf("threaded runtime not listed:\n%s", out)
	}
	if strings.Contains(out, "HSrts-1.0.2-ghc9.4.7\t") {
		t.Errorf("non-threaded runtime listed:\n%s", out)
	}
	if !strings.Contains(out, "HSbase-4.17.0-ghc9.4.7\tbase") {
		t.Errorf("base not listed:\n%s", out)
	}
}

func TestMatchCommandMissing(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "hsext.yaml")

	_, err := execute(t, "match", dir, "--config", cfg, "--rts", "non-threaded", "--target-os", "linux")
	if !errors.Is(err, hsext.ErrMissingLibrary) {
		t.Errorf("expected ErrMissingLibrary, got %v", err)
	}
}

func TestInitCommand(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "hsext.yaml")

	out, err := execute(t, "init", "mylib", "--config", cfg)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "Wrote "+cfg) {
		t.Errorf("unexpected output %q", out)
	}

	loaded, err := hsext.LoadConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Package != "mylib" || loaded.RTS != "non-threaded" {
		t.Errorf("wrote %+v", loaded)
	}

	if _, err := execute(t, "init", "--config", cfg); err == nil {
		t.Error("expected init to refuse to overwrite")
	}
}

func TestGoPackage(t *testing.T) {
	tests := []struct {
		cfg  hsext.Config
		file string
		want string
	}{
		{hsext.Config{GoPackage: "bindings"}, "hs/x.go", "bindings"},
		{hsext.Config{}, "hs/x.go", "hs"},
		{hsext.Config{}, "my-lib/x.go", "main"},
	}
	for _, tt := range tests {
		if got := goPackage(&tt.cfg, tt.file); got != tt.want {
			t.Errorf("goPackage(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "hsext version "+Version) {
		t.Errorf("unexpected output %q", out)
	}
}
