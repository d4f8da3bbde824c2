package internal

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"

	hsext "github.com/contriboss/haskell-extension-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the foreign library and emit link directives",
	Long: `Build runs cabal build for the configured package, optionally generates cgo
bindings from its stub header, and emits the directives that link the library,
the GHC runtime and the declared Haskell packages.

With --format text the directives are printed to stdout, one per line.
With --format cgo they are written to --link-file as a #cgo LDFLAGS Go file.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var (
	buildPackage   string
	buildOutDir    string
	buildRTS       string
	buildFormat    string
	buildBindings  string
	buildGoPackage string
	buildLinkFile  string
	buildTargetOS  string
	buildNoRpath   bool
)

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildPackage, "package", "p", "", "cabal foreign-library name (overrides config and "+hsext.EnvPackage+")")
	f.StringVarP(&buildOutDir, "out-dir", "o", "", "cabal build directory (overrides config and "+hsext.EnvOutDir+")")
	f.StringVar(&buildRTS, "rts", "", "runtime flavour: non-threaded, threaded, ... (overrides config)")
	f.StringVar(&buildFormat, "format", "", "directive format: text or cgo (overrides config)")
	f.StringVar(&buildBindings, "bindings", "", "write cgo bindings to this file")
	f.StringVar(&buildGoPackage, "go-package", "", "package clause of generated Go files")
	f.StringVar(&buildLinkFile, "link-file", "", "output file for --format cgo")
	f.StringVar(&buildTargetOS, "target-os", "", "GOOS whose shared-library extension is matched")
	f.BoolVar(&buildNoRpath, "no-rpath", false, "do not emit run-path directives")
	rootCmd.AddCommand(buildCmd)
}

// applyBuildFlags copies explicitly set flags over the loaded config.
func applyBuildFlags(cmd *cobra.Command, cfg *hsext.Config) {
	f := cmd.Flags()
	set := func(name, value string, dst *string) {
		if f.Changed(name) {
			*dst = value
		}
	}
	set("package", buildPackage, &cfg.Package)
	set("out-dir", buildOutDir, &cfg.OutDir)
	set("rts", buildRTS, &cfg.RTS)
	set("format", buildFormat, &cfg.Format)
	set("bindings", buildBindings, &cfg.Bindings)
	set("go-package", buildGoPackage, &cfg.GoPackage)
	set("link-file", buildLinkFile, &cfg.LinkFile)
	set("target-os", buildTargetOS, &cfg.TargetOS)
	if f.Changed("no-rpath") {
		cfg.Rpath = !buildNoRpath
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := *config
	applyBuildFlags(cmd, &cfg)

	env, err := cfg.Environment()
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts = append(opts, hsext.WithLogger(logger))

	b, err := hsext.NewBuild(env, opts...)
	if err != nil {
		return err
	}

	run := hsext.RunOptions{Rpath: cfg.Rpath, BindingsFile: cfg.Bindings}
	if cfg.Bindings != "" {
		run.Generator = &hsext.CgoGenerator{Package: goPackage(&cfg, cfg.Bindings)}
	}

	var flags hsext.FlagEmitter
	if cfg.Format == hsext.FormatCgo {
		run.Emitter = &flags
	} else {
		run.Emitter = &hsext.TextEmitter{W: cmd.OutOrStdout()}
	}

	lib, err := b.Run(run)
	if err != nil {
		return err
	}

	if cfg.Format != hsext.FormatCgo {
		return nil
	}
	if cfg.LinkFile == "" {
		fmt.Fprintln(cmd.OutOrStdout(), flags.LDFLAGS())
		return nil
	}

	src, err := flags.CgoSource(goPackage(&cfg, cfg.LinkFile))
	if err != nil {
		return fmt.Errorf("rendering %s: %w", cfg.LinkFile, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LinkFile), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.LinkFile, src, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.LinkFile, err)
	}
	logger.Info("wrote link file",
		zap.String("file", cfg.LinkFile),
		zap.String("library", lib.Path))
	return nil
}

// goPackage returns the configured Go package, or the base name of the
// directory the file goes into, or "main".
func goPackage(cfg *hsext.Config, file string) string {
	if cfg.GoPackage != "" {
		return cfg.GoPackage
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "main"
	}
	name := filepath.Base(filepath.Dir(abs))
	if !token.IsIdentifier(name) {
		return "main"
	}
	return name
}
