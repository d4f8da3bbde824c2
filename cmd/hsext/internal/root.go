package internal

import (
	"fmt"
	"os"

	hsext "github.com/contriboss/haskell-extension-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	verbose bool
	debug   bool
	config  *hsext.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hsext",
	Short: "Build Haskell foreign libraries for Go programs",
	Long: `hsext builds a cabal foreign library and tells the Go build how to link it.

It runs cabal, locates the GHC runtime libraries through ghc-pkg, and emits
link directives as text or as a #cgo LDFLAGS file, optionally generating cgo
bindings for the library's exported functions.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+hsext.DefaultConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every command hsext runs")
}

func initConfig() {
	var err error
	config, err = hsext.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		config = hsext.DefaultConfig()
	}
}

func setupLogger(cmd *cobra.Command, args []string) error {
	var err error
	switch {
	case debug:
		logger, err = hsext.NewLoggerAt(zapcore.DebugLevel)
	case verbose:
		logger, err = hsext.NewLoggerAt(zapcore.InfoLevel)
	default:
		logger, err = hsext.NewLogger()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	hsext.SetLogger(logger)
	return nil
}
