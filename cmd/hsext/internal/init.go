package internal

import (
	"fmt"
	"os"

	hsext "github.com/contriboss/haskell-extension-go"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [package]",
	Short: "Write a default " + hsext.DefaultConfigFile,
	Long: `Init writes a configuration file with the default runtime flavour and
dependencies. The optional argument sets the cabal foreign-library name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = hsext.DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	cfg := hsext.DefaultConfig()
	if len(args) == 1 {
		cfg.Package = args[0]
	}

	if err := hsext.SaveConfig(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
