package internal

import (
	"fmt"

	hsext "github.com/contriboss/haskell-extension-go"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that cabal and ghc-pkg can be found",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	reqs := []hsext.ToolRequirement{
		{Name: hsext.ToolCabal, Path: config.Cabal, Purpose: "builds the foreign library"},
		{Name: hsext.ToolGhcPkg, Path: config.GhcPkg, Purpose: "queries the GHC package database"},
	}

	out := cmd.OutOrStdout()
	for _, req := range reqs {
		path := req.Path
		if path == "" {
			path, _ = hsext.LocateTool(req.Name)
		}
		if path == "" || hsext.CheckRequiredTools([]hsext.ToolRequirement{req}) != nil {
			fmt.Fprintf(out, "%-8s missing\n", req.Name)
			continue
		}
		fmt.Fprintf(out, "%-8s %s\n", req.Name, path)
	}

	return hsext.CheckRequiredTools(reqs)
}
