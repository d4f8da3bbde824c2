package internal

import (
	"fmt"
	"runtime"

	hsext "github.com/contriboss/haskell-extension-go"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <dir>",
	Short: "Show which GHC libraries in a directory would be linked",
	Long: `Match lists the files in dir that hsext would link for the configured
runtime flavour and dependencies, one per line:

  <link name>  <dependency>  <version>  ghc-<compiler version>

It fails when the runtime or a declared dependency has no matching file.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

var (
	matchRTS      string
	matchTargetOS string
	matchDeps     []string
)

func init() {
	matchCmd.Flags().StringVar(&matchRTS, "rts", "", "runtime flavour (overrides config)")
	matchCmd.Flags().StringVar(&matchTargetOS, "target-os", "", "GOOS whose shared-library extension is matched")
	matchCmd.Flags().StringSliceVar(&matchDeps, "dep", nil, "declared Haskell dependency, repeatable (overrides config)")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := *config
	if cmd.Flags().Changed("rts") {
		cfg.RTS = matchRTS
	}
	if cmd.Flags().Changed("target-os") {
		cfg.TargetOS = matchTargetOS
	}
	if cmd.Flags().Changed("dep") {
		cfg.Dependencies = matchDeps
	}

	if _, err := cfg.Options(); err != nil {
		return err
	}
	rts, _ := hsext.ParseRTSVersion(cfg.RTS)
	deps := make([]hsext.Dependency, len(cfg.Dependencies))
	for i, d := range cfg.Dependencies {
		deps[i] = hsext.Dependency(d)
	}

	goos := cfg.TargetOS
	if goos == "" {
		goos = runtime.GOOS
	}

	dir, files, err := hsext.ScanDir(args[0])
	if err != nil {
		return err
	}

	set := hsext.NewMatcher(rts, deps, hsext.DylibExt(goos)).MatchAll(files)

	out := cmd.OutOrStdout()
	for _, m := range set.Matches {
		fmt.Fprintf(out, "%s\t%s\t%s\tghc-%s\n", m.LinkName, m.Dependency, m.Version, m.CompilerVersion)
	}

	if missing := set.Missing(); len(missing) > 0 {
		return &hsext.MissingLibraryError{Dir: dir, Missing: missing}
	}
	return nil
}
