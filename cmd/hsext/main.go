// cmd/hsext/main.go
package main

import (
	"fmt"
	"os"

	"github.com/contriboss/haskell-extension-go/cmd/hsext/internal"
	"github.com/magefile/mage/mg"
)

func main() {
	if err := internal.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mg.ExitStatus(err))
	}
}
