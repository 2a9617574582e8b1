// Command whatid encodes configurations into canonical identity strings,
// decodes them back and manages a nickname registry.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/whatid/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own structured errors; this covers the rest.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
