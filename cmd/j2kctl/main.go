// Command j2kctl encodes and decodes JPEG 2000 / HTJ2K images from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/raster-lab/j2kswift/cmd/j2kctl/cmd"
)

// gitsha is overridden at build time via -ldflags "-X main.gitsha=...".
var gitsha = "dev"

func main() {
	if err := cmd.NewRoot(gitsha).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
