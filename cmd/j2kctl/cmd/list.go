package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raster-lab/j2kswift/codec"
)

// NewListCodecsCmd prints every codec registered with the default registry.
func NewListCodecsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codecs",
		Short: "list registered codecs",
		Run: func(cmd *cobra.Command, args []string) {
			for _, c := range codec.List() {
				fmt.Printf("%-30s %s\n", c.Name(), c.ID())
			}
		},
	}
}
