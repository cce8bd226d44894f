// Package cmd implements the j2kctl command-line codec driver.
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raster-lab/j2kswift/internal/logging"
	_ "github.com/raster-lab/j2kswift/jpeg2000/htj2k" // registers HTJ2K codecs
)

// NewRoot builds the j2kctl root command.
func NewRoot(gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "j2kctl",
		Short: "encode and decode JPEG 2000 / HTJ2K images",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}

			cfg := logging.DefaultConfig()
			cfg.Level = level
			slog.SetDefault(logging.NewLogger(cfg))
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(
		NewVersionCmd(gitsha),
		NewEncodeCmd(),
		NewDecodeCmd(),
		NewListCodecsCmd(),
	)

	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	return cmd
}

// NewVersionCmd reports the build identifier.
func NewVersionCmd(gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the build identifier",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
}

var errMissingFlag = fmt.Errorf("required flag not set")

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: --%s", errMissingFlag, name)
	}
	return nil
}
