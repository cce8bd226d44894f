package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/raster-lab/j2kswift/codec"
)

// NewDecodeCmd decodes a compressed codestream back to a raw pixel buffer.
func NewDecodeCmd() *cobra.Command {
	var in, out, codecID string

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode a compressed codestream to a raw pixel buffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("in", in); err != nil {
				return err
			}
			if err := requireFlag("out", out); err != nil {
				return err
			}

			requestID := uuid.NewString()
			logger := slog.With("requestID", requestID, "op", "decode")
			logger.InfoContext(context.Background(), "starting decode", "codec", codecID)

			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			c, err := codec.Get(codecID)
			if err != nil {
				return fmt.Errorf("lookup codec %q: %w", codecID, err)
			}

			result, err := c.Decode(data)
			if err != nil {
				logger.Error("decode failed", "error", err)
				return err
			}

			if err := os.WriteFile(out, result.PixelData, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			logger.Info("decode complete",
				"width", result.Width, "height", result.Height,
				"components", result.Components, "bitDepth", result.BitDepth,
				"outputBytes", len(result.PixelData))
			return nil
		},
	}

	pf := cmd.Flags()
	pf.StringVar(&in, "in", "", "path to the compressed codestream")
	pf.StringVar(&out, "out", "", "path to write the raw pixel buffer")
	pf.StringVar(&codecID, "codec", "jpeg2000-ht/lossless", "registered codec name or ID")
	return cmd
}
