package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/raster-lab/j2kswift/codec"
	"github.com/raster-lab/j2kswift/jpeg2000/htj2k"
)

// NewEncodeCmd encodes a raw pixel buffer into a compressed codestream.
func NewEncodeCmd() *cobra.Command {
	var (
		in, out              string
		width, height        int
		components, bitDepth int
		codecID              string
		quality              int
		lossless             bool
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode a raw interleaved pixel buffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("in", in); err != nil {
				return err
			}
			if err := requireFlag("out", out); err != nil {
				return err
			}

			requestID := uuid.NewString()
			logger := slog.With("requestID", requestID, "op", "encode")
			logger.InfoContext(context.Background(), "starting encode",
				"width", width, "height", height, "components", components, "bitDepth", bitDepth)

			pixelData, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			c, err := codec.Get(codecID)
			if err != nil {
				return fmt.Errorf("lookup codec %q: %w", codecID, err)
			}

			opts := htj2k.NewOptions().WithQuality(quality)
			opts.Lossless = lossless

			encoded, err := c.Encode(codec.EncodeParams{
				PixelData:  pixelData,
				Width:      width,
				Height:     height,
				Components: components,
				BitDepth:   bitDepth,
				Options:    opts,
			})
			if err != nil {
				logger.Error("encode failed", "error", err)
				return err
			}

			if err := os.WriteFile(out, encoded, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			logger.Info("encode complete", "inputBytes", len(pixelData), "outputBytes", len(encoded))
			return nil
		},
	}

	pf := cmd.Flags()
	pf.StringVar(&in, "in", "", "path to the raw pixel buffer")
	pf.StringVar(&out, "out", "", "path to write the compressed codestream")
	pf.IntVar(&width, "width", 0, "image width in samples")
	pf.IntVar(&height, "height", 0, "image height in samples")
	pf.IntVar(&components, "components", 1, "number of components (1=grayscale, 3=RGB)")
	pf.IntVar(&bitDepth, "bit-depth", 8, "bits per sample")
	pf.StringVar(&codecID, "codec", "jpeg2000-ht/lossless", "registered codec name or ID")
	pf.IntVar(&quality, "quality", 80, "lossy quality 1-100 (ignored when --lossless)")
	pf.BoolVar(&lossless, "lossless", true, "use lossless encoding")
	return cmd
}
