package htj2k

import (
	"fmt"

	basecodec "github.com/raster-lab/j2kswift/codec"
	"github.com/raster-lab/j2kswift/jpeg2000"
	"github.com/raster-lab/j2kswift/jpeg2000/t2"
)

var _ basecodec.Codec = (*Codec)(nil)

// Codec implements the HTJ2K (High-Throughput JPEG 2000) codec.
// Reference: ITU-T T.814 | ISO/IEC 15444-15:2019
//
// Registered profiles:
//   - jpeg2000-ht/lossless:       HTJ2K Lossless
//   - jpeg2000-ht/lossless-rpcl:  HTJ2K Lossless, RPCL progression
//   - jpeg2000-ht/lossy:          HTJ2K Lossy, quality-driven
type Codec struct {
	id       string
	lossless bool
	rpcl     bool
	quality  int // For lossy encoding (1-100)
}

const (
	profileLossless     = "jpeg2000-ht/lossless"
	profileLosslessRPCL = "jpeg2000-ht/lossless-rpcl"
	profileLossy        = "jpeg2000-ht/lossy"
)

// NewLosslessCodec creates a new HTJ2K lossless codec.
func NewLosslessCodec() *Codec {
	return &Codec{
		id:       profileLossless,
		lossless: true,
	}
}

// NewLosslessRPCLCodec creates a new HTJ2K lossless RPCL codec.
func NewLosslessRPCLCodec() *Codec {
	return &Codec{
		id:       profileLosslessRPCL,
		lossless: true,
		rpcl:     true,
	}
}

// NewCodec creates a new HTJ2K lossy codec with the specified quality.
func NewCodec(quality int) *Codec {
	if quality < 1 || quality > 100 {
		quality = 80 // default
	}
	return &Codec{
		id:      profileLossy,
		quality: quality,
	}
}

// Name returns the codec name.
func (c *Codec) Name() string {
	if c.lossless {
		if c.rpcl {
			return "HTJ2K Lossless RPCL"
		}
		return "HTJ2K Lossless"
	}
	return fmt.Sprintf("HTJ2K (Quality %d)", c.quality)
}

// ID returns the codec's registry identifier.
func (c *Codec) ID() string {
	return c.id
}

// defaultOptions returns the Options this codec uses when the caller
// doesn't supply its own.
func (c *Codec) defaultOptions() *Options {
	if c.lossless {
		if c.rpcl {
			return NewLosslessRPCLOptions()
		}
		return NewLosslessOptions()
	}
	return NewOptions().WithQuality(c.quality)
}

// Encode encodes pixel data to HTJ2K format.
func (c *Codec) Encode(params basecodec.EncodeParams) ([]byte, error) {
	if len(params.PixelData) == 0 {
		return nil, fmt.Errorf("pixel data is empty")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", params.Width, params.Height)
	}

	opts := c.defaultOptions()
	if params.Options != nil {
		if o, ok := params.Options.(*Options); ok {
			opts = o
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate options: %w", err)
	}

	encParams := jpeg2000.DefaultEncodeParams(
		params.Width,
		params.Height,
		params.Components,
		params.BitDepth,
		false,
	)

	maxLevels := calculateMaxLevels(params.Width, params.Height)
	if opts.NumLevels > maxLevels {
		encParams.NumLevels = maxLevels
	} else {
		encParams.NumLevels = opts.NumLevels
	}
	encParams.CodeBlockWidth = opts.BlockWidth
	encParams.CodeBlockHeight = opts.BlockHeight

	// Route code-block entropy coding through the HT block coder instead
	// of the EBCOT Tier-1 coder.
	encParams.BlockEncoderFactory = func(width, height int) jpeg2000.BlockEncoder {
		return NewHTEncoder(width, height)
	}

	if opts.Lossless || c.lossless {
		encParams.Lossless = true
	} else {
		encParams.Lossless = false
		encParams.Quality = opts.Quality
	}

	if opts.RPCL {
		encParams.ProgressionOrder = 2 // RPCL
	}

	encoder := jpeg2000.NewEncoder(encParams)
	encoded, err := encoder.Encode(params.PixelData)
	if err != nil {
		return nil, fmt.Errorf("HTJ2K encode failed: %w", err)
	}
	return encoded, nil
}

// Decode decodes HTJ2K data to uncompressed pixel data.
func (c *Codec) Decode(data []byte) (*basecodec.DecodeResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("encoded data is empty")
	}

	decoder := jpeg2000.NewDecoder()

	// Route code-block entropy decoding through the HT block decoder
	// instead of the EBCOT Tier-1 decoder.
	decoder.SetBlockDecoderFactory(func(width, height int, cblkstyle int) t2.BlockDecoder {
		return NewHTDecoder(width, height)
	})

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("HTJ2K decode failed: %w", err)
	}

	return &basecodec.DecodeResult{
		PixelData:  decoder.GetPixelData(),
		Width:      decoder.Width(),
		Height:     decoder.Height(),
		Components: decoder.Components(),
		BitDepth:   decoder.BitDepth(),
	}, nil
}

// RegisterHTJ2KCodecs registers all HTJ2K codecs with the global registry.
func RegisterHTJ2KCodecs() {
	basecodec.Register(NewLosslessCodec())
	basecodec.Register(NewLosslessRPCLCodec())
	basecodec.Register(NewCodec(80)) // default quality: 80
}

func init() {
	RegisterHTJ2KCodecs()
}

// calculateMaxLevels calculates the maximum number of wavelet decomposition
// levels that can be applied to an image of the given dimensions.
// Each level halves the dimensions (rounding up), so max levels is the smallest
// n with 2^n >= min(width, height), i.e. ceil(log2(min(width, height))).
func calculateMaxLevels(width, height int) int {
	minDim := width
	if height < minDim {
		minDim = height
	}

	if minDim <= 0 {
		return 0
	}

	maxLevels := 0
	for (1 << maxLevels) < minDim {
		maxLevels++
	}

	// Cap at 6 levels (JPEG2000 standard limit)
	if maxLevels > 6 {
		maxLevels = 6
	}

	return maxLevels
}
