package htj2k

import "github.com/raster-lab/j2kswift/codec"

// Ensure Options implements codec.Options
var _ codec.Options = (*Options)(nil)

// Options contains parameters for HTJ2K (High-Throughput JPEG 2000) compression.
type Options struct {
	// Quality controls lossy compression quality (1-100)
	// - 1: Maximum compression, lowest quality
	// - 50: Medium quality
	// - 80: High quality (default)
	// - 100: Near-lossless, highest quality
	//
	// Only applies to lossy encoding. For lossless, this parameter is ignored.
	Quality int

	// BlockWidth specifies the code-block width
	// Default: 64 (or image width for small images)
	// Valid range: 4-1024 (must be power of 2)
	BlockWidth int

	// BlockHeight specifies the code-block height
	// Default: 64 (or image height for small images)
	// Valid range: 4-1024 (must be power of 2)
	BlockHeight int

	// NumLevels controls the number of wavelet decomposition levels (0-6)
	// - 0: No decomposition (minimal compression, fastest)
	// - 1: Single-level decomposition
	// - 3: Default, medium levels (good balance)
	// - 5: Deeper decomposition for larger images
	// - 6: Maximum levels (best compression for large images)
	NumLevels int

	// Lossless selects the reversible wavelet and disables quantization.
	Lossless bool

	// RPCL selects the resolution-position-component-layer progression
	// order used by the lossless-RPCL profile; otherwise LRCP is used.
	RPCL bool
}

// NewOptions creates Options with defaults for lossy encoding.
func NewOptions() *Options {
	return &Options{
		Quality:     80,
		BlockWidth:  64,
		BlockHeight: 64,
		NumLevels:   3,
	}
}

// NewLosslessOptions creates Options defaulted for lossless encoding.
func NewLosslessOptions() *Options {
	return &Options{
		Quality:     100,
		BlockWidth:  64,
		BlockHeight: 64,
		NumLevels:   3,
		Lossless:    true,
	}
}

// NewLosslessRPCLOptions creates Options defaulted for lossless encoding
// with RPCL progression order.
func NewLosslessRPCLOptions() *Options {
	o := NewLosslessOptions()
	o.RPCL = true
	return o
}

// Validate checks if the options are valid and clamps them if needed.
func (o *Options) Validate() error {
	if o.Quality < 1 {
		o.Quality = 1
	} else if o.Quality > 100 {
		o.Quality = 100
	}

	if o.BlockWidth < 4 {
		o.BlockWidth = 4
	} else if o.BlockWidth > 1024 {
		o.BlockWidth = 1024
	}
	o.BlockWidth = nearestPowerOf2(o.BlockWidth)

	if o.BlockHeight < 4 {
		o.BlockHeight = 4
	} else if o.BlockHeight > 1024 {
		o.BlockHeight = 1024
	}
	o.BlockHeight = nearestPowerOf2(o.BlockHeight)

	if o.NumLevels < 0 {
		o.NumLevels = 0
	} else if o.NumLevels > 6 {
		o.NumLevels = 6
	}

	return nil
}

// WithQuality sets the quality and returns the options for chaining.
func (o *Options) WithQuality(quality int) *Options {
	o.Quality = quality
	return o
}

// WithBlockSize sets both block width and height and returns the options for chaining.
func (o *Options) WithBlockSize(width, height int) *Options {
	o.BlockWidth = width
	o.BlockHeight = height
	return o
}

// WithNumLevels sets the number of decomposition levels and returns the options for chaining.
func (o *Options) WithNumLevels(numLevels int) *Options {
	o.NumLevels = numLevels
	return o
}

// nearestPowerOf2 returns the nearest power of 2 to the given value.
func nearestPowerOf2(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}

	prevPower := power >> 1
	if n-prevPower < power-n {
		return prevPower
	}
	return power
}
