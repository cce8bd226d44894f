// Package codec defines the format-agnostic interface image codecs
// register against, independent of any particular container or transport.
package codec

// Codec encodes and decodes a single image format/profile combination.
type Codec interface {
	Encode(params EncodeParams) ([]byte, error)
	Decode(data []byte) (*DecodeResult, error)

	// ID returns the codec's registry identifier — a short, stable,
	// format-specific string (e.g. "jpeg2000-ht/lossless") rather than a
	// transport- or container-specific label.
	ID() string

	// Name returns a human-readable description of this codec instance.
	Name() string
}

// EncodeParams carries the raw pixel buffer and geometry an encoder needs.
type EncodeParams struct {
	PixelData  []byte
	Width      int
	Height     int
	Components int // 1 = grayscale, 3 = RGB/YCbCr
	BitDepth   int // bits per sample
	Options    Options
}

// DecodeResult carries the pixel buffer and geometry a decoder recovered.
type DecodeResult struct {
	PixelData  []byte
	Width      int
	Height     int
	Components int
	BitDepth   int
}

// Options is implemented by each codec's own parameter type.
type Options interface {
	Validate() error
}

// BaseOptions is an embeddable Options implementation covering the quality
// knobs common to most lossy/near-lossless codecs.
type BaseOptions struct {
	Quality      int // 1-100, higher is better; unused for lossless codecs
	NearLossless int // 0 = lossless, >0 = near-lossless error bound
}

func (o *BaseOptions) Validate() error {
	if o.Quality < 0 || o.Quality > 100 {
		return ErrInvalidQuality
	}
	if o.NearLossless < 0 {
		return ErrInvalidParameter
	}
	return nil
}
