package codec

import "errors"

// Sentinel errors returned by Registry lookups and Options validation.
var (
	ErrCodecNotFound     = errors.New("codec not found")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrInvalidQuality    = errors.New("invalid quality (must be 1-100)")
	ErrUnsupportedFormat = errors.New("unsupported format")
)
