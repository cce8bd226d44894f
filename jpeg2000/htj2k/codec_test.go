package htj2k

import (
	"testing"

	"github.com/stretchr/testify/assert"

	basecodec "github.com/raster-lab/j2kswift/codec"
)

func TestHTJ2KCodec_Name(t *testing.T) {
	tests := []struct {
		name  string
		codec *Codec
		want  string
	}{
		{
			name:  "Lossless",
			codec: NewLosslessCodec(),
			want:  "HTJ2K Lossless",
		},
		{
			name:  "Lossless RPCL",
			codec: NewLosslessRPCLCodec(),
			want:  "HTJ2K Lossless RPCL",
		},
		{
			name:  "Lossy Quality 80",
			codec: NewCodec(80),
			want:  "HTJ2K (Quality 80)",
		},
		{
			name:  "Lossy Quality 50",
			codec: NewCodec(50),
			want:  "HTJ2K (Quality 50)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.codec.Name())
		})
	}
}

func TestHTJ2KCodec_ID(t *testing.T) {
	tests := []struct {
		name  string
		codec *Codec
		want  string
	}{
		{"Lossless", NewLosslessCodec(), "jpeg2000-ht/lossless"},
		{"Lossless RPCL", NewLosslessRPCLCodec(), "jpeg2000-ht/lossless-rpcl"},
		{"Lossy", NewCodec(80), "jpeg2000-ht/lossy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.codec.ID())
		})
	}
}

func TestHTJ2KCodec_EncodeDecodeRoundTrip(t *testing.T) {
	width, height := 4, 4
	testData := []byte{
		10, 20, 30, 40,
		15, 25, 35, 45,
		12, 22, 32, 42,
		18, 28, 38, 48,
	}

	t.Run("Lossless", func(t *testing.T) {
		htj2kCodec := NewLosslessCodec()

		encoded, err := htj2kCodec.Encode(basecodec.EncodeParams{
			PixelData:  testData,
			Width:      width,
			Height:     height,
			Components: 1,
			BitDepth:   8,
		})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		t.Logf("Original size: %d bytes, Encoded size: %d bytes", len(testData), len(encoded))

		decoded, err := htj2kCodec.Decode(encoded)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}

		if decoded.Width != width {
			t.Errorf("Width mismatch: got %d, want %d", decoded.Width, width)
		}
		if decoded.Height != height {
			t.Errorf("Height mismatch: got %d, want %d", decoded.Height, height)
		}
		if len(decoded.PixelData) == 0 {
			t.Error("Decoded data is empty")
		}
	})

	t.Run("Lossy", func(t *testing.T) {
		htj2kCodec := NewCodec(80)

		encoded, err := htj2kCodec.Encode(basecodec.EncodeParams{
			PixelData:  testData,
			Width:      width,
			Height:     height,
			Components: 1,
			BitDepth:   8,
		})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		t.Logf("Original size: %d bytes, Encoded size: %d bytes", len(testData), len(encoded))

		decoded, err := htj2kCodec.Decode(encoded)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if len(decoded.PixelData) == 0 {
			t.Error("Decoded data is empty")
		}
	})
}

func TestHTJ2KCodec_InvalidInput(t *testing.T) {
	htj2kCodec := NewLosslessCodec()

	tests := []struct {
		name    string
		params  basecodec.EncodeParams
		wantErr bool
	}{
		{
			name:    "Empty pixel data",
			params:  basecodec.EncodeParams{Width: 8, Height: 8, Components: 1, BitDepth: 8},
			wantErr: true,
		},
		{
			name:    "Zero width",
			params:  basecodec.EncodeParams{PixelData: []byte{1, 2, 3}, Width: 0, Height: 8, Components: 1, BitDepth: 8},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := htj2kCodec.Encode(tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("Encode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := htj2kCodec.Decode(nil); err == nil {
		t.Error("Decode(nil) should return an error")
	}
}

func TestHTJ2KCodec_Registration(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"HTJ2K Lossless", "jpeg2000-ht/lossless"},
		{"HTJ2K Lossless RPCL", "jpeg2000-ht/lossless-rpcl"},
		{"HTJ2K Lossy", "jpeg2000-ht/lossy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := basecodec.Get(tt.id)
			assert.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}
