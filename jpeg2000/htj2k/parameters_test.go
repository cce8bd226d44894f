package htj2k

import (
	"testing"
)

func TestNewOptions(t *testing.T) {
	opts := NewOptions()

	if opts.Quality != 80 {
		t.Errorf("Default Quality = %d, want 80", opts.Quality)
	}
	if opts.BlockWidth != 64 {
		t.Errorf("Default BlockWidth = %d, want 64", opts.BlockWidth)
	}
	if opts.BlockHeight != 64 {
		t.Errorf("Default BlockHeight = %d, want 64", opts.BlockHeight)
	}
	if opts.NumLevels != 3 {
		t.Errorf("Default NumLevels = %d, want 3", opts.NumLevels)
	}
	if opts.Lossless {
		t.Error("NewOptions() should not default to lossless")
	}
}

func TestNewLosslessOptions(t *testing.T) {
	opts := NewLosslessOptions()

	if opts.Quality != 100 {
		t.Errorf("Lossless Quality = %d, want 100", opts.Quality)
	}
	if !opts.Lossless {
		t.Error("NewLosslessOptions() should set Lossless=true")
	}
	if opts.RPCL {
		t.Error("NewLosslessOptions() should not default to RPCL")
	}
}

func TestNewLosslessRPCLOptions(t *testing.T) {
	opts := NewLosslessRPCLOptions()

	if !opts.Lossless {
		t.Error("NewLosslessRPCLOptions() should set Lossless=true")
	}
	if !opts.RPCL {
		t.Error("NewLosslessRPCLOptions() should set RPCL=true")
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*Options)
		wantQuality int
		wantBW      int
		wantBH      int
		wantLevels  int
	}{
		{
			name: "Valid parameters",
			setup: func(o *Options) {
				o.Quality = 80
				o.BlockWidth = 64
				o.BlockHeight = 64
				o.NumLevels = 5
			},
			wantQuality: 80,
			wantBW:      64,
			wantBH:      64,
			wantLevels:  5,
		},
		{
			name: "Quality too low",
			setup: func(o *Options) {
				o.Quality = 0
			},
			wantQuality: 1,
			wantBW:      64,
			wantBH:      64,
			wantLevels:  3,
		},
		{
			name: "Quality too high",
			setup: func(o *Options) {
				o.Quality = 150
			},
			wantQuality: 100,
			wantBW:      64,
			wantBH:      64,
			wantLevels:  3,
		},
		{
			name: "BlockWidth too small",
			setup: func(o *Options) {
				o.BlockWidth = 2
			},
			wantQuality: 80,
			wantBW:      4,
			wantBH:      64,
			wantLevels:  3,
		},
		{
			name: "BlockWidth not power of 2",
			setup: func(o *Options) {
				o.BlockWidth = 100 // Should round to 128
			},
			wantQuality: 80,
			wantBW:      128,
			wantBH:      64,
			wantLevels:  3,
		},
		{
			name: "BlockHeight too large",
			setup: func(o *Options) {
				o.BlockHeight = 2000
			},
			wantQuality: 80,
			wantBW:      64,
			wantBH:      1024,
			wantLevels:  3,
		},
		{
			name: "NumLevels negative",
			setup: func(o *Options) {
				o.NumLevels = -1
			},
			wantQuality: 80,
			wantBW:      64,
			wantBH:      64,
			wantLevels:  0,
		},
		{
			name: "NumLevels too high",
			setup: func(o *Options) {
				o.NumLevels = 10
			},
			wantQuality: 80,
			wantBW:      64,
			wantBH:      64,
			wantLevels:  6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			tt.setup(opts)
			if err := opts.Validate(); err != nil {
				t.Errorf("Validate() returned error: %v", err)
			}

			if opts.Quality != tt.wantQuality {
				t.Errorf("Quality = %d, want %d", opts.Quality, tt.wantQuality)
			}
			if opts.BlockWidth != tt.wantBW {
				t.Errorf("BlockWidth = %d, want %d", opts.BlockWidth, tt.wantBW)
			}
			if opts.BlockHeight != tt.wantBH {
				t.Errorf("BlockHeight = %d, want %d", opts.BlockHeight, tt.wantBH)
			}
			if opts.NumLevels != tt.wantLevels {
				t.Errorf("NumLevels = %d, want %d", opts.NumLevels, tt.wantLevels)
			}
		})
	}
}

func TestOptions_Chaining(t *testing.T) {
	opts := NewOptions().
		WithQuality(90).
		WithBlockSize(128, 128).
		WithNumLevels(6)

	if opts.Quality != 90 {
		t.Errorf("Quality = %d, want 90", opts.Quality)
	}
	if opts.BlockWidth != 128 {
		t.Errorf("BlockWidth = %d, want 128", opts.BlockWidth)
	}
	if opts.BlockHeight != 128 {
		t.Errorf("BlockHeight = %d, want 128", opts.BlockHeight)
	}
	if opts.NumLevels != 6 {
		t.Errorf("NumLevels = %d, want 6", opts.NumLevels)
	}
}

func TestNearestPowerOf2(t *testing.T) {
	tests := []struct {
		input int
		want  int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 4},
		{6, 8},
		{7, 8},
		{8, 8},
		{10, 8},
		{12, 16},
		{15, 16},
		{16, 16},
		{20, 16},
		{24, 32},
		{32, 32},
		{48, 64},
		{64, 64},
		{96, 128},
		{100, 128},
		{128, 128},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			got := nearestPowerOf2(tt.input)
			if got != tt.want {
				t.Errorf("nearestPowerOf2(%d) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
