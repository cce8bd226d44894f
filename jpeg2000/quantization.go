package jpeg2000

import (
	"math"
	"math/bits"
)

// irrev97Norms holds the L2 norms of the 9/7 irreversible wavelet synthesis
// filters (opj_dwt_norms_real), indexed [orientation][level]. Orientation 0
// is LL/LH-style (vertical lowpass), 1-3 cover HL/LH/HH.
var irrev97Norms = [4][10]float64{
	{1.000, 1.965, 4.177, 8.403, 16.90, 33.84, 67.69, 135.3, 270.6, 540.9},
	{2.022, 3.989, 8.355, 17.04, 34.27, 68.63, 137.3, 274.6, 549.0, 0.0},
	{2.022, 3.989, 8.355, 17.04, 34.27, 68.63, 137.3, 274.6, 549.0, 0.0},
	{2.080, 3.865, 8.307, 17.18, 34.71, 69.59, 139.3, 278.6, 557.2, 0.0},
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func irrev97Norm(level, orient int) float64 {
	level = clampInt(level, 0, 9)
	switch {
	case orient == 0 && level >= 10:
		level = 9
	case orient > 0 && level >= 9:
		level = 8
	}
	if orient < 0 || orient > 3 {
		return 1.0
	}
	return irrev97Norms[orient][level]
}

// distortionScale maps a 1-100 quality setting to a global coefficient
// scale; lower quality pushes the scale (and so the quantization step)
// upward. 100 is reserved for the lossless path and never reaches here.
func distortionScale(quality int) float64 {
	quality = clampInt(quality, 1, 100)
	scale := math.Pow(2.0, (100.0-float64(quality))/12.5)
	return math.Max(scale, 0.01) * 0.18
}

// subbandOrigin maps a flat subband index (0=LL, then HL/LH/HH per
// resolution level) to its resolution number, orientation, and the
// decomposition level used to look up its wavelet norm.
func subbandOrigin(idx, numLevels int) (resno, orient, level int) {
	if idx == 0 {
		return 0, 0, clampInt(numLevels, 0, numLevels)
	}
	resno = (idx-1)/3 + 1
	orient = (idx-1)%3 + 1
	level = clampInt(numLevels-resno, 0, numLevels)
	return resno, orient, level
}

func stepSizesForLevels(numLevels int, scale float64) []float64 {
	if numLevels <= 0 {
		return []float64{scale}
	}
	steps := make([]float64, 3*numLevels+1)
	for idx := range steps {
		_, orient, level := subbandOrigin(idx, numLevels)
		norm := irrev97Norm(level, orient)
		if norm <= 0 {
			steps[idx] = scale
			continue
		}
		steps[idx] = scale / norm
	}
	return steps
}

// stepSizeCodec packs/unpacks the 16-bit SPqcd/SQqcd quantization-step
// representation: a 5-bit exponent (bits 11-15) and 11-bit mantissa.
type stepSizeCodec struct{}

func (stepSizeCodec) encode(stepSize float64, numbps int) uint16 {
	if stepSize <= 0 {
		return 0
	}
	fixed := int32(math.Floor(stepSize * 8192.0))
	if fixed <= 0 {
		fixed = 1
	}
	log2 := bits.Len32(uint32(fixed)) - 1
	p := log2 - 13
	n := 11 - log2
	var mant int32
	if n < 0 {
		mant = fixed >> uint(-n)
	} else {
		mant = fixed << uint(n)
	}
	mant &= 0x7ff
	expn := clampInt(numbps-p, 0, 0x1f)
	return uint16(expn<<11) | uint16(mant)
}

func (stepSizeCodec) decode(encoded uint16, bitDepth, log2Gain int) float64 {
	expn := int((encoded >> 11) & 0x1f)
	mant := float64(encoded & 0x7ff)
	rb := bitDepth + log2Gain
	return math.Ldexp(1.0+mant/2048.0, rb-expn)
}

// Quantization styles, matching the SQcd field of a QCD/QCC marker.
const (
	QuantNone            = 0 // lossless, no step sizes recorded
	QuantScalarDerived   = 1 // single base step size derived per subband
	QuantScalarExpounded = 2 // explicit step size for every subband
)

// QuantizationParams holds quantization parameters for all subbands.
type QuantizationParams struct {
	Style     int
	GuardBits int

	// StepSizes holds one entry per subband, ordered LL, HL1, LH1, HH1,
	// HL2, LH2, HH2, ..., HLn, LHn, HHn.
	StepSizes []float64

	// EncodedSteps holds the SPqcd/SQqcd packed form of StepSizes.
	EncodedSteps []uint16
}

// CalculateQuantizationParams derives per-subband quantization parameters
// for a given quality setting, assuming the 9/7 irreversible wavelet.
// quality runs 1-100 (1 = maximum compression, 100 = lossless).
func CalculateQuantizationParams(quality, numLevels, bitDepth int) *QuantizationParams {
	quality = clampInt(quality, 1, 100)
	if quality >= 100 {
		return &QuantizationParams{Style: QuantNone, GuardBits: 2}
	}

	codec := stepSizeCodec{}
	steps := stepSizesForLevels(numLevels, distortionScale(quality))
	encoded := make([]uint16, len(steps))
	for i, step := range steps {
		encoded[i] = codec.encode(step, bitDepth)
	}

	return &QuantizationParams{
		Style:        QuantScalarExpounded,
		GuardBits:    2,
		StepSizes:    steps,
		EncodedSteps: encoded,
	}
}

// DecodeQuantizationStep recovers a step size from its 16-bit SPqcd/SQqcd
// encoding for a component of the given original bit depth.
func DecodeQuantizationStep(encoded uint16, bitDepth int) float64 {
	return stepSizeCodec{}.decode(encoded, bitDepth, 0)
}

func scaleCoefficients(coefficients []int32, stepSize float64, divide bool) []int32 {
	if stepSize <= 0 {
		return coefficients
	}
	out := make([]int32, len(coefficients))
	for i, coeff := range coefficients {
		if divide {
			out[i] = int32(math.RoundToEven(float64(coeff) / stepSize))
		} else {
			out[i] = int32(math.RoundToEven(float64(coeff) * stepSize))
		}
	}
	return out
}

// QuantizeCoefficients rounds wavelet coefficients to multiples of
// stepSize, matching OpenJPEG's lrintf-based scalar quantizer.
func QuantizeCoefficients(coefficients []int32, stepSize float64) []int32 {
	return scaleCoefficients(coefficients, stepSize, true)
}

// DequantizeCoefficients reverses QuantizeCoefficients.
func DequantizeCoefficients(coefficients []int32, stepSize float64) []int32 {
	return scaleCoefficients(coefficients, stepSize, false)
}
