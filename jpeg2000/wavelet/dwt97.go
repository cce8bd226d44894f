package wavelet

// Cohen-Daubechies-Feauveau 9/7 irreversible wavelet filter (ISO/IEC
// 15444-1 Annex F.4), used by the lossy encode/decode path. Lifting runs in
// floating point; the four filter taps and the two normalization scales are
// fixed constants from the standard's Table F.4.
const (
	tapPredict1 = -1.586134342
	tapUpdate1  = -0.052980118
	tapPredict2 = 0.882911075
	tapUpdate2  = 0.443506852

	normLow  = 1.230174105
	normHigh = 0.812893066 // 1 / normLow
)

// Forward97_1D splits data into a low-pass half followed by a high-pass
// half, with the low-pass subband starting at the even indices.
func Forward97_1D(data []float64) {
	Forward97_1DWithParity(data, true)
}

// Forward97_1DWithParity is Forward97_1D with the split parity made
// explicit: even=true is cas=0 (low-pass at even indices), even=false is
// cas=1. See Forward53_1DWithParity for why tile-component origin parity
// matters.
func Forward97_1DWithParity(data []float64, even bool) {
	n := len(data)
	if n <= 1 {
		return
	}

	sn, dn := splitCounts97(n, even)
	lowAt, highAt := int32(0), int32(1)
	if !even {
		lowAt, highAt = 1, 0
	}

	applyLiftingTap(data, lowAt, highAt+1, dn, min32(dn, sn-highAt), tapPredict1)
	applyLiftingTap(data, highAt, lowAt+1, sn, min32(sn, dn-lowAt), tapUpdate1)
	applyLiftingTap(data, lowAt, highAt+1, dn, min32(dn, sn-highAt), tapPredict2)
	applyLiftingTap(data, highAt, lowAt+1, sn, min32(sn, dn-lowAt), tapUpdate2)

	if lowAt == 0 {
		scaleInterleaved(data, sn, dn, normHigh, normLow)
	} else {
		scaleInterleaved(data, dn, sn, normLow, normHigh)
	}

	deinterleave97(data, dn, sn, even)
}

// splitCounts97 returns the low-pass (sn) and high-pass (dn) sample counts
// for a split of n samples at the given parity.
func splitCounts97(n int, even bool) (sn, dn int32) {
	if even {
		sn = int32((n + 1) >> 1)
	} else {
		sn = int32(n >> 1)
	}
	return sn, int32(n) - sn
}

// applyLiftingTap runs one lifting tap over interleaved data: every output
// sample at an odd offset from flStart/fwStart accumulates c times the sum
// of its two neighboring samples, with the sequence's first and (if out of
// lockstep) final samples handled as one-sided boundary cases.
func applyLiftingTap(data []float64, flStart, fwStart, end, m int32, c float64) {
	imax := min32(end, m)
	if imax > 0 {
		fw := fwStart
		fl := flStart
		data[fw-1] += (data[fl] + data[fw]) * c
		fw += 2
		for i := int32(1); i < imax; i++ {
			data[fw-1] += (data[fw-2] + data[fw]) * c
			fw += 2
		}
	}
	if m < end {
		fw := fwStart + 2*m
		data[fw-1] += 2 * data[fw-2] * c
	}
}

// scaleInterleaved multiplies the two interleaved sample streams by their
// respective normalization constants.
func scaleInterleaved(data []float64, itersC1, itersC2 int32, c1, c2 float64) {
	common := min32(itersC1, itersC2)
	var i, fw int32
	for ; i < common; i++ {
		data[fw] *= c1
		data[fw+1] *= c2
		fw += 2
	}
	switch {
	case i < itersC1:
		data[fw] *= c1
	case i < itersC2:
		data[fw+1] *= c2
	}
}

// deinterleave97 rewrites interleaved samples into [low-pass | high-pass]
// order.
func deinterleave97(data []float64, dn, sn int32, even bool) {
	out := make([]float64, dn+sn)
	if even {
		for i := int32(0); i < sn; i++ {
			out[i] = data[2*i]
		}
		for i := int32(0); i < dn; i++ {
			out[sn+i] = data[2*i+1]
		}
	} else {
		for i := int32(0); i < sn; i++ {
			out[i] = data[2*i+1]
		}
		for i := int32(0); i < dn; i++ {
			out[sn+i] = data[2*i]
		}
	}
	copy(data, out)
}

// interleave97 is the inverse of deinterleave97.
func interleave97(data []float64, dn, sn int32, even bool) {
	out := make([]float64, dn+sn)
	if even {
		for i := int32(0); i < sn; i++ {
			out[2*i] = data[i]
		}
		for i := int32(0); i < dn; i++ {
			out[2*i+1] = data[sn+i]
		}
	} else {
		for i := int32(0); i < sn; i++ {
			out[2*i+1] = data[i]
		}
		for i := int32(0); i < dn; i++ {
			out[2*i] = data[sn+i]
		}
	}
	copy(data, out)
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

// Inverse97_1D reconstructs the signal Forward97_1D produced (to floating
// point precision; the 9/7 path is irreversible).
func Inverse97_1D(data []float64) {
	Inverse97_1DWithParity(data, true)
}

// Inverse97_1DWithParity is Inverse97_1D with explicit split parity.
func Inverse97_1DWithParity(data []float64, even bool) {
	n := len(data)
	if n <= 1 {
		return
	}

	sn, dn := splitCounts97(n, even)
	lowAt, highAt := int32(0), int32(1)
	if !even {
		lowAt, highAt = 1, 0
	}

	interleave97(data, dn, sn, even)

	if lowAt == 0 {
		unscaleInterleaved(data, sn, dn, normHigh, normLow)
	} else {
		unscaleInterleaved(data, dn, sn, normLow, normHigh)
	}

	applyLiftingTap(data, highAt, lowAt+1, sn, min32(sn, dn-lowAt), -tapUpdate2)
	applyLiftingTap(data, lowAt, highAt+1, dn, min32(dn, sn-highAt), -tapPredict2)
	applyLiftingTap(data, highAt, lowAt+1, sn, min32(sn, dn-lowAt), -tapUpdate1)
	applyLiftingTap(data, lowAt, highAt+1, dn, min32(dn, sn-highAt), -tapPredict1)
}

// unscaleInterleaved is the inverse of scaleInterleaved.
func unscaleInterleaved(data []float64, itersC1, itersC2 int32, c1, c2 float64) {
	common := min32(itersC1, itersC2)
	var i, fw int32
	for ; i < common; i++ {
		data[fw] /= c1
		data[fw+1] /= c2
		fw += 2
	}
	switch {
	case i < itersC1:
		data[fw] /= c1
	case i < itersC2:
		data[fw+1] /= c2
	}
}

// Forward97_2D runs Forward97_1DWithParity over every column then every row
// of a w×h window inside a stride-wide buffer.
func Forward97_2D(data []float64, width, height, stride int) {
	Forward97_2DWithParity(data, width, height, stride, true, true)
}

// Forward97_2DWithParity is Forward97_2D with explicit row/column split
// parity; columns transform before rows.
func Forward97_2DWithParity(data []float64, width, height, stride int, evenRow, evenCol bool) {
	separable2D(data, width, height, stride, evenRow, evenCol, true, Forward97_1DWithParity)
}

// Inverse97_2D reconstructs the window Forward97_2D produced.
func Inverse97_2D(data []float64, width, height, stride int) {
	Inverse97_2DWithParity(data, width, height, stride, true, true)
}

// Inverse97_2DWithParity is Inverse97_2D with explicit split parity; rows
// transform before columns.
func Inverse97_2DWithParity(data []float64, width, height, stride int, evenRow, evenCol bool) {
	separable2D(data, width, height, stride, evenRow, evenCol, false, Inverse97_1DWithParity)
}

// ForwardMultilevel97 decomposes data into N levels of LL/HL/LH/HH subbands.
func ForwardMultilevel97(data []float64, width, height, levels int) {
	ForwardMultilevel97WithParity(data, width, height, levels, 0, 0)
}

// ForwardMultilevel97WithParity is ForwardMultilevel97 for a tile-component
// whose canvas origin is (x0, y0).
func ForwardMultilevel97WithParity(data []float64, width, height, levels int, x0, y0 int) {
	forwardMultilevel(data, width, height, levels, x0, y0, Forward97_2DWithParity)
}

// InverseMultilevel97 reconstructs the image ForwardMultilevel97 decomposed.
func InverseMultilevel97(data []float64, width, height, levels int) {
	InverseMultilevel97WithParity(data, width, height, levels, 0, 0)
}

// InverseMultilevel97WithParity is InverseMultilevel97 for a tile-component
// whose canvas origin is (x0, y0).
func InverseMultilevel97WithParity(data []float64, width, height, levels int, x0, y0 int) {
	inverseMultilevel(data, width, height, levels, x0, y0, Inverse97_2DWithParity)
}

// ConvertInt32ToFloat64 widens integer samples to float64 for the 9/7 path.
func ConvertInt32ToFloat64(data []int32) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

// ConvertFloat64ToInt32 rounds float64 samples back to the nearest integer.
func ConvertFloat64ToInt32(data []float64) []int32 {
	out := make([]int32, len(data))
	for i, v := range data {
		if v >= 0 {
			out[i] = int32(v + 0.5)
		} else {
			out[i] = int32(v - 0.5)
		}
	}
	return out
}
