package wavelet

// Le Gall 5/3 reversible wavelet filter (ISO/IEC 15444-1 Annex F.3), used by
// the lossless encode/decode path. All arithmetic is integer so the inverse
// reproduces the forward transform's input bit-for-bit.

// Forward53_1D splits data into a low-pass half followed by a high-pass half,
// with the low-pass subband starting at the even indices.
func Forward53_1D(data []int32) {
	Forward53_1DWithParity(data, true)
}

// Forward53_1DWithParity is Forward53_1D with the parity of the split made
// explicit: even=true starts the low-pass subband at index 0 (cas=0),
// even=false at index 1 (cas=1). Tile-components whose origin is odd need
// the cas=1 form so the global (canvas-absolute) phase of the transform
// stays consistent across tiles.
func Forward53_1DWithParity(data []int32, even bool) {
	n := len(data)
	if even {
		lift53ForwardCas0(data, n)
	} else {
		lift53ForwardCas1(data, n)
	}
}

// lift53ForwardCas0 is the cas=0 forward lifting pass: low-pass samples sit
// at even indices, high-pass at odd. Predict computes each high-pass sample
// from its two low-pass neighbors; update then folds the predicted
// high-pass values back into the low-pass samples.
func lift53ForwardCas0(data []int32, n int) {
	if n <= 1 {
		return
	}

	sn := int32((n + 1) >> 1)
	dn := int32(n) - sn
	hi := make([]int32, n)

	var i int32
	for ; i < sn-1; i++ {
		hi[sn+i] = data[2*i+1] - ((data[2*i] + data[2*(i+1)]) >> 1)
	}
	if n%2 == 0 {
		hi[sn+i] = data[2*i+1] - data[2*i]
	}

	data[0] += (hi[sn] + hi[sn] + 2) >> 2
	for i = 1; i < dn; i++ {
		data[i] = data[2*i] + ((hi[sn+i-1] + hi[sn+i] + 2) >> 2)
	}
	if n%2 == 1 {
		data[i] = data[2*i] + ((hi[sn+i-1] + hi[sn+i-1] + 2) >> 2)
	}

	copy(data[sn:], hi[sn:sn+dn])
}

// lift53ForwardCas1 is the cas=1 mirror of lift53ForwardCas0: low-pass
// samples sit at odd indices, high-pass at even.
func lift53ForwardCas1(data []int32, n int) {
	if n == 1 {
		data[0] *= 2
		return
	}

	sn := int32(n >> 1)
	dn := int32(n) - sn
	hi := make([]int32, n)

	hi[sn] = data[0] - data[1]
	var i int32
	for i = 1; i < sn; i++ {
		hi[sn+i] = data[2*i] - ((data[2*i+1] + data[2*(i-1)+1]) >> 1)
	}
	if n%2 == 1 {
		hi[sn+i] = data[2*i] - data[2*(i-1)+1]
	}

	for i = 0; i < dn-1; i++ {
		data[i] = data[2*i+1] + ((hi[sn+i] + hi[sn+i+1] + 2) >> 2)
	}
	if n%2 == 0 {
		data[i] = data[2*i+1] + ((hi[sn+i] + hi[sn+i] + 2) >> 2)
	}

	copy(data[sn:], hi[sn:sn+dn])
}

// Inverse53_1D reconstructs the signal Forward53_1D produced.
func Inverse53_1D(data []int32) {
	Inverse53_1DWithParity(data, true)
}

// Inverse53_1DWithParity is Inverse53_1D with explicit split parity; see
// Forward53_1DWithParity.
func Inverse53_1DWithParity(data []int32, even bool) {
	n := len(data)
	if even {
		lift53InverseCas0(data, n)
	} else {
		lift53InverseCas1(data, n)
	}
}

// lift53InverseCas0 reverses lift53ForwardCas0: undo the update step then
// the predict step, walking both subbands in lockstep so the result can be
// written back in natural sample order without a second buffer pass.
func lift53InverseCas0(data []int32, n int) {
	if n <= 1 {
		return
	}

	sn := int32((n + 1) >> 1)
	out := make([]int32, n)

	var lowNext, highNext, highCur, lowCur, lowPrev int32
	lowNext = data[0]
	highNext = data[sn]
	lowPrev = lowNext - ((highNext + 1) >> 1)

	var i, j int32
	for i, j = 0, 1; i < int32(n)-3; i, j = i+2, j+1 {
		highCur = highNext
		lowCur = lowPrev

		lowNext = data[j]
		highNext = data[sn+j]
		lowPrev = lowNext - ((highCur + highNext + 2) >> 2)

		out[i] = lowCur
		out[i+1] = highCur + ((lowCur + lowPrev) >> 1)
	}
	out[i] = lowPrev

	if n&1 != 0 {
		out[n-1] = data[(n-1)/2] - ((highNext + 1) >> 1)
		out[n-2] = highNext + ((lowPrev + out[n-1]) >> 1)
	} else {
		out[n-1] = highNext + lowPrev
	}

	copy(data, out)
}

// lift53InverseCas1 reverses lift53ForwardCas1.
func lift53InverseCas1(data []int32, n int) {
	if n == 1 {
		data[0] /= 2
		return
	}
	if n == 2 {
		h := data[0] - ((data[1] + 1) >> 1)
		l := data[1] + h
		data[0], data[1] = l, h
		return
	}

	sn := int32(n >> 1)
	out := make([]int32, n)

	low1 := data[sn+1]
	highCur := data[0] - ((data[sn] + low1 + 2) >> 2)
	out[0] = data[sn] + highCur

	trailingIsEven := int32(0)
	if n&1 == 0 {
		trailingIsEven = 1
	}
	limit := int32(n) - 2 - trailingIsEven

	var i, j int32
	var highNext int32
	for i, j = 1, 1; i < limit; i, j = i+2, j+1 {
		low2 := data[sn+j+1]
		highNext = data[j] - ((low1 + low2 + 2) >> 2)
		out[i] = highCur
		out[i+1] = low1 + ((highNext + highCur) >> 1)
		highCur = highNext
		low1 = low2
	}
	out[i] = highCur

	if n&1 == 0 {
		highNext = data[n/2-1] - ((low1 + 1) >> 1)
		out[n-2] = low1 + ((highNext + highCur) >> 1)
		out[n-1] = highNext
	} else {
		out[n-1] = low1 + highCur
	}

	copy(data, out)
}

// Forward53_2D runs Forward53_1DWithParity over every column then every row
// of a w×h window inside a stride-wide buffer.
func Forward53_2D(data []int32, width, height, stride int) {
	Forward53_2DWithParity(data, width, height, stride, true, true)
}

// Forward53_2DWithParity is Forward53_2D with explicit row/column split
// parity. Columns transform before rows, matching the vertical-then-
// horizontal pass order ISO/IEC 15444-1 Annex F specifies.
func Forward53_2DWithParity(data []int32, width, height, stride int, evenRow, evenCol bool) {
	separable2D(data, width, height, stride, evenRow, evenCol, true, Forward53_1DWithParity)
}

// Inverse53_2D reconstructs the window Forward53_2D produced.
func Inverse53_2D(data []int32, width, height, stride int) {
	Inverse53_2DWithParity(data, width, height, stride, true, true)
}

// Inverse53_2DWithParity is Inverse53_2D with explicit split parity; rows
// transform before columns, the reverse of the forward order.
func Inverse53_2DWithParity(data []int32, width, height, stride int, evenRow, evenCol bool) {
	separable2D(data, width, height, stride, evenRow, evenCol, false, Inverse53_1DWithParity)
}

// ForwardMultilevel decomposes data into N levels of LL/HL/LH/HH subbands,
// re-decomposing only the LL subband at each successive level.
func ForwardMultilevel(data []int32, width, height, levels int) {
	ForwardMultilevelWithParity(data, width, height, levels, 0, 0)
}

// ForwardMultilevelWithParity is ForwardMultilevel for a tile-component
// whose canvas origin is (x0, y0), which determines each level's split
// parity.
func ForwardMultilevelWithParity(data []int32, width, height, levels int, x0, y0 int) {
	forwardMultilevel(data, width, height, levels, x0, y0, Forward53_2DWithParity)
}

// InverseMultilevel reconstructs the image ForwardMultilevel decomposed,
// coarsest level first.
func InverseMultilevel(data []int32, width, height, levels int) {
	InverseMultilevelWithParity(data, width, height, levels, 0, 0)
}

// InverseMultilevelWithParity is InverseMultilevel for a tile-component
// whose canvas origin is (x0, y0).
func InverseMultilevelWithParity(data []int32, width, height, levels int, x0, y0 int) {
	inverseMultilevel(data, width, height, levels, x0, y0, Inverse53_2DWithParity)
}
