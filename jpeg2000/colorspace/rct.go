package colorspace

// RCTForward applies the Reversible Color Transform (ISO/IEC 15444-1
// Annex G.2) to one R,G,B sample, producing Y,Cb,Cr.
func RCTForward(r, g, b int32) (y, cb, cr int32) {
	y = (r + 2*g + b) >> 2
	cb = b - g
	cr = r - g
	return
}

// RCTInverse reverses RCTForward.
func RCTInverse(y, cb, cr int32) (r, g, b int32) {
	g = y - ((cb + cr) >> 2)
	r = cr + g
	b = cb + g
	return
}

// ApplyRCTToComponents applies RCTForward across parallel R,G,B slices.
func ApplyRCTToComponents(r, g, b []int32) (y, cb, cr []int32) {
	return mapTriple(r, g, b, RCTForward)
}

// ApplyInverseRCTToComponents applies RCTInverse across parallel
// Y,Cb,Cr slices.
func ApplyInverseRCTToComponents(y, cb, cr []int32) (r, g, b []int32) {
	return mapTriple(y, cb, cr, RCTInverse)
}
