package colorspace

import "math"

func round32(v float64) int32 {
	return int32(math.Round(v))
}

// ICTForward applies the irreversible color transform (JPEG 2000 ICT) to
// one R,G,B sample. Matches OpenJPEG: no 128 offset, input already
// level-shifted.
func ICTForward(r, g, b int32) (y, cb, cr int32) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	y = round32(0.299*rf + 0.587*gf + 0.114*bf)
	cb = round32(-0.16875*rf - 0.331260*gf + 0.5*bf)
	cr = round32(0.5*rf - 0.41869*gf - 0.08131*bf)
	return
}

// ICTInverse reverses ICTForward.
func ICTInverse(y, cb, cr int32) (r, g, b int32) {
	yf, cbf, crf := float64(y), float64(cb), float64(cr)
	r = round32(yf + 1.402*crf)
	g = round32(yf - 0.34413*cbf - 0.71414*crf)
	b = round32(yf + 1.772*cbf)
	return
}

// ApplyICTToComponents applies ICTForward across parallel R,G,B slices.
func ApplyICTToComponents(r, g, b []int32) (y, cb, cr []int32) {
	return mapTriple(r, g, b, ICTForward)
}

// ApplyInverseICTToComponents applies ICTInverse across parallel
// Y,Cb,Cr slices.
func ApplyInverseICTToComponents(y, cb, cr []int32) (r, g, b []int32) {
	return mapTriple(y, cb, cr, ICTInverse)
}
