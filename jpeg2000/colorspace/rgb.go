package colorspace

// RGBToYCbCr converts one RGB sample to JPEG 2000 ICT components (no 128
// offset). Input is expected to be level-shifted/signed.
func RGBToYCbCr(r, g, b int32) (y, cb, cr int32) {
	return ICTForward(r, g, b)
}

// YCbCrToRGB reverses RGBToYCbCr.
func YCbCrToRGB(y, cb, cr int32) (r, g, b int32) {
	return ICTInverse(y, cb, cr)
}

// ConvertComponentsRGBToYCbCr converts separate R,G,B slices to Y,Cb,Cr
// using ICT.
func ConvertComponentsRGBToYCbCr(r, g, b []int32) (y, cb, cr []int32) {
	return mapTriple(r, g, b, RGBToYCbCr)
}

// ConvertComponentsYCbCrToRGB converts Y,Cb,Cr slices back to R,G,B using
// the inverse ICT.
func ConvertComponentsYCbCrToRGB(y, cb, cr []int32) (r, g, b []int32) {
	return mapTriple(y, cb, cr, YCbCrToRGB)
}

// ConvertRGBToYCbCr converts interleaved RGB pixel data ([R0,G0,B0,...])
// into separate Y, Cb, Cr component arrays.
func ConvertRGBToYCbCr(rgb []int32, width, height int) (y, cb, cr []int32) {
	numPixels := width * height
	r := make([]int32, numPixels)
	g := make([]int32, numPixels)
	b := make([]int32, numPixels)
	for i := 0; i < numPixels; i++ {
		r[i], g[i], b[i] = rgb[i*3], rgb[i*3+1], rgb[i*3+2]
	}
	return ConvertComponentsRGBToYCbCr(r, g, b)
}

// ConvertYCbCrToRGB converts separate Y, Cb, Cr component arrays back
// into interleaved RGB pixel data.
func ConvertYCbCrToRGB(y, cb, cr []int32, width, height int) []int32 {
	r, g, b := ConvertComponentsYCbCrToRGB(y, cb, cr)
	numPixels := width * height
	rgb := make([]int32, numPixels*3)
	for i := 0; i < numPixels; i++ {
		rgb[i*3], rgb[i*3+1], rgb[i*3+2] = r[i], g[i], b[i]
	}
	return rgb
}

// InterleaveComponents interleaves per-component sample arrays
// ([[C0...], [C1...], ...]) into a single pixel-major array
// ([C0_p0, C1_p0, ..., C0_p1, C1_p1, ...]).
func InterleaveComponents(components [][]int32) []int32 {
	if len(components) == 0 {
		return nil
	}
	numComponents := len(components)
	numPixels := len(components[0])
	result := make([]int32, numPixels*numComponents)
	for p := 0; p < numPixels; p++ {
		for c := 0; c < numComponents; c++ {
			result[p*numComponents+c] = components[c][p]
		}
	}
	return result
}

// DeinterleaveComponents reverses InterleaveComponents.
func DeinterleaveComponents(data []int32, numComponents int) [][]int32 {
	if len(data) == 0 || numComponents == 0 {
		return nil
	}
	numPixels := len(data) / numComponents
	components := make([][]int32, numComponents)
	for c := range components {
		components[c] = make([]int32, numPixels)
	}
	for p := 0; p < numPixels; p++ {
		for c := 0; c < numComponents; c++ {
			components[c][p] = data[p*numComponents+c]
		}
	}
	return components
}
