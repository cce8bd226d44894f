// Package wavelet implements the separable discrete wavelet transforms used
// by the JPEG 2000 core pipeline: the reversible 5/3 integer filter and the
// irreversible 9/7 floating-point filter (ISO/IEC 15444-1 Annex F).
package wavelet

// numeric is the set of sample types a 1D lifting kernel may operate on:
// int32 for the reversible 5/3 path, float64 for the irreversible 9/7 path.
type numeric interface {
	~int32 | ~float64
}

// kernel1D is a single lifting pass over an extracted row or column. even
// selects which parity (cas=0/cas=1) the low-pass subband starts at.
type kernel1D[T numeric] func(line []T, even bool)

// separable2D applies a 1D kernel to every column of a strided w×h window
// and then to every row, or the reverse for a decode direction — the caller
// supplies the order via columnsFirst. stride is the row pitch of the
// backing buffer, which stays fixed across decomposition levels even as the
// active window shrinks to the parent LL subband.
func separable2D[T numeric](data []T, width, height, stride int, evenRow, evenCol bool, columnsFirst bool, k kernel1D[T]) {
	if width <= 1 && height <= 1 {
		return
	}

	transformColumns := func() {
		if height <= 1 {
			return
		}
		col := make([]T, height)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				col[y] = data[y*stride+x]
			}
			k(col, evenCol)
			for y := 0; y < height; y++ {
				data[y*stride+x] = col[y]
			}
		}
	}

	transformRows := func() {
		if width <= 1 {
			return
		}
		row := make([]T, width)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				row[x] = data[y*stride+x]
			}
			k(row, evenRow)
			for x := 0; x < width; x++ {
				data[y*stride+x] = row[x]
			}
		}
	}

	if columnsFirst {
		transformColumns()
		transformRows()
	} else {
		transformRows()
		transformColumns()
	}
}

// window tracks the active LL region of a multilevel decomposition: its
// extent and the parity-determining origin of the next level down.
type window struct {
	width, height int
	x0, y0        int
}

// lowpassWindows expands the sequence of LL windows a forward transform
// visits, coarsest window last — levelWidths[0] is the full tile-component,
// levelWidths[levels] is the final LL extent.
func lowpassWindows(width, height, levels, x0, y0 int) []window {
	windows := make([]window, levels+1)
	windows[0] = window{width, height, x0, y0}
	for i := 1; i <= levels; i++ {
		prev := windows[i-1]
		windows[i] = window{
			width:  splitLengths(prev.width, isEven(prev.x0)),
			height: splitLengths(prev.height, isEven(prev.y0)),
			x0:     nextCoord(prev.x0),
			y0:     nextCoord(prev.y0),
		}
	}
	return windows
}

// forwardMultilevel repeatedly decomposes the shrinking LL window in place,
// keeping the original row stride fixed across levels.
func forwardMultilevel[T numeric](data []T, width, height, levels, x0, y0 int, twoD func(data []T, w, h, stride int, evenRow, evenCol bool)) {
	stride := width
	w, h := width, height
	cx, cy := x0, y0
	for level := 0; level < levels; level++ {
		if w <= 1 && h <= 1 {
			break
		}
		twoD(data, w, h, stride, isEven(cx), isEven(cy))
		next := lowpassWindows(w, h, 1, cx, cy)[1]
		w, h, cx, cy = next.width, next.height, next.x0, next.y0
	}
}

// inverseMultilevel reconstructs from the coarsest LL window back out to
// the full tile-component, the mirror image of forwardMultilevel.
func inverseMultilevel[T numeric](data []T, width, height, levels, x0, y0 int, twoD func(data []T, w, h, stride int, evenRow, evenCol bool)) {
	stride := width
	windows := lowpassWindows(width, height, levels, x0, y0)
	for level := levels - 1; level >= 0; level-- {
		w := windows[level]
		twoD(data, w.width, w.height, stride, isEven(w.x0), isEven(w.y0))
	}
}

// LLDimensions returns the low-low (LL) subband dimensions after a multilevel
// decomposition with origin (0,0).
func LLDimensions(width, height, levels int) (llWidth, llHeight int) {
	return LLDimensionsWithParity(width, height, levels, 0, 0)
}

// LLDimensionsWithParity returns the LL subband dimensions after a multilevel
// decomposition for an arbitrary image origin (x0,y0).
func LLDimensionsWithParity(width, height, levels int, x0, y0 int) (llWidth, llHeight int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if levels <= 0 {
		return width, height
	}

	w, h, cx, cy := width, height, x0, y0
	for level := 0; level < levels; level++ {
		if w <= 1 && h <= 1 {
			break
		}
		next := lowpassWindows(w, h, 1, cx, cy)[1]
		w, h, cx, cy = next.width, next.height, next.x0, next.y0
	}
	return w, h
}

// splitLengths returns how many samples of an n-length line fall on the
// low-pass side of a lifting split at the given parity.
func splitLengths(n int, even bool) int {
	if even {
		return (n + 1) / 2
	}
	return n / 2
}

// isEven reports whether value is an even coordinate, i.e. whether a split
// starting there is cas=0.
func isEven(value int) bool {
	return value&1 == 0
}

// nextCoord derives the next decomposition level's origin coordinate from
// the current one.
func nextCoord(value int) int {
	return (value + 1) >> 1
}
