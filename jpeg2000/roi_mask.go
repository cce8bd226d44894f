package jpeg2000

import (
	"fmt"
	"sort"
)

// roiMask is a full-resolution per-component ROI bitmap.
type roiMask struct {
	width, height int
	data          []bool

	cache map[string][][]bool // downsampled blocks, keyed by "x0,y0,x1,y1,step"
}

func newROIMask(width, height int) *roiMask {
	return &roiMask{
		width:  width,
		height: height,
		data:   make([]bool, width*height),
		cache:  make(map[string][][]bool),
	}
}

func (m *roiMask) setRect(x0, y0, x1, y1 int) {
	if m == nil {
		return
	}
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, m.width), min(y1, m.height)
	for y := y0; y < y1; y++ {
		row := y * m.width
		for x := x0; x < x1; x++ {
			m.data[row+x] = true
		}
	}
}

func (m *roiMask) get(x, y int) bool {
	if m == nil || x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.data[y*m.width+x]
}

// downsample crops the mask to [x0,x1) x [y0,y1) and OR-reduces it into
// step x step blocks (step 1 leaves it unchanged).
func (m *roiMask) downsample(x0, y0, x1, y1, step int) [][]bool {
	if m == nil || step <= 0 {
		return nil
	}
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, m.width), min(y1, m.height)

	key := fmt.Sprintf("%d,%d,%d,%d,%d", x0, y0, x1, y1, step)
	if cached, ok := m.cache[key]; ok {
		return cached
	}

	outW := (x1 - x0 + step - 1) / step
	outH := (y1 - y0 + step - 1) / step
	out := make([][]bool, outH)
	for j := range out {
		out[j] = make([]bool, outW)
		for i := range out[j] {
			out[j][i] = m.anySetInBlock(x0+i*step, y0+j*step, step, x1, y1)
		}
	}
	m.cache[key] = out
	return out
}

func (m *roiMask) anySetInBlock(blockX0, blockY0, step, x1, y1 int) bool {
	blockX1 := min(blockX0+step, x1)
	blockY1 := min(blockY0+step, y1)
	for y := blockY0; y < blockY1; y++ {
		for x := blockX0; x < blockX1; x++ {
			if m.get(x, y) {
				return true
			}
		}
	}
	return false
}

// buildRectMasks constructs per-component masks from a rectangle list.
func buildRectMasks(width, height int, rects [][]roiRect) []*roiMask {
	if len(rects) == 0 {
		return nil
	}
	masks := make([]*roiMask, len(rects))
	for comp, rs := range rects {
		mask := newROIMask(width, height)
		for _, r := range rs {
			mask.setRect(r.x0, r.y0, r.x1, r.y1)
		}
		masks[comp] = mask
	}
	return masks
}

// boundingRectFromMask finds the bounding box of the set pixels in a
// bitmap, reporting false if none are set.
func boundingRectFromMask(mw, mh int, data []bool) (roiRect, bool) {
	if mw <= 0 || mh <= 0 || len(data) != mw*mh {
		return roiRect{}, false
	}
	minX, minY, maxX, maxY := mw, mh, 0, 0
	found := false
	for y := 0; y < mh; y++ {
		row := y * mw
		for x := 0; x < mw; x++ {
			if !data[row+x] {
				continue
			}
			if !found {
				minX, minY, maxX, maxY = x, y, x+1, y+1
				found = true
				continue
			}
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x+1), max(maxY, y+1)
		}
	}
	if !found {
		return roiRect{}, false
	}
	return roiRect{x0: minX, y0: minY, x1: maxX, y1: maxY}, true
}

// rasterizePolygon rasterizes a polygon into a mask using the even-odd
// rule, sampling each scanline at its vertical midpoint.
func rasterizePolygon(width, height int, pts []Point) *roiMask {
	if len(pts) < 3 {
		return nil
	}
	m := newROIMask(width, height)
	for y := 0; y < height; y++ {
		xs := scanlineCrossings(pts, float64(y)+0.5)
		fillSpans(m, y, xs, width)
	}
	return m
}

func scanlineCrossings(pts []Point, scanY float64) []int {
	var xs []int
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		y0, y1 := pts[i].Y, pts[j].Y
		if y0 == y1 {
			continue
		}
		lo, hi := float64(y0), float64(y1)
		if lo > hi {
			lo, hi = hi, lo
		}
		if scanY < lo || scanY >= hi {
			continue
		}
		t := (scanY - float64(y0)) / float64(y1-y0)
		x := float64(pts[i].X) + t*float64(pts[j].X-pts[i].X)
		xs = append(xs, int(x))
	}
	sort.Ints(xs)
	return xs
}

func fillSpans(m *roiMask, y int, xs []int, width int) {
	for i := 0; i+1 < len(xs); i += 2 {
		xStart := max(xs[i], 0)
		xEnd := min(xs[i+1], width)
		for x := xStart; x < xEnd; x++ {
			m.data[y*width+x] = true
		}
	}
}

// buildMasksFromConfig builds per-component masks from ROIConfig regions:
// resolved rectangles, plus optional polygon overlays.
func buildMasksFromConfig(width, height, components int, rects [][]roiRect, cfg *ROIConfig) []*roiMask {
	if cfg.IsEmpty() {
		return buildRectMasks(width, height, rects)
	}

	masks := make([]*roiMask, components)
	for comp := range masks {
		masks[comp] = newROIMask(width, height)
	}

	for i := range cfg.ROIs {
		roi := &cfg.ROIs[i]
		targets := roi.Components
		if len(targets) == 0 {
			targets = make([]int, components)
			for c := range targets {
				targets[c] = c
			}
		}

		var overlay *roiMask
		hasPolygon := len(roi.Polygon) >= 3
		if hasPolygon {
			overlay = rasterizePolygon(width, height, roi.Polygon)
		}
		// Bitmap masks fall back to their resolved bounding rectangle
		// until fine-grained block mapping is implemented.

		for _, comp := range targets {
			if comp < 0 || comp >= components {
				continue
			}
			switch {
			case hasPolygon && overlay != nil:
				unionInto(masks[comp], overlay)
			case roi.Rect != nil:
				masks[comp].setRect(roi.Rect.X0, roi.Rect.Y0, roi.Rect.X0+roi.Rect.Width, roi.Rect.Y0+roi.Rect.Height)
			}
		}
	}
	return masks
}

func unionInto(dst, src *roiMask) {
	for idx, v := range src.data {
		if v {
			dst.data[idx] = true
		}
	}
}
