package jpeg2000

import "fmt"

// ROIStyle defines how a ROI is coded.
type ROIStyle int

const (
	ROIStyleMaxShift       ROIStyle = iota // MaxShift (ROI upshift)
	ROIStyleGeneralScaling                 // General Scaling (not yet implemented)
)

// ROIShape describes the geometry of a ROI.
type ROIShape int

const (
	ROIShapeRectangle ROIShape = iota // only shape currently supported
	ROIShapePolygon                   // planned, not yet implemented
	ROIShapeMask                      // accepts an external mask/bitmap, not yet implemented
)

// roiRect is an axis-aligned rectangle helper for ROI regions.
type roiRect struct {
	x0, y0 int
	x1, y1 int
}

func (r roiRect) intersects(x0, y0, x1, y1 int) bool {
	return r.x0 < x1 && x0 < r.x1 && r.y0 < y1 && y0 < r.y1
}

// ROIRegion describes one ROI entry. Only rectangular MaxShift is
// supported for now; polygon/mask fields exist to seed a future
// general-scaling implementation.
type ROIRegion struct {
	ID string

	Style ROIStyle
	Shape ROIShape

	// Rect is the rectangular ROI data (required for shape rectangle).
	Rect *ROIParams

	// Shift overrides Rect.Shift for MaxShift if > 0.
	Shift int

	// Scale is an alias for General Scaling k (same semantics as Shift);
	// if > 0 it overrides Shift.
	Scale int

	Polygon []Point

	MaskWidth  int
	MaskHeight int
	MaskData   []bool // row-major MaskWidth*MaskHeight

	// Components limits the ROI to certain component indices (empty = all).
	Components []int
}

// ROIConfig groups multiple ROI definitions and defaults.
type ROIConfig struct {
	ROIs []ROIRegion

	DefaultStyle ROIStyle
	DefaultShift int
}

// IsEmpty reports whether the config has no ROI entries.
func (cfg *ROIConfig) IsEmpty() bool {
	return cfg == nil || len(cfg.ROIs) == 0
}

// resolvedROI is the fully-defaulted form of one ROIRegion: style, shift,
// and bounding rectangle all filled in from either the region's own
// fields, the config defaults, or a polygon/mask bounding box.
type resolvedROI struct {
	style ROIStyle
	shift int
	rect  *ROIParams
}

func (cfg *ROIConfig) resolveRegion(roi *ROIRegion, imgWidth, imgHeight int) (resolvedROI, error) {
	hasPolygon := len(roi.Polygon) >= 3
	hasMask := len(roi.MaskData) > 0 && roi.MaskWidth > 0 && roi.MaskHeight > 0

	style := roi.Style
	if style == ROIStyleMaxShift && cfg.DefaultStyle != ROIStyleMaxShift {
		style = cfg.DefaultStyle
	}
	if hasMask {
		style = ROIStyleGeneralScaling
	}
	if style != ROIStyleMaxShift && style != ROIStyleGeneralScaling {
		return resolvedROI{}, fmt.Errorf("unsupported ROI style %v", style)
	}

	if roi.Shape != ROIShapeRectangle {
		return resolvedROI{}, fmt.Errorf("unsupported ROI shape %v (only rectangle is implemented)", roi.Shape)
	}

	rect := roi.Rect
	switch {
	case rect == nil && hasPolygon:
		b := boundingRect(roi.Polygon)
		rect = &ROIParams{X0: b.x0, Y0: b.y0, Width: b.x1 - b.x0, Height: b.y1 - b.y0}
	case rect == nil && hasMask:
		if b, ok := boundingRectFromMask(roi.MaskWidth, roi.MaskHeight, roi.MaskData); ok {
			rect = &ROIParams{X0: b.x0, Y0: b.y0, Width: b.x1 - b.x0, Height: b.y1 - b.y0}
		} else {
			rect = &ROIParams{X0: 0, Y0: 0, Width: imgWidth, Height: imgHeight}
		}
	}
	if rect == nil {
		return resolvedROI{}, fmt.Errorf("rectangle, polygon, or mask required")
	}

	shift := roi.Shift
	if roi.Scale > 0 {
		shift = roi.Scale
	}
	if shift <= 0 {
		shift = rect.Shift
	}
	if shift <= 0 {
		shift = cfg.DefaultShift
	}
	if shift <= 0 {
		return resolvedROI{}, fmt.Errorf("missing MaxShift/Scale value")
	}
	if shift > 255 {
		return resolvedROI{}, fmt.Errorf("shift %d exceeds 255", shift)
	}

	resolvedRect := &ROIParams{X0: rect.X0, Y0: rect.Y0, Width: rect.Width, Height: rect.Height, Shift: shift}
	if !resolvedRect.IsValid(imgWidth, imgHeight) {
		return resolvedROI{}, fmt.Errorf("invalid rectangle %+v", resolvedRect)
	}

	return resolvedROI{style: style, shift: shift, rect: resolvedRect}, nil
}

// Validate ensures current MVP constraints: rectangle + MaxShift/General
// Scaling only, with valid geometry and shift.
func (cfg *ROIConfig) Validate(imgWidth, imgHeight int) error {
	if cfg.IsEmpty() {
		return nil
	}
	for i := range cfg.ROIs {
		resolved, err := cfg.resolveRegion(&cfg.ROIs[i], imgWidth, imgHeight)
		if err != nil {
			return fmt.Errorf("ROI[%d]: %w", i, err)
		}
		cfg.ROIs[i].Rect = resolved.rect
	}
	return nil
}

// ResolveRectangles returns the Srgn style byte, per-component
// MaxShift/Scaling values, and rectangle lists. MVP: supports Srgn 0
// (MaxShift) or 1 (General Scaling) with rectangular geometry only.
func (cfg *ROIConfig) ResolveRectangles(imgWidth, imgHeight, components int) (byte, []int, [][]roiRect, error) {
	if cfg.IsEmpty() {
		return 0, nil, nil, nil
	}
	if components <= 0 {
		return 0, nil, nil, fmt.Errorf("invalid component count: %d", components)
	}

	shifts := make([]int, components)
	rectsByComp := make([][]roiRect, components)
	var srgn byte
	styleSet := false

	for i := range cfg.ROIs {
		resolved, err := cfg.resolveRegion(&cfg.ROIs[i], imgWidth, imgHeight)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("ROI[%d]: %w", i, err)
		}

		if !styleSet {
			srgn = byte(resolved.style)
			styleSet = true
		} else if srgn != byte(resolved.style) {
			return 0, nil, nil, fmt.Errorf("ROI[%d]: mixed ROI styles not supported (got %d vs %d)", i, resolved.style, srgn)
		}

		targets := cfg.ROIs[i].Components
		if len(targets) == 0 {
			targets = make([]int, components)
			for c := range targets {
				targets[c] = c
			}
		}

		for _, comp := range targets {
			if comp < 0 || comp >= components {
				return 0, nil, nil, fmt.Errorf("ROI[%d]: component index %d out of range", i, comp)
			}
			if resolved.shift > shifts[comp] {
				shifts[comp] = resolved.shift
			}
			rectsByComp[comp] = append(rectsByComp[comp], roiRect{
				x0: resolved.rect.X0,
				y0: resolved.rect.Y0,
				x1: resolved.rect.X0 + resolved.rect.Width,
				y1: resolved.rect.Y0 + resolved.rect.Height,
			})
		}
	}

	return srgn, shifts, rectsByComp, nil
}
