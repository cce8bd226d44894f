package jpeg2000

import (
	"fmt"

	"github.com/raster-lab/j2kswift/jpeg2000/codestream"
)

// tileRect is a clipped, image-local tile rectangle: [X0,X1) x [Y0,Y1).
type tileRect struct {
	X0, Y0, X1, Y1 int
}

func (r tileRect) width() int  { return r.X1 - r.X0 }
func (r tileRect) height() int { return r.Y1 - r.Y0 }

// TileLayout computes the tile grid implied by a SIZ segment: tile count,
// per-tile bounds (clipped at the image edge), and per-tile size.
type TileLayout struct {
	imageX0, imageY0 int
	imageX1, imageY1 int
	imageWidth       int
	imageHeight      int

	tileWidth, tileHeight   int
	tileOffsetX, tileOffsetY int

	numTilesX, numTilesY int
}

// NewTileLayout derives a tile layout from an image-and-tile-size segment.
func NewTileLayout(siz *codestream.SIZSegment) *TileLayout {
	x0, y0, x1, y1 := int(siz.XOsiz), int(siz.YOsiz), int(siz.Xsiz), int(siz.Ysiz)
	tl := &TileLayout{
		imageX0: x0, imageY0: y0, imageX1: x1, imageY1: y1,
		imageWidth:  x1 - x0,
		imageHeight: y1 - y0,
		tileWidth:   int(siz.XTsiz),
		tileHeight:  int(siz.YTsiz),
		tileOffsetX: int(siz.XTOsiz),
		tileOffsetY: int(siz.YTOsiz),
	}
	tl.numTilesX = ceilDiv(tl.imageX1-tl.tileOffsetX, tl.tileWidth)
	tl.numTilesY = ceilDiv(tl.imageY1-tl.tileOffsetY, tl.tileHeight)
	return tl
}

// TileCount returns the total number of tiles in the grid.
func (tl *TileLayout) TileCount() int { return tl.numTilesX * tl.numTilesY }

// GetTileCount is retained for callers expecting the original accessor name.
func (tl *TileLayout) GetTileCount() int { return tl.TileCount() }

func (tl *TileLayout) rect(tileIdx int) tileRect {
	tileX := tileIdx % tl.numTilesX
	tileY := tileIdx / tl.numTilesX

	gridX0 := tileX*tl.tileWidth + tl.tileOffsetX
	gridY0 := tileY*tl.tileHeight + tl.tileOffsetY
	gridX1 := gridX0 + tl.tileWidth
	gridY1 := gridY0 + tl.tileHeight

	return tileRect{
		X0: clampInt(gridX0, tl.imageX0, tl.imageX1) - tl.imageX0,
		Y0: clampInt(gridY0, tl.imageY0, tl.imageY1) - tl.imageY0,
		X1: clampInt(gridX1, tl.imageX0, tl.imageX1) - tl.imageX0,
		Y1: clampInt(gridY1, tl.imageY0, tl.imageY1) - tl.imageY0,
	}
}

// GetTileBounds returns a tile's image-local bounds: (x0,y0) inclusive,
// (x1,y1) exclusive. An out-of-range index yields all zeros.
func (tl *TileLayout) GetTileBounds(tileIdx int) (x0, y0, x1, y1 int) {
	if tileIdx < 0 || tileIdx >= tl.TileCount() {
		return 0, 0, 0, 0
	}
	r := tl.rect(tileIdx)
	return r.X0, r.Y0, r.X1, r.Y1
}

// GetTileSize returns a tile's actual (possibly edge-clipped) dimensions.
func (tl *TileLayout) GetTileSize(tileIdx int) (width, height int) {
	x0, y0, x1, y1 := tl.GetTileBounds(tileIdx)
	return x1 - x0, y1 - y0
}

// TileAssembler copies decoded per-component tile buffers into their place
// in the full image raster.
type TileAssembler struct {
	layout     *TileLayout
	components int
	imageData  [][]int32 // [component][pixel]
}

// NewTileAssembler allocates an assembler sized for siz's image grid.
func NewTileAssembler(siz *codestream.SIZSegment) *TileAssembler {
	layout := NewTileLayout(siz)
	ta := &TileAssembler{layout: layout, components: int(siz.Csiz)}

	numPixels := layout.imageWidth * layout.imageHeight
	ta.imageData = make([][]int32, ta.components)
	for i := range ta.imageData {
		ta.imageData[i] = make([]int32, numPixels)
	}
	return ta
}

// AssembleTile copies a decoded tile's per-component samples into the
// image raster at the tile's grid position.
func (ta *TileAssembler) AssembleTile(tileIdx int, tileData [][]int32) error {
	if err := ta.ValidateTileIndex(tileIdx); err != nil {
		return err
	}
	if len(tileData) != ta.components {
		return fmt.Errorf("tile has %d components, expected %d", len(tileData), ta.components)
	}

	r := ta.layout.rect(tileIdx)
	expected := r.width() * r.height()
	for c, data := range tileData {
		if len(data) != expected {
			return fmt.Errorf("component %d: tile data size %d, expected %d", c, len(data), expected)
		}
	}

	for c, data := range tileData {
		dst := ta.imageData[c]
		for ty := 0; ty < r.height(); ty++ {
			srcOff := ty * r.width()
			dstOff := (r.Y0+ty)*ta.layout.imageWidth + r.X0
			copy(dst[dstOff:dstOff+r.width()], data[srcOff:srcOff+r.width()])
		}
	}
	return nil
}

// GetImageData returns the assembled per-component image raster.
func (ta *TileAssembler) GetImageData() [][]int32 { return ta.imageData }

// GetImageDimensions returns the full assembled image's width and height.
func (ta *TileAssembler) GetImageDimensions() (width, height int) {
	return ta.layout.imageWidth, ta.layout.imageHeight
}

// GetTileLayout returns the assembler's tile grid layout.
func (ta *TileAssembler) GetTileLayout() *TileLayout { return ta.layout }

// ValidateTileIndex reports whether tileIdx addresses a tile in the grid.
func (ta *TileAssembler) ValidateTileIndex(tileIdx int) error {
	switch {
	case tileIdx < 0:
		return fmt.Errorf("tile index cannot be negative: %d", tileIdx)
	case tileIdx >= ta.layout.TileCount():
		return fmt.Errorf("tile index %d out of range (0-%d)", tileIdx, ta.layout.TileCount()-1)
	default:
		return nil
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	if a >= 0 {
		return (a + b - 1) / b
	}
	return a / b
}
