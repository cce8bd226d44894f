package jpeg2000

// Point is an integer image coordinate.
type Point struct {
	X, Y int
}

// boundingRect computes the half-open axis-aligned bounding box
// enclosing every vertex of a polygon.
func boundingRect(pts []Point) roiRect {
	if len(pts) == 0 {
		return roiRect{}
	}
	minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return roiRect{x0: minX, y0: minY, x1: maxX + 1, y1: maxY + 1}
}
