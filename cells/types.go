package cells

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// Rect is an axis-aligned rectangle given by its extents. This is the single
// rectangle representation at the package boundary; the XYWH form accepted by
// layout files is converted once on load. The pipeline requires MinX < MaxX
// and MinY < MaxY and assumes rectangles do not overlap each other.
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// RectFromXYWH builds a Rect from an origin and a size.
func RectFromXYWH(x, y, width, height float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + width, MaxY: y + height}
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// bound converts the Rect to an orb.Bound for geometry work.
func (r Rect) bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.MinX, r.MinY},
		Max: orb.Point{r.MaxX, r.MaxY},
	}
}

// Point is a 2D coordinate. Points are compared with the pipeline's
// coincidence tolerance rather than exact equality.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is one boundary segment of the computed partition. Start is always
// lexicographically smaller than End (by X, then Y), and the slice returned
// by CalculateBoundaries is sorted by (Start, End) so equal inputs produce
// byte-identical output.
type Line struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// InvalidRectError reports a rectangle that fails input validation. The whole
// input is rejected before any geometry runs.
type InvalidRectError struct {
	Index  int
	Rect   Rect
	Reason string
}

func (e *InvalidRectError) Error() string {
	return fmt.Sprintf("rectangle %d is invalid (%s): minX=%g minY=%g maxX=%g maxY=%g",
		e.Index, e.Reason, e.Rect.MinX, e.Rect.MinY, e.Rect.MaxX, e.Rect.MaxY)
}

// ValidateRects checks every rectangle for strictly ordered, finite extents.
// It returns an *InvalidRectError for the first offending rectangle.
func ValidateRects(rects []Rect) error {
	for i, r := range rects {
		for _, v := range [4]float64{r.MinX, r.MinY, r.MaxX, r.MaxY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &InvalidRectError{Index: i, Rect: r, Reason: "non-finite coordinate"}
			}
		}
		if r.MinX >= r.MaxX {
			return &InvalidRectError{Index: i, Rect: r, Reason: "minX >= maxX"}
		}
		if r.MinY >= r.MaxY {
			return &InvalidRectError{Index: i, Rect: r, Reason: "minY >= maxY"}
		}
	}
	return nil
}

// sortedRects returns a copy of rects ordered by MinX, MinY, MaxX, MaxY.
// Group ids and merge tie-breaks derive from slice position, so every
// consumer of rectangle indices works from this canonical order.
func sortedRects(rects []Rect) []Rect {
	sorted := make([]Rect, len(rects))
	copy(sorted, rects)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.MinX != b.MinX {
			return a.MinX < b.MinX
		}
		if a.MinY != b.MinY {
			return a.MinY < b.MinY
		}
		if a.MaxX != b.MaxX {
			return a.MaxX < b.MaxX
		}
		return a.MaxY < b.MaxY
	})
	return sorted
}

// orientation distinguishes the two axis-aligned directions a midline or
// boundary segment can have.
type orientation int

const (
	horizontal orientation = iota
	vertical
)

// midline is a container-spanning candidate separator placed at the midpoint
// of the gap between two rectangles. Created once by buildMidlines and
// read-only afterward.
type midline struct {
	id     int
	start  orb.Point
	end    orb.Point
	orient orientation
	ownerA int // index of the first rectangle of the gap pair
	ownerB int // index of the second rectangle of the gap pair
}

// fixedCoord returns the coordinate the midline holds constant: x for a
// vertical midline, y for a horizontal one.
func (m midline) fixedCoord() float64 {
	if m.orient == vertical {
		return m.start[0]
	}
	return m.start[1]
}

// segment is a midline sub-segment produced by slicing at intersections.
// nearestDist is the sampled minimum distance to any input rectangle and
// later becomes the merge priority of the grid rects the segment bounds.
type segment struct {
	start       orb.Point
	end         orb.Point
	orient      orientation
	ownerA      int
	ownerB      int
	nearestDist float64
}

// fixedCoord returns the constant coordinate of the segment, mirroring
// midline.fixedCoord.
func (s segment) fixedCoord() float64 {
	if s.orient == vertical {
		return s.start[0]
	}
	return s.start[1]
}

// span returns the segment's extent along its free axis, low end first.
func (s segment) span() (lo, hi float64) {
	var a, b float64
	if s.orient == vertical {
		a, b = s.start[1], s.end[1]
	} else {
		a, b = s.start[0], s.end[0]
	}
	if a > b {
		return b, a
	}
	return a, b
}
