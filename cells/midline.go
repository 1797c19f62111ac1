package cells

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// computeBounds returns the tight bounding box of all rectangles. An empty
// input yields a degenerate zero bound so downstream stages produce an empty
// result rather than an error.
func computeBounds(rects []orb.Bound) orb.Bound {
	if len(rects) == 0 {
		return orb.Bound{}
	}
	b := rects[0]
	for _, r := range rects[1:] {
		b = b.Union(r)
	}
	return b
}

// translateRects shifts every rectangle by (-dx, -dy). The pipeline uses it
// to move the minimum corner of the input to the origin, which keeps all
// later grid coordinates non-negative.
func translateRects(rects []orb.Bound, dx, dy float64) []orb.Bound {
	out := make([]orb.Bound, len(rects))
	for i, r := range rects {
		out[i] = orb.Bound{
			Min: orb.Point{r.Min[0] - dx, r.Min[1] - dy},
			Max: orb.Point{r.Max[0] - dx, r.Max[1] - dy},
		}
	}
	return out
}

// buildMidlines emits one container-spanning separator line for every
// unordered rectangle pair with a real gap on an axis. A pair disjoint on x
// contributes a vertical midline at the x gap midpoint; a pair disjoint on y
// contributes a horizontal midline at the y gap midpoint. A pair with gaps on
// both axes contributes both. Touching rectangles (gap within the coincidence
// tolerance) contribute nothing. O(n²) in the number of rectangles.
func buildMidlines(rects []orb.Bound, width, height float64, tol Tolerance) []midline {
	var mids []midline
	for i := 0; i < len(rects); i++ {
		for j := i + 1; j < len(rects); j++ {
			a, b := rects[i], rects[j]

			// Horizontal gap: a entirely left of b or vice versa.
			if gapMid, ok := gapMidpoint(a.Min[0], a.Max[0], b.Min[0], b.Max[0], tol); ok {
				mids = append(mids, midline{
					id:     len(mids),
					start:  orb.Point{gapMid, 0},
					end:    orb.Point{gapMid, height},
					orient: vertical,
					ownerA: i,
					ownerB: j,
				})
			}

			// Vertical gap: a entirely below b or vice versa.
			if gapMid, ok := gapMidpoint(a.Min[1], a.Max[1], b.Min[1], b.Max[1], tol); ok {
				mids = append(mids, midline{
					id:     len(mids),
					start:  orb.Point{0, gapMid},
					end:    orb.Point{width, gapMid},
					orient: horizontal,
					ownerA: i,
					ownerB: j,
				})
			}
		}
	}
	return mids
}

// gapMidpoint returns the midpoint of the gap between the intervals
// [aMin,aMax] and [bMin,bMax] if they are disjoint by more than the
// coincidence tolerance.
func gapMidpoint(aMin, aMax, bMin, bMax float64, tol Tolerance) (float64, bool) {
	switch {
	case bMin-aMax > tol.Coincidence:
		return (aMax + bMin) / 2, true
	case aMin-bMax > tol.Coincidence:
		return (bMax + aMin) / 2, true
	default:
		return 0, false
	}
}

// pointRectDistance returns the Euclidean distance from a point to the
// closest point of a rectangle (zero when the point is inside). The closest
// point is found by clamping the point's coordinates to the rectangle's
// extents.
func pointRectDistance(p orb.Point, r orb.Bound) float64 {
	closest := orb.Point{
		math.Min(math.Max(p[0], r.Min[0]), r.Max[0]),
		math.Min(math.Max(p[1], r.Min[1]), r.Max[1]),
	}
	return planar.Distance(p, closest)
}
