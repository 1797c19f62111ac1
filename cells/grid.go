package cells

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// segmentCrossesRect reports whether a segment cuts through a rectangle's
// interior: either endpoint lies strictly inside the rectangle, or the
// segment intersects one of its four edges. Segments that merely run along
// a rectangle edge are collinear with it and are not flagged (the
// intersection test skips near-parallel pairs).
func segmentCrossesRect(a, b orb.Point, r orb.Bound, tol Tolerance) bool {
	if pointInsideRect(a, r, tol) || pointInsideRect(b, r, tol) {
		return true
	}

	corners := [4]orb.Point{
		{r.Min[0], r.Min[1]},
		{r.Max[0], r.Min[1]},
		{r.Max[0], r.Max[1]},
		{r.Min[0], r.Max[1]},
	}
	for i := 0; i < 4; i++ {
		if _, ok := lineIntersection(a, b, corners[i], corners[(i+1)%4], tol); ok {
			return true
		}
	}
	return false
}

// pointInsideRect reports whether the point lies in the rectangle's interior,
// shrunk by the coincidence tolerance so edge contact does not count.
func pointInsideRect(p orb.Point, r orb.Bound, tol Tolerance) bool {
	return p[0] > r.Min[0]+tol.Coincidence && p[0] < r.Max[0]-tol.Coincidence &&
		p[1] > r.Min[1]+tol.Coincidence && p[1] < r.Max[1]-tol.Coincidence
}

// filterValidSegments keeps only the segments that do not cut through any
// rectangle's interior. The survivors define the sparse grid.
func filterValidSegments(segs []segment, rects []orb.Bound, tol Tolerance) []segment {
	valid := segs[:0:0]
	for _, s := range segs {
		crosses := false
		for _, r := range rects {
			if segmentCrossesRect(s.start, s.end, r, tol) {
				crosses = true
				break
			}
		}
		if !crosses {
			valid = append(valid, s)
		}
	}
	return valid
}

// gridCoords collects the sorted, deduplicated coordinate sets induced by the
// valid segments plus the container's own edges: x coordinates of vertical
// segments and y coordinates of horizontal ones.
func gridCoords(valid []segment, width, height float64, tol Tolerance) (xs, ys []float64) {
	xs = []float64{0, width}
	ys = []float64{0, height}
	for _, s := range valid {
		if s.orient == vertical {
			xs = append(xs, s.fixedCoord())
		} else {
			ys = append(ys, s.fixedCoord())
		}
	}
	return dedupeSorted(xs, tol), dedupeSorted(ys, tol)
}

// dedupeSorted sorts the coordinates and collapses values that coincide
// within the tolerance.
func dedupeSorted(vals []float64, tol Tolerance) []float64 {
	sort.Float64s(vals)
	out := vals[:0]
	for _, v := range vals {
		if len(out) == 0 || v-out[len(out)-1] > tol.Coincidence {
			out = append(out, v)
		}
	}
	return out
}

// rectsOverlap reports whether two bounds share interior area beyond the
// coincidence tolerance. Edge or corner contact is not overlap.
func rectsOverlap(a, b orb.Bound, tol Tolerance) bool {
	return tol.positiveOverlap(a.Min[0], a.Max[0], b.Min[0], b.Max[0]) > 0 &&
		tol.positiveOverlap(a.Min[1], a.Max[1], b.Min[1], b.Max[1]) > 0
}

// buildGridRects forms the cell of every consecutive coordinate pair and
// keeps the cells that do not overlap any input rectangle. Each kept cell's
// merge priority is the minimum sampled distance among the valid segments
// lying on its edges; cells bounded only by container edges get +Inf and are
// merged last.
func buildGridRects(xs, ys []float64, valid []segment, rects []orb.Bound, tol Tolerance) []orb.Bound {
	var cells []orb.Bound
	for i := 0; i+1 < len(xs); i++ {
		for j := 0; j+1 < len(ys); j++ {
			cell := orb.Bound{
				Min: orb.Point{xs[i], ys[j]},
				Max: orb.Point{xs[i+1], ys[j+1]},
			}
			overlaps := false
			for _, r := range rects {
				if rectsOverlap(cell, r, tol) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				cells = append(cells, cell)
			}
		}
	}
	return cells
}

// cellPriority returns the minimum nearestDist among the valid segments that
// bound the cell. A segment bounds a cell when it is collinear with one of
// the cell's edges and overlaps that edge's span with positive length.
func cellPriority(cell orb.Bound, valid []segment, tol Tolerance) float64 {
	best := math.Inf(1)
	for _, s := range valid {
		if !segmentBoundsCell(s, cell, tol) {
			continue
		}
		if s.nearestDist < best {
			best = s.nearestDist
		}
	}
	return best
}

// segmentBoundsCell reports whether the segment lies on one of the cell's
// four edges with positive-length overlap.
func segmentBoundsCell(s segment, cell orb.Bound, tol Tolerance) bool {
	lo, hi := s.span()
	if s.orient == vertical {
		if !tol.coincident(s.fixedCoord(), cell.Min[0]) && !tol.coincident(s.fixedCoord(), cell.Max[0]) {
			return false
		}
		return tol.positiveOverlap(lo, hi, cell.Min[1], cell.Max[1]) > 0
	}
	if !tol.coincident(s.fixedCoord(), cell.Min[1]) && !tol.coincident(s.fixedCoord(), cell.Max[1]) {
		return false
	}
	return tol.positiveOverlap(lo, hi, cell.Min[0], cell.Max[0]) > 0
}

// containingRect returns the minimal grid-aligned rectangle enclosing r:
// the nearest grid line at or below each min extent and at or above each max
// extent. When no such line exists (a rectangle abutting the container edge)
// the grid's extreme line is used.
func containingRect(r orb.Bound, xs, ys []float64, tol Tolerance) orb.Bound {
	return orb.Bound{
		Min: orb.Point{snapDown(r.Min[0], xs, tol), snapDown(r.Min[1], ys, tol)},
		Max: orb.Point{snapUp(r.Max[0], xs, tol), snapUp(r.Max[1], ys, tol)},
	}
}

// snapDown picks the largest coordinate <= v (within tolerance), falling back
// to the smallest grid line.
func snapDown(v float64, coords []float64, tol Tolerance) float64 {
	best := coords[0]
	for _, c := range coords {
		if c <= v+tol.Coincidence && c > best {
			best = c
		}
	}
	return best
}

// snapUp picks the smallest coordinate >= v (within tolerance), falling back
// to the largest grid line.
func snapUp(v float64, coords []float64, tol Tolerance) float64 {
	best := coords[len(coords)-1]
	for _, c := range coords {
		if c >= v-tol.Coincidence && c < best {
			best = c
		}
	}
	return best
}
