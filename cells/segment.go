package cells

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// lineIntersection computes the intersection of the segments p1-p2 and p3-p4
// using the standard parametric form. It returns false when the segments are
// near-parallel (determinant magnitude below the tolerance) or when the
// intersection falls outside either segment.
func lineIntersection(p1, p2, p3, p4 orb.Point, tol Tolerance) (orb.Point, bool) {
	d1x := p2[0] - p1[0]
	d1y := p2[1] - p1[1]
	d2x := p4[0] - p3[0]
	d2y := p4[1] - p3[1]

	det := d1x*d2y - d1y*d2x
	if math.Abs(det) < tol.Determinant {
		return orb.Point{}, false
	}

	t := ((p3[0]-p1[0])*d2y - (p3[1]-p1[1])*d2x) / det
	u := ((p3[0]-p1[0])*d1y - (p3[1]-p1[1])*d1x) / det
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return orb.Point{}, false
	}

	return orb.Point{p1[0] + t*d1x, p1[1] + t*d1y}, true
}

// midlineIntersection computes the crossing point of two midlines. Midlines
// are axis-aligned, so a vertical and a horizontal one cross exactly at
// (x of the vertical, y of the horizontal); parallel pairs never cross. The
// point is built from the fixed coordinates, which makes it symmetric in the
// argument order.
func midlineIntersection(a, b midline) (orb.Point, bool) {
	if a.orient == b.orient {
		return orb.Point{}, false
	}
	v, h := a, b
	if v.orient != vertical {
		v, h = h, v
	}
	x := v.fixedCoord()
	y := h.fixedCoord()
	if x < h.start[0] || x > h.end[0] || y < v.start[1] || y > v.end[1] {
		return orb.Point{}, false
	}
	return orb.Point{x, y}, true
}

// findIntersections tests every pair of midlines and records the intersection
// points per midline, keyed by midline id. O(m²) in the midline count.
func findIntersections(mids []midline) map[int][]orb.Point {
	cuts := make(map[int][]orb.Point)
	for i := 0; i < len(mids); i++ {
		for j := i + 1; j < len(mids); j++ {
			p, ok := midlineIntersection(mids[i], mids[j])
			if !ok {
				continue
			}
			cuts[mids[i].id] = append(cuts[mids[i].id], p)
			cuts[mids[j].id] = append(cuts[mids[j].id], p)
		}
	}
	return cuts
}

// sliceMidlines cuts each midline at its intersection points. The cut points
// are sorted along the midline's free axis, the midline's own endpoints are
// added, and each consecutive pair becomes a sub-segment. Coincident cut
// points collapse into one; zero-length pieces are dropped. Every sub-segment
// records its sampled minimum distance to the rectangle set.
func sliceMidlines(mids []midline, cuts map[int][]orb.Point, rects []orb.Bound, tol Tolerance) []segment {
	var segs []segment
	for _, m := range mids {
		pts := append([]orb.Point{m.start}, cuts[m.id]...)
		pts = append(pts, m.end)

		free := 1 // vertical midline varies in y
		if m.orient == horizontal {
			free = 0
		}
		sort.Slice(pts, func(i, j int) bool {
			return pts[i][free] < pts[j][free]
		})

		prev := pts[0]
		for _, p := range pts[1:] {
			if p[free]-prev[free] <= tol.Coincidence {
				continue
			}
			segs = append(segs, segment{
				start:       prev,
				end:         p,
				orient:      m.orient,
				ownerA:      m.ownerA,
				ownerB:      m.ownerB,
				nearestDist: sampleNearestDistance(prev, p, rects, tol.Samples),
			})
			prev = p
		}
	}
	return segs
}

// sampleNearestDistance estimates a segment's distance to the nearest
// rectangle by sampling evenly spaced points along it and taking the minimum
// point-to-rectangle distance. Segments and rectangles are both axis-aligned,
// so the sampled minimum is a close bounded-error approximation of the true
// one.
func sampleNearestDistance(a, b orb.Point, rects []orb.Bound, samples int) float64 {
	if len(rects) == 0 {
		return math.Inf(1)
	}
	if samples < 2 {
		samples = 2
	}
	best := math.Inf(1)
	for i := 0; i < samples; i++ {
		t := float64(i) / float64(samples-1)
		p := orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		for _, r := range rects {
			if d := pointRectDistance(p, r); d < best {
				best = d
			}
		}
	}
	return best
}
