package cells

import (
	"fmt"
	"math"
	"sort"
)

// outlineSegment is a boundary edge between the cells of two different
// groups, prior to collinear merging.
type outlineSegment struct {
	orient orientation
	fixed  float64 // x for vertical, y for horizontal
	lo, hi float64 // span along the free axis
}

// extractOutlines walks every pair of grouped cells and, where two cells of
// different groups share an edge portion, emits that portion as an outline
// segment. A canonical key deduplicates edges contributed by more than one
// pair.
func extractOutlines(a *mergeArena) []outlineSegment {
	var out []outlineSegment
	seen := make(map[string]struct{})
	tol := a.tol

	add := func(s outlineSegment) {
		key := fmt.Sprintf("%d:%.3f:%.3f:%.3f", s.orient, s.fixed, s.lo, s.hi)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	for i := 0; i < len(a.cells); i++ {
		if a.cells[i].group < 0 {
			continue
		}
		for j := i + 1; j < len(a.cells); j++ {
			if a.cells[j].group < 0 || a.cells[j].group == a.cells[i].group {
				continue
			}
			x, y := a.cells[i].bound, a.cells[j].bound

			// Shared vertical edge.
			if edge, ok := sharedEdge(x.Max[0], y.Min[0], x.Min[1], x.Max[1], y.Min[1], y.Max[1], tol); ok {
				add(outlineSegment{orient: vertical, fixed: edge.fixed, lo: edge.lo, hi: edge.hi})
			} else if edge, ok := sharedEdge(y.Max[0], x.Min[0], x.Min[1], x.Max[1], y.Min[1], y.Max[1], tol); ok {
				add(outlineSegment{orient: vertical, fixed: edge.fixed, lo: edge.lo, hi: edge.hi})
			}

			// Shared horizontal edge.
			if edge, ok := sharedEdge(x.Max[1], y.Min[1], x.Min[0], x.Max[0], y.Min[0], y.Max[0], tol); ok {
				add(outlineSegment{orient: horizontal, fixed: edge.fixed, lo: edge.lo, hi: edge.hi})
			} else if edge, ok := sharedEdge(y.Max[1], x.Min[1], x.Min[0], x.Max[0], y.Min[0], y.Max[0], tol); ok {
				add(outlineSegment{orient: horizontal, fixed: edge.fixed, lo: edge.lo, hi: edge.hi})
			}
		}
	}
	return out
}

// edgeSpan is a resolved shared edge: its fixed coordinate and the
// overlapping span on the free axis.
type edgeSpan struct {
	fixed, lo, hi float64
}

// sharedEdge checks whether the edge coordinates ca and cb touch within the
// adjacency tolerance and the spans [aLo,aHi] and [bLo,bHi] overlap with
// positive length. The fixed coordinate of the result is the midpoint of the
// two touching edges.
func sharedEdge(ca, cb, aLo, aHi, bLo, bHi float64, tol Tolerance) (edgeSpan, bool) {
	if math.Abs(ca-cb) > tol.Adjacency {
		return edgeSpan{}, false
	}
	lo := math.Max(aLo, bLo)
	hi := math.Min(aHi, bHi)
	if hi-lo <= tol.Coincidence {
		return edgeSpan{}, false
	}
	return edgeSpan{fixed: (ca + cb) / 2, lo: lo, hi: hi}, true
}

// normalizeOutlines merges collinear, touching or overlapping outline
// segments into maximal runs and converts them to canonical Lines: each
// line's Start is lexicographically smaller than its End, and the result is
// sorted by (Start, End). The output is therefore deterministic and
// independent of input ordering.
func normalizeOutlines(segs []outlineSegment, tol Tolerance) []Line {
	// Group by orientation and quantized fixed coordinate so segments that
	// coincide within tolerance land in the same run set.
	type groupKey struct {
		orient orientation
		fixed  int64
	}
	groups := make(map[groupKey][]outlineSegment)
	for _, s := range segs {
		key := groupKey{s.orient, int64(math.Round(s.fixed / tol.Coincidence))}
		groups[key] = append(groups[key], s)
	}

	var lines []Line
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			if group[i].lo != group[j].lo {
				return group[i].lo < group[j].lo
			}
			return group[i].hi < group[j].hi
		})

		run := group[0]
		flush := func() {
			lines = append(lines, outlineToLine(run))
		}
		for _, s := range group[1:] {
			if s.lo <= run.hi+tol.Coincidence {
				if s.hi > run.hi {
					run.hi = s.hi
				}
				continue
			}
			flush()
			run = s
		}
		flush()
	}

	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Start.X != b.Start.X {
			return a.Start.X < b.Start.X
		}
		if a.Start.Y != b.Start.Y {
			return a.Start.Y < b.Start.Y
		}
		if a.End.X != b.End.X {
			return a.End.X < b.End.X
		}
		return a.End.Y < b.End.Y
	})
	return lines
}

// outlineToLine converts an outline segment to a Line with canonical endpoint
// order. The lo endpoint is always lexicographically smaller for axis-aligned
// segments.
func outlineToLine(s outlineSegment) Line {
	if s.orient == vertical {
		return Line{Start: Point{X: s.fixed, Y: s.lo}, End: Point{X: s.fixed, Y: s.hi}}
	}
	return Line{Start: Point{X: s.lo, Y: s.fixed}, End: Point{X: s.hi, Y: s.fixed}}
}

// translateLines shifts every line by (dx, dy), used to move results back to
// the caller's coordinate frame.
func translateLines(lines []Line, dx, dy float64) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{
			Start: Point{X: l.Start.X + dx, Y: l.Start.Y + dy},
			End:   Point{X: l.End.X + dx, Y: l.End.Y + dy},
		}
	}
	return out
}
