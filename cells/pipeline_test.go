package cells

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func lineEq(a, b Line, eps float64) bool {
	return math.Abs(a.Start.X-b.Start.X) <= eps &&
		math.Abs(a.Start.Y-b.Start.Y) <= eps &&
		math.Abs(a.End.X-b.End.X) <= eps &&
		math.Abs(a.End.Y-b.End.Y) <= eps
}

func assertLines(t *testing.T, got, want []Line) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if !lineEq(got[i], want[i], 1e-6) {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// ---------------------------------------------------------------------------
// exact layouts
// ---------------------------------------------------------------------------

func TestCalculateBoundaries_TwoRectsHorizontalGap(t *testing.T) {
	// Two rectangles separated by a pure horizontal gap: the boundary is one
	// vertical segment at the gap midpoint spanning the shared y extent.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 0, MaxX: 300, MaxY: 100},
	}

	lines, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}

	assertLines(t, lines, []Line{
		{Start: Point{X: 150, Y: 0}, End: Point{X: 150, Y: 100}},
	})
}

func TestCalculateBoundaries_DiagonalOffset(t *testing.T) {
	// Gap on both axes but overlapping y extents: one vertical segment at the
	// x midpoint spanning the full combined y range.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 75, MaxX: 300, MaxY: 175},
	}

	lines, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}

	assertLines(t, lines, []Line{
		{Start: Point{X: 150, Y: 0}, End: Point{X: 150, Y: 175}},
	})
}

func TestCalculateBoundaries_ThreeRectsStaggered(t *testing.T) {
	// Three rectangles in a row with staggered vertical extents. The middle
	// rectangle invalidates the midline between the outer pair (it would cut
	// through its interior), leaving exactly two parallel vertical boundaries
	// spanning the combined vertical extent.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 50, MaxX: 300, MaxY: 150},
		{MinX: 400, MinY: 0, MaxX: 500, MaxY: 100},
	}

	lines, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}

	assertLines(t, lines, []Line{
		{Start: Point{X: 150, Y: 0}, End: Point{X: 150, Y: 150}},
		{Start: Point{X: 350, Y: 0}, End: Point{X: 350, Y: 150}},
	})
}

func TestCalculateBoundaries_FourRectGrid(t *testing.T) {
	// Four rectangles in a 2x2 arrangement: the boundary network is a cross,
	// with the partial per-pair outlines merged into two maximal runs.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 0, MaxX: 300, MaxY: 100},
		{MinX: 0, MinY: 200, MaxX: 100, MaxY: 300},
		{MinX: 200, MinY: 200, MaxX: 300, MaxY: 300},
	}

	lines, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}

	assertLines(t, lines, []Line{
		{Start: Point{X: 0, Y: 150}, End: Point{X: 300, Y: 150}},
		{Start: Point{X: 150, Y: 0}, End: Point{X: 150, Y: 300}},
	})
}

func TestCalculateBoundaries_StaggeredPairBothGaps(t *testing.T) {
	// A pair with gaps on both axes and disjoint extents everywhere: the
	// region merge assigns each empty pocket to the nearer rectangle and the
	// resulting boundary collapses to a single full-height vertical line.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 150, MaxX: 300, MaxY: 250},
	}

	lines, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}

	assertLines(t, lines, []Line{
		{Start: Point{X: 150, Y: 0}, End: Point{X: 150, Y: 250}},
	})
}

func TestCalculateBoundaries_NegativeCoordinates(t *testing.T) {
	// The same two-rect layout shifted into negative space: the pipeline
	// translates to the origin internally and translates the result back.
	rects := []Rect{
		{MinX: -500, MinY: -500, MaxX: -400, MaxY: -400},
		{MinX: -300, MinY: -500, MaxX: -200, MaxY: -400},
	}

	lines, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}

	assertLines(t, lines, []Line{
		{Start: Point{X: -350, Y: -500}, End: Point{X: -350, Y: -400}},
	})
}

func TestCalculateBoundaries_ContainerOverride(t *testing.T) {
	// An explicit container height extends the midlines and therefore the
	// boundary beyond the rectangles' own extent.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 0, MaxX: 300, MaxY: 100},
	}

	lines, err := CalculateBoundariesWithOptions(rects, Options{ContainerHeight: 200})
	if err != nil {
		t.Fatalf("CalculateBoundariesWithOptions: %v", err)
	}

	assertLines(t, lines, []Line{
		{Start: Point{X: 150, Y: 0}, End: Point{X: 150, Y: 200}},
	})
}

// ---------------------------------------------------------------------------
// contract properties
// ---------------------------------------------------------------------------

func TestCalculateBoundaries_OrderIndependence(t *testing.T) {
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 50, MaxX: 300, MaxY: 150},
		{MinX: 400, MinY: 0, MaxX: 500, MaxY: 100},
	}

	want, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}

	perms := [][]int{{0, 2, 1}, {1, 0, 2}, {2, 1, 0}, {1, 2, 0}, {2, 0, 1}}
	for _, perm := range perms {
		shuffled := make([]Rect, len(rects))
		for i, p := range perm {
			shuffled[i] = rects[p]
		}
		got, err := CalculateBoundaries(shuffled)
		if err != nil {
			t.Fatalf("CalculateBoundaries(%v): %v", perm, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("permutation %v changed output:\ngot  %+v\nwant %+v", perm, got, want)
		}
	}
}

func TestCalculateBoundaries_OrderIndependenceEqualDistancePockets(t *testing.T) {
	// A symmetric diagonal pair with fractional extents. Both empty pockets
	// are exactly equidistant from the two rectangles, so the pocket
	// assignment rests entirely on the tie-break; the result must not depend
	// on which rectangle the caller lists first.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100.25, MaxY: 100.25},
		{MinX: 200.5, MinY: 200.5, MaxX: 300.75, MaxY: 300.75},
	}

	want, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}
	assertLines(t, want, []Line{
		{Start: Point{X: 150.375, Y: 150.375}, End: Point{X: 150.375, Y: 300.75}},
		{Start: Point{X: 150.375, Y: 150.375}, End: Point{X: 300.75, Y: 150.375}},
	})

	got, err := CalculateBoundaries([]Rect{rects[1], rects[0]})
	if err != nil {
		t.Fatalf("CalculateBoundaries (reversed): %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reversed input changed output:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestCalculateBoundaries_OrderIndependenceFractional(t *testing.T) {
	// Staggered layout with fractional extents, permuted every which way.
	// Outputs must match bit for bit, not merely within a tolerance.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 80.5, MaxY: 120.25},
		{MinX: 160.75, MinY: 40.5, MaxX: 260.25, MaxY: 140.75},
		{MinX: 20.25, MinY: 200.5, MaxX: 120.75, MaxY: 300.25},
		{MinX: 180.5, MinY: 220.75, MaxX: 300.25, MaxY: 320.5},
	}

	want, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}
	if len(want) == 0 {
		t.Fatal("expected a non-empty boundary network")
	}

	perms := [][]int{
		{3, 2, 1, 0}, {1, 0, 3, 2}, {2, 3, 0, 1},
		{0, 2, 1, 3}, {3, 0, 2, 1}, {1, 3, 0, 2},
	}
	for _, perm := range perms {
		shuffled := make([]Rect, len(rects))
		for i, p := range perm {
			shuffled[i] = rects[p]
		}
		got, err := CalculateBoundaries(shuffled)
		if err != nil {
			t.Fatalf("CalculateBoundaries(%v): %v", perm, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("permutation %v changed output:\ngot  %+v\nwant %+v", perm, got, want)
		}
	}
}

func TestCalculateBoundaries_PartitionCompleteness(t *testing.T) {
	// After the merge, every arena cell belongs to some rectangle's group,
	// every group is populated, and the cells tile the container: pairwise
	// disjoint with areas summing to the container area.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 150, MaxX: 300, MaxY: 250},
	}
	const width, height = 300.0, 250.0
	tol := DefaultTolerance()

	bounds := make([]orb.Bound, len(rects))
	for i, r := range rects {
		bounds[i] = r.bound()
	}

	mids := buildMidlines(bounds, width, height, tol)
	cuts := findIntersections(mids)
	segs := sliceMidlines(mids, cuts, bounds, tol)
	valid := filterValidSegments(segs, bounds, tol)
	xs, ys := gridCoords(valid, width, height, tol)
	gridRects := buildGridRects(xs, ys, valid, bounds, tol)
	containing := make([]orb.Bound, len(bounds))
	for i, r := range bounds {
		containing[i] = containingRect(r, xs, ys, tol)
	}
	arena := newMergeArena(containing, gridRects, bounds, valid, tol)
	arena.grow()

	seen := make(map[int]bool)
	for i, c := range arena.cells {
		if !c.merged {
			t.Errorf("cell %d left unmerged", i)
		}
		if c.group < 0 || c.group >= len(rects) {
			t.Errorf("cell %d group = %d, want 0..%d", i, c.group, len(rects)-1)
		}
		seen[c.group] = true
	}
	if len(seen) != len(rects) {
		t.Errorf("merge produced %d groups, want %d", len(seen), len(rects))
	}

	for i := range arena.cells {
		for j := i + 1; j < len(arena.cells); j++ {
			if rectsOverlap(arena.cells[i].bound, arena.cells[j].bound, tol) {
				t.Errorf("cells %d and %d overlap", i, j)
			}
		}
	}

	var area float64
	for _, c := range arena.cells {
		area += (c.bound.Max[0] - c.bound.Min[0]) * (c.bound.Max[1] - c.bound.Min[1])
	}
	if math.Abs(area-width*height) > 1e-6 {
		t.Errorf("cell area sum = %v, want container area %v", area, width*height)
	}
}

func TestCalculateBoundaries_Idempotent(t *testing.T) {
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 200, MinY: 150, MaxX: 300, MaxY: 250},
		{MinX: 0, MinY: 300, MaxX: 120, MaxY: 400},
	}

	first, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated call changed output:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestCalculateBoundaries_StructuralProperties(t *testing.T) {
	// A staggered four-rect layout with pockets on both axes. The exact
	// network is not pinned; the structural contract is.
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 80, MaxY: 120},
		{MinX: 160, MinY: 40, MaxX: 260, MaxY: 140},
		{MinX: 20, MinY: 200, MaxX: 120, MaxY: 300},
		{MinX: 180, MinY: 220, MaxX: 300, MaxY: 320},
	}

	lines, err := CalculateBoundaries(rects)
	if err != nil {
		t.Fatalf("CalculateBoundaries: %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("expected a non-empty boundary network")
	}

	tol := DefaultTolerance()
	for i, l := range lines {
		// Axis-aligned with positive length.
		dx := math.Abs(l.End.X - l.Start.X)
		dy := math.Abs(l.End.Y - l.Start.Y)
		if dx > tol.Coincidence && dy > tol.Coincidence {
			t.Errorf("line %d is not axis-aligned: %+v", i, l)
		}
		if dx <= tol.Coincidence && dy <= tol.Coincidence {
			t.Errorf("line %d has zero length: %+v", i, l)
		}

		// Canonical endpoint order.
		if l.End.X < l.Start.X || (l.End.X == l.Start.X && l.End.Y < l.Start.Y) {
			t.Errorf("line %d endpoints not canonical: %+v", i, l)
		}

		// Within the container.
		for _, p := range []Point{l.Start, l.End} {
			if p.X < -tol.Coincidence || p.X > 300+tol.Coincidence ||
				p.Y < -tol.Coincidence || p.Y > 320+tol.Coincidence {
				t.Errorf("line %d endpoint outside container: %+v", i, p)
			}
		}

		// No boundary passes through a rectangle interior. Lines are
		// axis-aligned, so it suffices to check the fixed coordinate against
		// the rectangle's interior and the span for positive overlap.
		for j, r := range rects {
			var inside bool
			if dy > dx { // vertical line at x = Start.X
				inside = l.Start.X > r.MinX+tol.Coincidence && l.Start.X < r.MaxX-tol.Coincidence &&
					tol.positiveOverlap(l.Start.Y, l.End.Y, r.MinY, r.MaxY) > 0
			} else { // horizontal line at y = Start.Y
				inside = l.Start.Y > r.MinY+tol.Coincidence && l.Start.Y < r.MaxY-tol.Coincidence &&
					tol.positiveOverlap(l.Start.X, l.End.X, r.MinX, r.MaxX) > 0
			}
			if inside {
				t.Errorf("line %d passes through rectangle %d: %+v", i, j, l)
			}
		}
	}

	// Sorted lexicographically by (Start, End).
	for i := 1; i < len(lines); i++ {
		prev, cur := lines[i-1], lines[i]
		if cur.Start.X < prev.Start.X ||
			(cur.Start.X == prev.Start.X && cur.Start.Y < prev.Start.Y) {
			t.Errorf("lines %d and %d out of order", i-1, i)
		}
	}
}

// ---------------------------------------------------------------------------
// degenerate and invalid input
// ---------------------------------------------------------------------------

func TestCalculateBoundaries_Degenerate(t *testing.T) {
	for name, rects := range map[string][]Rect{
		"nil":    nil,
		"empty":  {},
		"single": {{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}},
		"touching pair": {
			{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
			{MinX: 100, MinY: 0, MaxX: 200, MaxY: 100},
		},
	} {
		lines, err := CalculateBoundaries(rects)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if len(lines) != 0 {
			t.Errorf("%s: expected empty result, got %+v", name, lines)
		}
	}
}

func TestCalculateBoundaries_InvalidRect(t *testing.T) {
	rects := []Rect{
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
		{MinX: 50, MinY: 0, MaxX: 50, MaxY: 100}, // zero width
	}

	_, err := CalculateBoundaries(rects)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}

	var invalid *InvalidRectError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidRectError, got %T: %v", err, err)
	}
	if invalid.Index != 1 {
		t.Errorf("Index = %d, want 1", invalid.Index)
	}
}
