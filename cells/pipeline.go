package cells

import (
	"github.com/paulmach/orb"
)

// Options configures a boundary computation. The zero value derives the
// container size from the rectangles' bounding box and uses the default
// tolerance policy.
type Options struct {
	// ContainerWidth and ContainerHeight override the container span. When
	// zero, the span of the rectangle bounding box is used. The container is
	// always anchored at the bounding box's minimum corner.
	ContainerWidth  float64
	ContainerHeight float64

	// Tolerance is the comparison policy; zero fields fall back to defaults.
	Tolerance Tolerance
}

// CalculateBoundaries partitions the empty space around the given
// non-overlapping rectangles and returns the partition's boundary segments.
// Each segment runs along the midpoint of a gap between neighboring
// rectangles. The result is sorted lexicographically by (Start, End) and the
// computation is pure: the same input always yields the identical output,
// regardless of the order of the input slice.
//
// Inputs with fewer than two rectangles yield an empty result. A rectangle
// with non-positive extent makes the whole call fail with *InvalidRectError
// before any geometry runs.
func CalculateBoundaries(rects []Rect) ([]Line, error) {
	return CalculateBoundariesWithOptions(rects, Options{})
}

// CalculateBoundariesWithOptions is like CalculateBoundaries but with an
// explicit container size and tolerance policy.
func CalculateBoundariesWithOptions(rects []Rect, opts Options) ([]Line, error) {
	if err := ValidateRects(rects); err != nil {
		return nil, err
	}
	if len(rects) < 2 {
		return []Line{}, nil
	}
	tol := opts.Tolerance.normalized()

	// Rectangle indices feed group ids and merge tie-breaks, so the slice is
	// brought into canonical order first. Validation runs on the caller's
	// order so InvalidRectError indices stay meaningful.
	rects = sortedRects(rects)

	bounds := make([]orb.Bound, len(rects))
	for i, r := range rects {
		bounds[i] = r.bound()
	}

	// Translate so the minimum corner sits at the origin; results are
	// translated back before returning.
	bbox := computeBounds(bounds)
	dx, dy := bbox.Min[0], bbox.Min[1]
	bounds = translateRects(bounds, dx, dy)

	width := opts.ContainerWidth
	if width <= 0 {
		width = bbox.Max[0] - bbox.Min[0]
	}
	height := opts.ContainerHeight
	if height <= 0 {
		height = bbox.Max[1] - bbox.Min[1]
	}

	mids := buildMidlines(bounds, width, height, tol)
	if len(mids) == 0 {
		return []Line{}, nil
	}

	cuts := findIntersections(mids)
	segs := sliceMidlines(mids, cuts, bounds, tol)
	valid := filterValidSegments(segs, bounds, tol)
	if len(valid) == 0 {
		return []Line{}, nil
	}

	xs, ys := gridCoords(valid, width, height, tol)
	gridRects := buildGridRects(xs, ys, valid, bounds, tol)

	containing := make([]orb.Bound, len(bounds))
	for i, r := range bounds {
		containing[i] = containingRect(r, xs, ys, tol)
	}

	arena := newMergeArena(containing, gridRects, bounds, valid, tol)
	arena.grow()

	lines := normalizeOutlines(extractOutlines(arena), tol)
	return translateLines(lines, dx, dy), nil
}
