package cells

import (
	"math"

	"github.com/paulmach/orb"
)

// Tolerance bundles the numeric thresholds used by every comparison in the
// pipeline. All coincidence, adjacency, and collinearity tests go through one
// Tolerance value so the policy is defined in a single place and can be tested
// in isolation.
type Tolerance struct {
	// Coincidence is the distance below which two coordinates or points are
	// treated as the same. Default: 1e-3.
	Coincidence float64

	// Determinant is the magnitude below which the determinant of a pair of
	// line directions is considered zero, i.e. the lines are near-parallel
	// and their intersection is skipped. Default: 1e-4.
	Determinant float64

	// Adjacency is the slack allowed between the facing edges of two grid
	// rects for them to count as neighbors during region growth. Default: 0.5.
	Adjacency float64

	// Samples is the number of evenly spaced points sampled along a segment
	// when estimating its distance to the nearest rectangle. Default: 10.
	Samples int
}

// Default tolerance values. Exposed as constants so tests and callers can
// reference the policy without constructing a Tolerance.
const (
	DefaultCoincidence = 1e-3
	DefaultDeterminant = 1e-4
	DefaultAdjacency   = 0.5
	DefaultSamples     = 10
)

// DefaultTolerance returns the tolerance policy used when Options.Tolerance
// is left as its zero value.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Coincidence: DefaultCoincidence,
		Determinant: DefaultDeterminant,
		Adjacency:   DefaultAdjacency,
		Samples:     DefaultSamples,
	}
}

// normalized fills any zero field with its default so a partially specified
// Tolerance still behaves sensibly.
func (t Tolerance) normalized() Tolerance {
	d := DefaultTolerance()
	if t.Coincidence <= 0 {
		t.Coincidence = d.Coincidence
	}
	if t.Determinant <= 0 {
		t.Determinant = d.Determinant
	}
	if t.Adjacency <= 0 {
		t.Adjacency = d.Adjacency
	}
	if t.Samples < 2 {
		t.Samples = d.Samples
	}
	return t
}

// coincident reports whether two scalar coordinates are the same within the
// coincidence tolerance.
func (t Tolerance) coincident(a, b float64) bool {
	return math.Abs(a-b) <= t.Coincidence
}

// coincidentPoints reports whether two points are the same within the
// coincidence tolerance on both axes.
func (t Tolerance) coincidentPoints(a, b orb.Point) bool {
	return t.coincident(a[0], b[0]) && t.coincident(a[1], b[1])
}

// adjacent reports whether two edge coordinates are close enough to count as
// touching for region growth.
func (t Tolerance) adjacent(a, b float64) bool {
	return math.Abs(a-b) <= t.Adjacency
}

// positiveOverlap returns the overlap length of the intervals [aMin,aMax] and
// [bMin,bMax], or 0 if they overlap by no more than the coincidence tolerance.
// A shared endpoint (corner contact) therefore does not count as overlap.
func (t Tolerance) positiveOverlap(aMin, aMax, bMin, bMax float64) float64 {
	lo := math.Max(aMin, bMin)
	hi := math.Min(aMax, bMax)
	if hi-lo <= t.Coincidence {
		return 0
	}
	return hi - lo
}
