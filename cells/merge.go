package cells

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// regionCell is one record of the merge arena: a containing rect (seed) or a
// grid rect, identified by its index. Merge state lives in plain fields and
// the growth loop works over indices, never over structural equality.
type regionCell struct {
	bound    orb.Bound
	merged   bool
	group    int // -1 while unassigned
	priority float64
	seed     bool
}

// mergeArena owns the working copy of grid-rect merge state for one pipeline
// invocation. Seeds occupy the first len(rects) slots, one per input
// rectangle, so a seed's index doubles as its group id.
type mergeArena struct {
	cells []regionCell
	rects []orb.Bound // original input rectangles, indexed by group id
	tol   Tolerance
}

// newMergeArena seeds the arena with one containing rect per input rectangle
// (pre-merged, group = rectangle index) followed by the unmerged grid rects
// with their segment-distance priorities.
func newMergeArena(containing, gridRects, rects []orb.Bound, valid []segment, tol Tolerance) *mergeArena {
	a := &mergeArena{
		cells: make([]regionCell, 0, len(containing)+len(gridRects)),
		rects: rects,
		tol:   tol,
	}
	for i, c := range containing {
		a.cells = append(a.cells, regionCell{bound: c, merged: true, group: i, seed: true})
	}
	for _, g := range gridRects {
		a.cells = append(a.cells, regionCell{
			bound:    g,
			group:    -1,
			priority: cellPriority(g, valid, tol),
		})
	}
	return a
}

// grow runs the region-growing loop to its fixed point: repeated passes over
// the unmerged cells in ascending priority order, merging each into an
// adjacent already-merged neighbor. A pass that merges nothing terminates the
// loop. Cells that remain unreachable at the fixed point are then assigned to
// the nearest group by raw edge distance so no cell is silently dropped.
func (a *mergeArena) grow() {
	for {
		unmerged := a.unmergedIndices()
		if len(unmerged) == 0 {
			break
		}

		sort.SliceStable(unmerged, func(i, j int) bool {
			return a.cells[unmerged[i]].priority < a.cells[unmerged[j]].priority
		})

		mergedThisPass := 0
		for _, idx := range unmerged {
			group, ok := a.pickGroup(idx)
			if !ok {
				continue
			}
			a.cells[idx].merged = true
			a.cells[idx].group = group
			mergedThisPass++
		}

		if mergedThisPass == 0 {
			a.assignIslands()
			break
		}
	}
}

// unmergedIndices returns the indices of all cells not yet merged.
func (a *mergeArena) unmergedIndices() []int {
	var idxs []int
	for i := range a.cells {
		if !a.cells[i].merged {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// pickGroup finds the merged neighbors adjacent to the cell and selects the
// group to join. With a single neighbor its group is inherited; with several,
// the group whose original rectangle is closest (edge-to-edge Manhattan
// distance) wins, ties broken by the smaller group id.
func (a *mergeArena) pickGroup(idx int) (int, bool) {
	cell := a.cells[idx].bound

	bestGroup := -1
	bestDist := math.Inf(1)
	for i := range a.cells {
		if i == idx || !a.cells[i].merged {
			continue
		}
		if !a.adjacentCells(cell, a.cells[i].bound) {
			continue
		}
		g := a.cells[i].group
		d := manhattanEdgeDistance(cell, a.rects[g])
		if d < bestDist || (d == bestDist && g < bestGroup) {
			bestDist = d
			bestGroup = g
		}
	}
	if bestGroup == -1 {
		return 0, false
	}
	return bestGroup, true
}

// adjacentCells reports whether two bounds share a full or partial edge:
// facing sides within the adjacency tolerance and a positive-length overlap
// on the shared axis. Corner contact alone does not qualify.
func (a *mergeArena) adjacentCells(x, y orb.Bound) bool {
	tol := a.tol

	// Vertical shared edge, x's right against y's left or vice versa.
	if tol.adjacent(x.Max[0], y.Min[0]) || tol.adjacent(y.Max[0], x.Min[0]) {
		if tol.positiveOverlap(x.Min[1], x.Max[1], y.Min[1], y.Max[1]) > 0 {
			return true
		}
	}
	// Horizontal shared edge.
	if tol.adjacent(x.Max[1], y.Min[1]) || tol.adjacent(y.Max[1], x.Min[1]) {
		if tol.positiveOverlap(x.Min[0], x.Max[0], y.Min[0], y.Max[0]) > 0 {
			return true
		}
	}
	return false
}

// assignIslands hands every still-unmerged cell to the group of the nearest
// original rectangle. The growth loop cannot reach these cells through edge
// adjacency (isolated pockets), so raw distance is the explicit fallback
// policy.
func (a *mergeArena) assignIslands() {
	for i := range a.cells {
		if a.cells[i].merged {
			continue
		}
		bestGroup := 0
		bestDist := math.Inf(1)
		for g, r := range a.rects {
			if d := manhattanEdgeDistance(a.cells[i].bound, r); d < bestDist {
				bestDist = d
				bestGroup = g
			}
		}
		a.cells[i].merged = true
		a.cells[i].group = bestGroup
	}
}

// manhattanEdgeDistance returns the edge-to-edge Manhattan distance between
// two bounds: the sum of the per-axis gaps, zero on an axis where the
// extents overlap.
func manhattanEdgeDistance(a, b orb.Bound) float64 {
	dx := math.Max(math.Max(b.Min[0]-a.Max[0], a.Min[0]-b.Max[0]), 0)
	dy := math.Max(math.Max(b.Min[1]-a.Max[1], a.Min[1]-b.Max[1]), 0)
	return dx + dy
}
