package decimation

import (
	"math"
	"sort"

	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
)

// LTTB keeps exactly budget points of an x-sorted input longer than budget: the first and last
// points plus one point per bucket chosen by the largest-triangle rule. Buckets are cells of the
// logical grid of the given width, so panning keeps them; cells are split or merged
// deterministically to hit the budget. A width <= 0 is derived from the logical span of points.
// Triangle areas are computed in logical x.
func LTTB(points []plot.Point, budget int, width float64, idx *gaps.Index) []plot.Point {
	n := len(points)

	if budget <= 0 || n <= budget {
		return append([]plot.Point(nil), points...)
	}

	switch budget {
	case 1:
		return []plot.Point{points[0]}
	case 2:
		return []plot.Point{points[0], points[n-1]}
	}

	xs := make([]float64, n)
	cursor := idx.Cursor()

	for i, p := range points {
		xs[i] = cursor.ToLogical(p.X)
	}

	if !(width > 0) {
		width = StableBinWidth(xs[n-1]-xs[0], budget-2)
	}

	buckets := lttbBuckets(points, budget-2, width, idx)

	out := make([]plot.Point, 0, budget)
	out = append(out, points[0])

	a := 0

	for bi, b := range buckets {
		var nextX, nextY float64

		if bi+1 < len(buckets) {
			nextX, nextY = mean(points, xs, buckets[bi+1])
		} else {
			nextX, nextY = xs[n-1], points[n-1].Y
		}

		if !plot.IsFinite(nextY) {
			nextY = points[a].Y
		}

		chosen := -1
		bestArea := -1.0

		for i := b.Lo; i < b.Hi; i++ {
			if !plot.IsFinite(points[i].Y) {
				continue
			}

			area := math.Abs((xs[a]-nextX)*(points[i].Y-points[a].Y) - (xs[a]-xs[i])*(nextY-points[a].Y))
			if !plot.IsFinite(area) {
				area = 0
			}

			if area > bestArea {
				bestArea = area
				chosen = i
			}
		}

		if chosen < 0 {
			chosen = b.Lo
		}

		out = append(out, points[chosen])
		a = chosen
	}

	return append(out, points[n-1])
}

func mean(points []plot.Point, xs []float64, b Bucket) (x, y float64) {
	count := 0

	for i := b.Lo; i < b.Hi; i++ {
		if !plot.IsFinite(points[i].Y) {
			continue
		}

		x += xs[i]
		y += points[i].Y
		count++
	}

	if count == 0 {
		return xs[b.Lo], math.NaN()
	}

	return x / float64(count), y / float64(count)
}

// lttbCell is a grid bucket with its logical extent and gap run.
type lttbCell struct {
	Bucket
	lo, hi  float64
	ordinal int
}

// lttbBuckets cuts the interior points[1:n-1] on the logical grid, then splits the fullest cells
// or merges the lightest neighbours until there are quota buckets.
func lttbBuckets(points []plot.Point, quota int, width float64, idx *gaps.Index) []Bucket {
	n := len(points)
	if n < 3 || quota <= 0 || !(width > 0) {
		return nil
	}

	cursor := idx.Cursor()
	parts := Partition(points[1:n-1], width, idx)
	cells := make([]lttbCell, 0, quota)

	for _, b := range parts {
		b.Lo++
		b.Hi++

		lo := math.Floor(cursor.ToLogical(points[b.Lo].X)/width) * width
		cells = append(cells, lttbCell{Bucket: b, lo: lo, hi: lo + width, ordinal: cursor.GapOrdinal(points[b.Lo].X)})
	}

	for len(cells) < quota {
		next, ok := splitCells(points, cells, quota-len(cells), idx)
		if !ok {
			break
		}

		cells = next
	}

	for len(cells) > quota {
		cells = mergeLightest(cells)
	}

	buckets := make([]Bucket, len(cells))
	for i, c := range cells {
		buckets[i] = c.Bucket
	}

	return buckets
}

// splitCells halves up to need cells, fullest first and leftmost on ties.
func splitCells(points []plot.Point, cells []lttbCell, need int, idx *gaps.Index) ([]lttbCell, bool) {
	order := make([]int, 0, len(cells))

	for i, c := range cells {
		if c.Len() >= 2 {
			order = append(order, i)
		}
	}

	if len(order) == 0 {
		return cells, false
	}

	sort.SliceStable(order, func(i, j int) bool {
		return cells[order[i]].Len() > cells[order[j]].Len()
	})

	if need < len(order) {
		order = order[:need]
	}

	chosen := make(map[int]bool, len(order))
	for _, i := range order {
		chosen[i] = true
	}

	next := make([]lttbCell, 0, len(cells)+len(order))

	for i, c := range cells {
		if !chosen[i] {
			next = append(next, c)

			continue
		}

		left, right := splitCell(points, c, idx)
		next = append(next, left, right)
	}

	return next, true
}

// splitCell cuts a cell at its logical midpoint, or at its middle point when one side would be
// empty.
func splitCell(points []plot.Point, c lttbCell, idx *gaps.Index) (left, right lttbCell) {
	mid := (c.lo + c.hi) / 2

	m := c.Lo + sort.Search(c.Len(), func(i int) bool {
		return idx.ToLogicalF(points[c.Lo+i].X) >= mid
	})

	left, right = c, c

	if m > c.Lo && m < c.Hi {
		midReal := idx.ToRealF(mid)

		left.Hi, left.hi, left.EndReal = m, mid, math.Min(midReal, c.EndReal)
		right.Lo, right.lo, right.StartReal = m, mid, math.Max(midReal, c.StartReal)

		return
	}

	m = c.Lo + c.Len()/2

	left.Hi, left.EndReal = m, points[m].X
	right.Lo, right.StartReal = m, points[m].X

	return
}

// mergeLightest joins the adjacent pair with the fewest points, preferring pairs inside one gap
// run and the leftmost pair on ties.
func mergeLightest(cells []lttbCell) []lttbCell {
	best := -1
	bestCross := true
	bestLen := 0

	for i := 0; i+1 < len(cells); i++ {
		cross := cells[i].ordinal != cells[i+1].ordinal
		size := cells[i].Len() + cells[i+1].Len()

		if best < 0 || (!cross && bestCross) || (cross == bestCross && size < bestLen) {
			best, bestCross, bestLen = i, cross, size
		}
	}

	if best < 0 {
		return cells
	}

	a, b := cells[best], cells[best+1]
	a.Hi, a.hi, a.EndReal = b.Hi, b.hi, b.EndReal

	cells[best] = a

	return append(cells[:best+1], cells[best+2:]...)
}
