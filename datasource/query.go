package datasource

import (
	"math"
	"sort"

	"github.com/sgostarter/libtimechart/bounds"
	"github.com/sgostarter/libtimechart/decimation"
	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/lod"
	"github.com/sgostarter/libtimechart/plot"
)

// view is what every variant answers queries from: an x-sorted sequence, its bounds and an
// optional pyramid whose coverage may end before the sequence does.
type view struct {
	seq     bounds.Sequence
	tracker *bounds.Tracker
	pyramid *lod.Pyramid
}

func realWindow(idx *gaps.Index, lmin, lmax float64) (realMin, realMax float64) {
	if lmax < lmin {
		lmin, lmax = lmax, lmin
	}

	return idx.ToRealF(lmin), idx.ToRealF(lmax)
}

// rangeIndices returns [lo, hi) of the points in [realMin, realMax] widened by one overflow
// point on each side.
func rangeIndices(seq bounds.Sequence, realMin, realMax float64) (lo, hi int) {
	n := seq.Len()

	lo = sort.Search(n, func(i int) bool { return seq.At(i).X >= realMin })
	hi = sort.Search(n, func(i int) bool { return seq.At(i).X > realMax })

	if hi < lo {
		hi = lo
	}

	if lo > 0 {
		lo--
	}

	if hi < n {
		hi++
	}

	return
}

func (v view) iterRange(idx *gaps.Index, lmin, lmax float64) *Iterator {
	realMin, realMax := realWindow(idx, lmin, lmax)
	lo, hi := rangeIndices(v.seq, realMin, realMax)

	return newIterator(v.seq, lo, hi)
}

func (v view) iterAggregated(idx *gaps.Index, lmin, lmax float64, budget int, mode decimation.Mode) []plot.Point {
	if v.seq.Len() == 0 {
		return []plot.Point{}
	}

	if lmax < lmin {
		lmin, lmax = lmax, lmin
	}

	realMin, realMax := realWindow(idx, lmin, lmax)

	req := decimation.Request{
		Window: plot.Range{Min: lmin, Max: lmax},
		Budget: budget,
		Mode:   mode,
		Gaps:   idx,
	}

	var input []plot.Point

	if width := req.BinWidth(); width > 0 && v.pyramid != nil {
		// a pyramid may still hold points that were evicted since it was built
		gatherMin := math.Max(realMin, v.seq.At(0).X)

		input = v.pyramid.Gather(v.seq, gatherMin, realMax, width, idx)
	} else {
		lo, hi := rangeIndices(v.seq, realMin, realMax)

		input = newIterator(v.seq, lo, hi).Collect()
	}

	return decimation.Decimate(input, req)
}

func (v view) yRange(idx *gaps.Index, lmin, lmax float64) (plot.Range, bool) {
	realMin, realMax := realWindow(idx, lmin, lmax)

	return v.tracker.YRange(v.seq, realMin, realMax)
}
