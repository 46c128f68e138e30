package decimation

import (
	"sort"

	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
)

type Request struct {
	// Window is the visible range in logical x.
	Window plot.Range
	Budget int
	Mode   Mode
	Gaps   *gaps.Index
}

// IdealBuckets is the number of grid buckets a mode spends the budget on.
func (req Request) IdealBuckets() int {
	switch req.Mode {
	case ModeMinMax:
		return maxInt(req.Budget/2, 1)
	case ModeLTTB:
		return maxInt(req.Budget-2, 1)
	}

	return maxInt(req.Budget/4, 1)
}

// BinWidth is the stable logical bucket width for the request, 0 when the window is degenerate.
func (req Request) BinWidth() float64 {
	return StableBinWidth(req.Window.Span(), req.IdealBuckets())
}

// Decimate reduces x-sorted points (real x) to roughly the budget. Degenerate requests fall back
// to the raw points. Points inside a gap are never returned.
func Decimate(points []plot.Point, req Request) []plot.Point {
	points = outsideGaps(points, req.Gaps)
	if len(points) == 0 {
		return []plot.Point{}
	}

	if req.Budget <= 0 || !(req.Window.Span() > 0) || len(points) <= req.Budget {
		return append([]plot.Point(nil), points...)
	}

	if req.Mode == ModeLTTB {
		return LTTB(points, req.Budget, req.BinWidth(), req.Gaps)
	}

	buckets := Partition(points, req.BinWidth(), req.Gaps)

	if req.Mode == ModeMinMax {
		return MinMax(points, buckets)
	}

	out := M4(points, buckets)

	lo, hi := visibleIndices(points, req.Window, req.Gaps)

	return ensurePeaks(out, points, lo, hi)
}

// visibleIndices returns the index range of points whose logical x lies inside the window.
func visibleIndices(points []plot.Point, window plot.Range, idx *gaps.Index) (lo, hi int) {
	realMin, realMax := idx.ToRealF(window.Min), idx.ToRealF(window.Max)

	lo = sort.Search(len(points), func(i int) bool {
		return points[i].X >= realMin
	})
	hi = sort.Search(len(points), func(i int) bool {
		return points[i].X > realMax
	})

	return
}

// outsideGaps returns points without the ones inside a gap segment. The input is returned as is
// when nothing needs dropping.
func outsideGaps(points []plot.Point, idx *gaps.Index) []plot.Point {
	if idx.Len() == 0 {
		return points
	}

	segments := idx.Segments()
	cursor := idx.Cursor()

	var out []plot.Point

	for i, p := range points {
		ordinal := cursor.GapOrdinal(p.X)
		inside := ordinal < len(segments) && p.X >= float64(segments[ordinal].StartReal)

		if inside && out == nil {
			out = make([]plot.Point, i, len(points))
			copy(out, points[:i])
		}

		if !inside && out != nil {
			out = append(out, p)
		}
	}

	if out == nil {
		return points
	}

	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
