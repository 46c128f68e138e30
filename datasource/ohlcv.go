package datasource

import (
	"sort"

	"github.com/godruoyi/go-snowflake"
	"github.com/sgostarter/libtimechart/bounds"
	"github.com/sgostarter/libtimechart/decimation"
	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
)

// barExtents exposes every bar as its low then its high, so the bounds tracker sees the full
// vertical extent of the bars.
type barExtents []decimation.Bar

func (bs barExtents) Len() int {
	return len(bs) * 2
}

func (bs barExtents) At(i int) plot.Point {
	b := bs[i/2]
	if i%2 == 0 {
		return plot.Point{X: b.X, Y: b.Low}
	}

	return plot.Point{X: b.X, Y: b.High}
}

// BarSource is an immutable x-sorted OHLCV series. Queries take logical x bounds like Source.
type BarSource struct {
	bars       []decimation.Bar
	tracker    *bounds.Tracker
	generation uint64

	gapSource GapSource
}

// NewBarSource takes ownership of bars, sorting them by x when needed.
func NewBarSource(bars []decimation.Bar, gapSource GapSource) *BarSource {
	if !sort.SliceIsSorted(bars, func(i, j int) bool { return bars[i].X < bars[j].X }) {
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].X < bars[j].X })
	}

	tracker := bounds.NewTracker()
	tracker.Rebuild(barExtents(bars))

	return &BarSource{
		bars:       bars,
		tracker:    tracker,
		generation: snowflake.ID(),
		gapSource:  gapSource,
	}
}

func (s *BarSource) Len() int {
	return len(s.bars)
}

func (s *BarSource) Generation() uint64 {
	return s.generation
}

func (s *BarSource) gapIndex() *gaps.Index {
	if s.gapSource == nil {
		return nil
	}

	return s.gapSource.Index()
}

func (s *BarSource) XBounds() (plot.Range, bool) {
	return s.tracker.XBounds()
}

func (s *BarSource) LogicalXBounds() (plot.Range, bool) {
	r, ok := s.XBounds()
	if !ok {
		return r, false
	}

	idx := s.gapIndex()

	return plot.Range{Min: idx.ToLogicalF(r.Min), Max: idx.ToLogicalF(r.Max)}, true
}

// YRange returns the finite low/high extent of the bars inside the logical range.
func (s *BarSource) YRange(lmin, lmax float64) (plot.Range, bool) {
	realMin, realMax := realWindow(s.gapIndex(), lmin, lmax)

	return s.tracker.YRange(barExtents(s.bars), realMin, realMax)
}

// IterBars returns the bars in the logical range plus one overflow bar on each side.
func (s *BarSource) IterBars(lmin, lmax float64) []decimation.Bar {
	realMin, realMax := realWindow(s.gapIndex(), lmin, lmax)
	lo, hi := s.rangeIndices(realMin, realMax)

	return append([]decimation.Bar(nil), s.bars[lo:hi]...)
}

// IterAggregated merges the bars of the logical range to about budget bars.
func (s *BarSource) IterAggregated(lmin, lmax float64, budget int) []decimation.Bar {
	if lmax < lmin {
		lmin, lmax = lmax, lmin
	}

	idx := s.gapIndex()
	realMin, realMax := realWindow(idx, lmin, lmax)
	lo, hi := s.rangeIndices(realMin, realMax)

	return decimation.AggregateBars(s.bars[lo:hi], decimation.Request{
		Window: plot.Range{Min: lmin, Max: lmax},
		Budget: budget,
		Gaps:   idx,
	})
}

func (s *BarSource) rangeIndices(realMin, realMax float64) (lo, hi int) {
	n := len(s.bars)

	lo = sort.Search(n, func(i int) bool { return s.bars[i].X >= realMin })
	hi = sort.Search(n, func(i int) bool { return s.bars[i].X > realMax })

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
