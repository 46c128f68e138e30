package decimation

import (
	"math"

	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
)

// Bar is one OHLCV sample. X is the real start of the bar and Span its logical width, 0 for raw
// bars.
type Bar struct {
	X      float64
	Span   float64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// AggregateBars merges x-sorted bars into one bar per stable grid bucket of the window, the
// budget being the ideal bar count. A merged bar opens with the first finite open, closes with
// the last finite close, spans the extreme high and low and sums the volume. Its X snaps to the
// bucket start. Buckets without a finite high are dropped, and bars inside a gap are never
// returned.
func AggregateBars(bars []Bar, req Request) []Bar {
	bars = barsOutsideGaps(bars, req.Gaps)
	if len(bars) == 0 {
		return []Bar{}
	}

	width := StableBinWidth(req.Window.Span(), req.Budget)
	if req.Budget <= 0 || !(width > 0) || len(bars) <= req.Budget {
		return append([]Bar(nil), bars...)
	}

	points := make([]plot.Point, len(bars))
	for i, b := range bars {
		points[i] = plot.Point{X: b.X, Y: b.Close}
	}

	buckets := Partition(points, width, req.Gaps)
	out := make([]Bar, 0, len(buckets))

	for _, bucket := range buckets {
		if bar, ok := mergeBars(bars[bucket.Lo:bucket.Hi]); ok {
			bar.X, bar.Span = bucket.StartReal, width
			out = append(out, bar)
		}
	}

	return out
}

func mergeBars(bars []Bar) (Bar, bool) {
	merged := Bar{
		Open:  math.NaN(),
		High:  math.Inf(-1),
		Low:   math.Inf(1),
		Close: math.NaN(),
	}

	for _, b := range bars {
		if plot.IsFinite(b.High) && b.High > merged.High {
			merged.High = b.High
		}

		if plot.IsFinite(b.Low) && b.Low < merged.Low {
			merged.Low = b.Low
		}

		if math.IsNaN(merged.Open) && plot.IsFinite(b.Open) {
			merged.Open = b.Open
		}

		if plot.IsFinite(b.Close) {
			merged.Close = b.Close
		}

		if plot.IsFinite(b.Volume) {
			merged.Volume += b.Volume
		}
	}

	if math.IsInf(merged.High, -1) {
		return Bar{}, false
	}

	if math.IsInf(merged.Low, 1) {
		merged.Low = merged.High
	}

	return merged, true
}

func barsOutsideGaps(bars []Bar, idx *gaps.Index) []Bar {
	if idx.Len() == 0 {
		return bars
	}

	segments := idx.Segments()
	cursor := idx.Cursor()

	out := make([]Bar, 0, len(bars))

	for _, b := range bars {
		ordinal := cursor.GapOrdinal(b.X)
		if ordinal < len(segments) && b.X >= float64(segments[ordinal].StartReal) {
			continue
		}

		out = append(out, b)
	}

	return out
}
