package transform

import (
	"math"

	"github.com/sgostarter/libtimechart/plot"
)

const (
	MinSpan       = 1e-9
	DefaultMargin = 0.05

	epsilon = 2.220446049250313e-16
)

// PanPixels shifts the range by a pixel drag over an axis of totalPixels. Dragging right or
// down pulls the content along, so x decreases and y increases.
func PanPixels(r AxisRange, deltaPixels, totalPixels float64, vertical bool) AxisRange {
	if totalPixels <= 0 {
		return r
	}

	delta := deltaPixels * r.Span() / totalPixels
	if !vertical {
		delta = -delta
	}

	return r.Pan(delta)
}

// ZoomAxisAt zooms around the point at pivotPct of the range, never below MinSpan.
func ZoomAxisAt(r AxisRange, pivotPct, factor float64) AxisRange {
	span := r.Span()
	if span <= 0 {
		return r
	}

	if span*factor < MinSpan {
		factor = MinSpan / span
	}

	return r.ZoomAt(r.Min+span*pivotPct, factor)
}

// ZoomFactor converts a wheel delta into a zoom factor; positive deltas zoom in.
func ZoomFactor(delta, sensitivity float64) float64 {
	if sensitivity <= 0 {
		return 1
	}

	factor := 1 + math.Abs(delta)/sensitivity
	if delta > 0 {
		return 1 / factor
	}

	return factor
}

// AutoFit returns a range covering [lo, hi] with margin on both sides. Empty data yields
// [0, 100] and a single value gets a unit span.
func AutoFit(lo, hi, margin float64) AxisRange {
	if math.IsInf(lo, 1) || math.IsInf(hi, -1) || math.IsNaN(lo) || math.IsNaN(hi) {
		return AxisRange{Min: 0, Max: 100}
	}

	span := hi - lo
	if math.Abs(span) < epsilon {
		span = 1
	}

	return AxisRange{Min: lo - span*margin, Max: hi + span*margin}
}

// MoveToCenter recenters the range on center keeping its span, then fits it in limits.
func MoveToCenter(r AxisRange, center float64, limits Limits) AxisRange {
	if !plot.IsFinite(center) {
		return r
	}

	span := r.Span()
	moved := AxisRange{Min: center - span/2, Max: center + span/2}

	if limits.HasMin && limits.HasMax && span > limits.Max-limits.Min {
		return AxisRange{Min: limits.Min, Max: limits.Max}
	}

	return moved.Clamp(limits)
}
