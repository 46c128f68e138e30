package transform

import (
	"github.com/sgostarter/libtimechart/plot"
)

// Limits bound the values an axis may show. Each side is optional.
type Limits struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	HasMin bool    `json:"has_min" yaml:"has_min"`
	HasMax bool    `json:"has_max" yaml:"has_max"`
}

func NoLimits() Limits {
	return Limits{}
}

func Between(lo, hi float64) Limits {
	return Limits{Min: lo, Max: hi, HasMin: true, HasMax: true}
}

// AxisRange is a [Min, Max] range of an axis domain; logical x for time axes.
type AxisRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func NewAxisRange(a, b float64) AxisRange {
	if a > b {
		a, b = b, a
	}

	return AxisRange{Min: a, Max: b}
}

func (r AxisRange) Span() float64 {
	return r.Max - r.Min
}

func (r AxisRange) Center() float64 {
	return r.Min + r.Span()/2
}

func (r AxisRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r AxisRange) Range() plot.Range {
	return plot.Range{Min: r.Min, Max: r.Max}
}

func (r AxisRange) valid() bool {
	return plot.IsFinite(r.Min) && plot.IsFinite(r.Max) && r.Min <= r.Max
}

// ZoomAt scales the span by factor keeping pivot at the same relative position.
func (r AxisRange) ZoomAt(pivot, factor float64) AxisRange {
	if !(factor > 0) || !plot.IsFinite(factor) || !plot.IsFinite(pivot) {
		return r
	}

	span := r.Span()
	if span <= 0 {
		return r
	}

	pct := (pivot - r.Min) / span
	newSpan := span * factor

	lo := pivot - newSpan*pct

	return AxisRange{Min: lo, Max: lo + newSpan}
}

func (r AxisRange) Pan(delta float64) AxisRange {
	if !plot.IsFinite(delta) {
		return r
	}

	return AxisRange{Min: r.Min + delta, Max: r.Max + delta}
}

// Clamp moves the range inside the limits without changing its span. When the span is larger
// than the space between two limits, the range is moved to cover both limits instead.
func (r AxisRange) Clamp(limits Limits) AxisRange {
	span := r.Span()

	if !limits.HasMin || !limits.HasMax {
		if limits.HasMin && r.Min < limits.Min {
			r = AxisRange{Min: limits.Min, Max: limits.Min + span}
		}

		if limits.HasMax && r.Max > limits.Max {
			r = AxisRange{Min: limits.Max - span, Max: limits.Max}
		}

		return r
	}

	if span <= limits.Max-limits.Min {
		switch {
		case r.Min < limits.Min:
			r = AxisRange{Min: limits.Min, Max: limits.Min + span}
		case r.Max > limits.Max:
			r = AxisRange{Min: limits.Max - span, Max: limits.Max}
		}

		return r
	}

	switch {
	case r.Min > limits.Min:
		r = AxisRange{Min: limits.Min, Max: limits.Min + span}
	case r.Max < limits.Max:
		r = AxisRange{Min: limits.Max - span, Max: limits.Max}
	}

	return r
}

// Bounded cuts the range at the limits; this is what gets rendered.
func (r AxisRange) Bounded(limits Limits) AxisRange {
	if limits.HasMin {
		if r.Min < limits.Min {
			r.Min = limits.Min
		}

		if r.Max < limits.Min {
			r.Max = limits.Min
		}
	}

	if limits.HasMax {
		if r.Max > limits.Max {
			r.Max = limits.Max
		}

		if r.Min > limits.Max {
			r.Min = limits.Max
		}
	}

	return r
}
