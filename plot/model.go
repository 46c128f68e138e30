package plot

import "math"

type ColorTag uint32

const ColorNone ColorTag = 0

type Point struct {
	X     float64  `json:"x" yaml:"x"`
	Y     float64  `json:"y" yaml:"y"`
	Color ColorTag `json:"color,omitempty" yaml:"color,omitempty"`
}

type ScreenPoint struct {
	X float64
	Y float64
}

type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func NewRange(a, b float64) Range {
	if a > b {
		a, b = b, a
	}

	return Range{Min: a, Max: b}
}

func (r Range) Span() float64 {
	return r.Max - r.Min
}

func (r Range) Valid() bool {
	return IsFinite(r.Min) && IsFinite(r.Max) && r.Min <= r.Max
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) Union(o Range) Range {
	return Range{Min: math.Min(r.Min, o.Min), Max: math.Max(r.Max, o.Max)}
}

func (r Range) Center() float64 {
	return r.Min + r.Span()/2
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Accumulator folds points into x/y ranges. Non-finite y values only extend x.
type Accumulator struct {
	X      Range
	Y      Range
	Count  int
	Finite int
}

func NewAccumulator() Accumulator {
	return Accumulator{
		X: Range{Min: math.Inf(1), Max: math.Inf(-1)},
		Y: Range{Min: math.Inf(1), Max: math.Inf(-1)},
	}
}

func (acc *Accumulator) Add(p Point) {
	acc.Count++

	if p.X < acc.X.Min {
		acc.X.Min = p.X
	}

	if p.X > acc.X.Max {
		acc.X.Max = p.X
	}

	if !IsFinite(p.Y) {
		return
	}

	acc.Finite++

	if p.Y < acc.Y.Min {
		acc.Y.Min = p.Y
	}

	if p.Y > acc.Y.Max {
		acc.Y.Max = p.Y
	}
}

func (acc *Accumulator) Merge(o Accumulator) {
	if o.Count == 0 {
		return
	}

	acc.Count += o.Count
	acc.X = acc.X.Union(o.X)

	if o.Finite == 0 {
		return
	}

	acc.Finite += o.Finite
	acc.Y = acc.Y.Union(o.Y)
}

func (acc *Accumulator) XBounds() (Range, bool) {
	return acc.X, acc.Count > 0
}

func (acc *Accumulator) YBounds() (Range, bool) {
	return acc.Y, acc.Finite > 0
}
