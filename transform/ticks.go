package transform

import (
	"math"
	"strconv"

	"github.com/sgostarter/libtimechart/plot"
)

var (
	sqrt50 = math.Sqrt(50)
	sqrt10 = math.Sqrt(10)
	sqrt2  = math.Sqrt(2)
)

// Tick is an axis label position. For time axes Value is the real timestamp and Logical the
// position on the compressed axis; otherwise both are equal.
type Tick struct {
	Value   float64
	Logical float64
}

// TickStep returns a 1, 2 or 5 times power-of-ten step giving roughly count ticks over [lo, hi].
func TickStep(lo, hi float64, count int) float64 {
	if count <= 0 || !(hi > lo) {
		return 0
	}

	raw := (hi - lo) / float64(count)
	power := math.Floor(math.Log10(raw))
	base := math.Pow10(int(power))
	e := raw / base

	factor := 1.0

	switch {
	case e >= sqrt50:
		factor = 10
	case e >= sqrt10:
		factor = 5
	case e >= sqrt2:
		factor = 2
	}

	return factor * base
}

// NiceTicks returns the multiples of TickStep inside [lo, hi].
func NiceTicks(lo, hi float64, count int) []float64 {
	if !plot.IsFinite(lo) || !plot.IsFinite(hi) {
		return nil
	}

	if lo == hi {
		return []float64{lo}
	}

	if lo > hi {
		lo, hi = hi, lo
	}

	step := TickStep(lo, hi, count)
	if step <= 0 || !plot.IsFinite(step) {
		return nil
	}

	// dividing by the inverse of a sub-unit step avoids 0.30000000000000004 style noise
	var inv float64
	if step < 1 {
		inv = math.Round(1 / step)
	}

	var first, last float64
	if inv > 0 {
		first, last = math.Ceil(lo*inv), math.Floor(hi*inv)
	} else {
		first, last = math.Ceil(lo/step), math.Floor(hi/step)
	}

	ticks := make([]float64, 0, int(last-first)+1)

	for i := first; i <= last; i++ {
		if inv > 0 {
			ticks = append(ticks, i/inv)
		} else {
			ticks = append(ticks, i*step)
		}
	}

	return ticks
}

func logTicks(lo, hi float64, count int) []float64 {
	if !(lo > 0) || !(hi > lo) {
		return NiceTicks(lo, hi, count)
	}

	// Log10 of an exact power of ten can miss by an ulp
	first, last := math.Ceil(math.Log10(lo)-1e-9), math.Floor(math.Log10(hi)+1e-9)
	if last-first < 1 {
		return NiceTicks(lo, hi, count)
	}

	ticks := make([]float64, 0, int(last-first)+1)
	for k := first; k <= last; k++ {
		ticks = append(ticks, math.Pow10(int(k)))
	}

	return ticks
}

// Ticks returns about count labels for the axis range. Time axes pick nice values in logical
// space and drop those that land inside a gap.
func (a Axis) Ticks(count int) []Tick {
	if a.Scale == ScaleLog {
		values := logTicks(a.Range.Min, a.Range.Max, count)
		ticks := make([]Tick, 0, len(values))

		for _, v := range values {
			ticks = append(ticks, Tick{Value: v, Logical: v})
		}

		return ticks
	}

	values := NiceTicks(a.Range.Min, a.Range.Max, count)
	ticks := make([]Tick, 0, len(values))

	if a.Scale != ScaleTime || a.Gaps.Len() == 0 {
		for _, v := range values {
			ticks = append(ticks, Tick{Value: v, Logical: v})
		}

		return ticks
	}

	cursor := a.Gaps.Cursor()

	for _, v := range values {
		real := cursor.ToReal(v)
		if a.Gaps.IsInside(int64(math.Floor(real))) {
			continue
		}

		ticks = append(ticks, Tick{Value: real, Logical: v})
	}

	return ticks
}

// FormatTick renders a numeric label with precision depending on magnitude.
func FormatTick(v float64) string {
	abs := math.Abs(v)

	switch {
	case abs > 0 && abs < 0.001:
		return strconv.FormatFloat(v, 'f', 4, 64)
	case abs > 1000:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}

	return strconv.FormatFloat(v, 'f', 2, 64)
}
