package datasource

import (
	"errors"
	"math"

	"github.com/sgostarter/libtimechart/plot"
)

var (
	ErrOutOfOrder  = errors.New("point is older than the newest one")
	ErrBadCapacity = errors.New("bad capacity")
	ErrNotFinite   = errors.New("x is not finite")
)

type Kind int

const (
	KindBulk Kind = iota
	KindAppendable
	KindStreaming
)

func (k Kind) String() string {
	switch k {
	case KindBulk:
		return "bulk"
	case KindAppendable:
		return "appendable"
	case KindStreaming:
		return "streaming"
	}

	return "unknown"
}

// columns is a columnar x-sorted point store. Existing elements are never written, so a copy of
// the slice headers is an immutable snapshot even while appends continue.
type columns struct {
	xs     []float64
	ys     []float64
	colors []plot.ColorTag
}

func newColumns(points []plot.Point) columns {
	cols := columns{
		xs: make([]float64, len(points)),
		ys: make([]float64, len(points)),
	}

	for i, p := range points {
		cols.xs[i] = p.X
		cols.ys[i] = p.Y

		if p.Color != plot.ColorNone {
			if cols.colors == nil {
				cols.colors = make([]plot.ColorTag, len(points))
			}

			cols.colors[i] = p.Color
		}
	}

	return cols
}

func (cols columns) Len() int {
	return len(cols.xs)
}

func (cols columns) At(i int) plot.Point {
	p := plot.Point{X: cols.xs[i], Y: cols.ys[i]}
	if cols.colors != nil {
		p.Color = cols.colors[i]
	}

	return p
}

func (cols columns) append(p plot.Point) columns {
	cols.xs = append(cols.xs, p.X)
	cols.ys = append(cols.ys, p.Y)

	if cols.colors != nil || p.Color != plot.ColorNone {
		if cols.colors == nil {
			cols.colors = make([]plot.ColorTag, len(cols.xs)-1, cap(cols.xs))
		}

		cols.colors = append(cols.colors, p.Color)
	}

	return cols
}

func (cols columns) points() []plot.Point {
	ps := make([]plot.Point, cols.Len())
	for i := range ps {
		ps[i] = cols.At(i)
	}

	return ps
}

// minSpacing returns the smallest positive x step, or 0 with fewer than two distinct x values.
func minSpacing(xs []float64) float64 {
	spacing := math.Inf(1)

	for i := 1; i < len(xs); i++ {
		if d := xs[i] - xs[i-1]; d > 0 && d < spacing {
			spacing = d
		}
	}

	if math.IsInf(spacing, 1) {
		return 0
	}

	return spacing
}
