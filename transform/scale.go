package transform

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
)

var ErrUnknownScale = errors.New("unknown scale")

type ScaleKind int

const (
	ScaleLinear ScaleKind = iota
	ScaleLog
	// ScaleTime is linear over logical time: values pass through the gap index first.
	ScaleTime
)

func (k ScaleKind) String() string {
	switch k {
	case ScaleLinear:
		return "linear"
	case ScaleLog:
		return "log"
	case ScaleTime:
		return "time"
	}

	return fmt.Sprintf("scale(%d)", int(k))
}

func ParseScale(s string) (ScaleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return ScaleLinear, nil
	case "log", "log10":
		return ScaleLog, nil
	case "time":
		return ScaleTime, nil
	}

	return ScaleLinear, fmt.Errorf("%w: %q", ErrUnknownScale, s)
}

func (k ScaleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ScaleKind) UnmarshalText(text []byte) (err error) {
	*k, err = ParseScale(string(text))

	return
}

// Axis maps data values to [0, 1] and back. For ScaleTime, Range is in logical time and data
// values are real time.
type Axis struct {
	Scale    ScaleKind
	Range    AxisRange
	Gaps     *gaps.Index
	Inverted bool
}

func (a Axis) toDomain(v float64) float64 {
	switch a.Scale {
	case ScaleTime:
		return a.Gaps.ToLogicalF(v)
	case ScaleLog:
		if v <= 0 {
			return math.NaN()
		}

		return math.Log10(v)
	}

	return v
}

func (a Axis) fromDomain(d float64) float64 {
	switch a.Scale {
	case ScaleTime:
		return a.Gaps.ToRealF(d)
	case ScaleLog:
		return math.Pow(10, d)
	}

	return d
}

func (a Axis) domainRange() (lo, hi float64) {
	if a.Scale == ScaleLog {
		return a.toDomain(a.Range.Min), a.toDomain(a.Range.Max)
	}

	return a.Range.Min, a.Range.Max
}

// Normalize maps a data value to its position in [0, 1] along the axis. A zero span maps
// everything to the middle.
func (a Axis) Normalize(v float64) float64 {
	lo, hi := a.domainRange()

	var t float64

	if span := hi - lo; span > 0 {
		t = (a.toDomain(v) - lo) / span
	} else {
		t = 0.5
	}

	if a.Inverted {
		t = 1 - t
	}

	return t
}

// Denormalize is the exact inverse of Normalize.
func (a Axis) Denormalize(t float64) float64 {
	if a.Inverted {
		t = 1 - t
	}

	lo, hi := a.domainRange()

	return a.fromDomain(lo + t*(hi-lo))
}

// Viewport is the pixel rectangle the plot is drawn into, y growing downwards.
type Viewport struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

type Transform struct {
	X        Axis
	Y        Axis
	Viewport Viewport
}

func (tr Transform) MapX(x float64) float64 {
	return tr.Viewport.X + tr.X.Normalize(x)*tr.Viewport.Width
}

func (tr Transform) MapY(y float64) float64 {
	return tr.Viewport.Y + (1-tr.Y.Normalize(y))*tr.Viewport.Height
}

func (tr Transform) InvertX(px float64) float64 {
	if tr.Viewport.Width <= 0 {
		return tr.X.Denormalize(0)
	}

	return tr.X.Denormalize((px - tr.Viewport.X) / tr.Viewport.Width)
}

func (tr Transform) InvertY(py float64) float64 {
	if tr.Viewport.Height <= 0 {
		return tr.Y.Denormalize(0)
	}

	return tr.Y.Denormalize(1 - (py-tr.Viewport.Y)/tr.Viewport.Height)
}

func (tr Transform) DataToScreen(p plot.Point) plot.ScreenPoint {
	return plot.ScreenPoint{X: tr.MapX(p.X), Y: tr.MapY(p.Y)}
}

func (tr Transform) ScreenToData(sp plot.ScreenPoint) plot.Point {
	return plot.Point{X: tr.InvertX(sp.X), Y: tr.InvertY(sp.Y)}
}

// MapPoints maps points into dst, reusing its storage.
func (tr Transform) MapPoints(dst []plot.ScreenPoint, points []plot.Point) []plot.ScreenPoint {
	dst = dst[:0]

	cursor := tr.X.Gaps.Cursor()

	for _, p := range points {
		x := p.X
		if tr.X.Scale == ScaleTime {
			// same as MapX, sequential inputs make the cursor O(1)
			x = cursor.ToLogical(x)

			t := 0.5
			if span := tr.X.Range.Span(); span > 0 {
				t = (x - tr.X.Range.Min) / span
			}

			if tr.X.Inverted {
				t = 1 - t
			}

			dst = append(dst, plot.ScreenPoint{X: tr.Viewport.X + t*tr.Viewport.Width, Y: tr.MapY(p.Y)})

			continue
		}

		dst = append(dst, tr.DataToScreen(p))
	}

	return dst
}
