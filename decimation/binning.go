package decimation

import (
	"math"

	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
)

// StableBinWidth returns the smaller of the power-of-10 and power-of-2 ceilings of span/buckets.
// The result only depends on the span, so panning keeps the grid.
func StableBinWidth(span float64, buckets int) float64 {
	if buckets <= 0 || !(span > 0) || math.IsInf(span, 0) {
		return 0
	}

	ideal := span / float64(buckets)

	p10 := math.Pow(10, math.Ceil(math.Log10(ideal)))
	if p10/10 >= ideal {
		p10 /= 10
	} else if p10 < ideal {
		p10 *= 10
	}

	frac, exp := math.Frexp(ideal)

	p2 := math.Ldexp(1, exp)
	if frac == 0.5 {
		p2 = ideal
	}

	width := math.Min(p10, p2)
	if width <= 0 {
		width = math.SmallestNonzeroFloat64
	}

	return width
}

// Bucket is the half-open index range [Lo, Hi) of the points it summarizes, plus its real-time
// extent after truncation at gap boundaries.
type Bucket struct {
	Lo        int
	Hi        int
	StartReal float64
	EndReal   float64
}

func (b Bucket) Len() int {
	return b.Hi - b.Lo
}

// Partition groups x-sorted points into buckets on a grid of the given logical width anchored at
// logical 0. A bucket never spans a gap: it ends at the gap start and the next one begins at the
// gap end. Points inside a gap belong to no bucket.
func Partition(points []plot.Point, width float64, idx *gaps.Index) []Bucket {
	if len(points) == 0 || !(width > 0) {
		return nil
	}

	segments := idx.Segments()
	cursor := idx.Cursor()

	buckets := make([]Bucket, 0, 16)

	var (
		open       bool
		curK       float64
		curOrdinal int
	)

	for i, p := range points {
		ordinal := cursor.GapOrdinal(p.X)
		if ordinal < len(segments) && p.X >= float64(segments[ordinal].StartReal) {
			open = false

			continue
		}

		k := math.Floor(cursor.ToLogical(p.X) / width)

		if open && k == curK && ordinal == curOrdinal {
			buckets[len(buckets)-1].Hi = i + 1

			continue
		}

		startReal := idx.ToRealF(k * width)
		if ordinal > 0 {
			startReal = math.Max(startReal, float64(segments[ordinal-1].EndReal))
		}

		endReal := idx.ToRealF((k + 1) * width)
		if ordinal < len(segments) {
			endReal = math.Min(endReal, float64(segments[ordinal].StartReal))
		}

		buckets = append(buckets, Bucket{Lo: i, Hi: i + 1, StartReal: startReal, EndReal: endReal})
		open, curK, curOrdinal = true, k, ordinal
	}

	return buckets
}

// extrema returns the indices of the first finite minimum and maximum in [lo, hi), or false
// when the range has no finite y.
func extrema(points []plot.Point, lo, hi int) (minIdx, maxIdx int, ok bool) {
	for i := lo; i < hi; i++ {
		y := points[i].Y
		if !plot.IsFinite(y) {
			continue
		}

		if !ok {
			minIdx, maxIdx, ok = i, i, true

			continue
		}

		if y < points[minIdx].Y {
			minIdx = i
		}

		if y > points[maxIdx].Y {
			maxIdx = i
		}
	}

	return
}

func firstFinite(points []plot.Point, lo, hi int) (int, bool) {
	for i := lo; i < hi; i++ {
		if plot.IsFinite(points[i].Y) {
			return i, true
		}
	}

	return lo, false
}

func lastFinite(points []plot.Point, lo, hi int) (int, bool) {
	for i := hi - 1; i >= lo; i-- {
		if plot.IsFinite(points[i].Y) {
			return i, true
		}
	}

	return hi - 1, false
}
