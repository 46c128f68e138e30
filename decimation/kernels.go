package decimation

import (
	"sort"

	"github.com/sgostarter/libtimechart/plot"
)

// MinMax emits the minimum and maximum of every bucket in x order.
func MinMax(points []plot.Point, buckets []Bucket) []plot.Point {
	out := make([]plot.Point, 0, len(buckets)*2)

	for _, b := range buckets {
		minIdx, maxIdx, ok := extrema(points, b.Lo, b.Hi)
		if !ok {
			out = append(out, points[b.Lo])

			continue
		}

		out = appendIndices(out, points, minIdx, maxIdx)
	}

	return out
}

// M4 emits first, minimum, maximum and last of every bucket in x order, without duplicates.
func M4(points []plot.Point, buckets []Bucket) []plot.Point {
	out := make([]plot.Point, 0, len(buckets)*4)

	for _, b := range buckets {
		minIdx, maxIdx, ok := extrema(points, b.Lo, b.Hi)
		if !ok {
			out = append(out, points[b.Lo])

			continue
		}

		first, _ := firstFinite(points, b.Lo, b.Hi)
		last, _ := lastFinite(points, b.Lo, b.Hi)

		out = appendIndices(out, points, first, minIdx, maxIdx, last)
	}

	return out
}

func appendIndices(out []plot.Point, points []plot.Point, indices ...int) []plot.Point {
	sort.Ints(indices)

	for i, idx := range indices {
		if i > 0 && idx == indices[i-1] {
			continue
		}

		out = append(out, points[idx])
	}

	return out
}

// ensurePeaks inserts the global finite minimum and maximum of points[lo:hi] into out when a
// kernel dropped them. out must be x-sorted.
func ensurePeaks(out []plot.Point, points []plot.Point, lo, hi int) []plot.Point {
	minIdx, maxIdx, ok := extrema(points, lo, hi)
	if !ok {
		return out
	}

	for _, idx := range []int{minIdx, maxIdx} {
		p := points[idx]

		pos := sort.Search(len(out), func(i int) bool {
			return out[i].X >= p.X
		})

		found := false

		for j := pos; j < len(out) && out[j].X == p.X; j++ {
			if out[j].Y == p.Y {
				found = true

				break
			}
		}

		if found {
			continue
		}

		out = append(out, plot.Point{})
		copy(out[pos+1:], out[pos:])
		out[pos] = p
	}

	return out
}
