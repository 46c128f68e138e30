package lod

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/sgostarter/libtimechart/bounds"
	"github.com/sgostarter/libtimechart/decimation"
	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
	"golang.org/x/sync/errgroup"
)

const (
	MinPoints = 2000
	// PointsPerBaseBucket is the average number of raw points summarized by a level 0 bucket.
	PointsPerBaseBucket = 8
	// MinLevelBuckets stops the pyramid before a level becomes too coarse to be useful.
	MinLevelBuckets = 64
	// minChunkBuckets keeps parallel chunks from being too small to pay off.
	minChunkBuckets = 4
)

// Level holds the first, minimum, maximum and last raw point of every non-empty bucket of a real-x
// grid anchored at 0. Points are sorted by x.
type Level struct {
	BucketWidth float64
	Points      []plot.Point
}

// Pyramid is an immutable set of levels with strictly increasing, doubling bucket widths.
type Pyramid struct {
	Generation uint64
	// Span is the real x range of the raw points the pyramid was built from.
	Span   plot.Range
	Levels []Level
}

// Build aggregates an x-sorted sequence into a pyramid, or returns nil when the sequence is too
// small or degenerate to benefit from one.
func Build(ctx context.Context, seq bounds.Sequence, generation uint64) (*Pyramid, error) {
	n := seq.Len()
	if n < MinPoints {
		return nil, nil
	}

	span := plot.Range{Min: seq.At(0).X, Max: seq.At(n - 1).X}

	baseWidth := decimation.StableBinWidth(span.Span(), n/PointsPerBaseBucket)
	if baseWidth <= 0 || !plot.IsFinite(span.Min) || !plot.IsFinite(span.Max) {
		return nil, nil
	}

	widths := []float64{baseWidth}
	for span.Span()/(widths[len(widths)-1]*2) >= MinLevelBuckets {
		widths = append(widths, widths[len(widths)-1]*2)
	}

	chunks := splitChunks(seq, span, widths[len(widths)-1])

	results := make([][][]plot.Point, len(chunks))

	g, gCtx := errgroup.WithContext(ctx)

	for i := range chunks {
		i := i

		g.Go(func() error {
			levels, err := buildChunk(gCtx, seq, chunks[i][0], chunks[i][1], widths)
			results[i] = levels

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p := &Pyramid{
		Generation: generation,
		Span:       span,
		Levels:     make([]Level, len(widths)),
	}

	for li, w := range widths {
		total := 0
		for _, r := range results {
			total += len(r[li])
		}

		points := make([]plot.Point, 0, total)
		for _, r := range results {
			points = append(points, r[li]...)
		}

		p.Levels[li] = Level{BucketWidth: w, Points: points}
	}

	return p, nil
}

// splitChunks cuts the sequence at multiples of the coarsest width, so every bucket of every level
// lives in exactly one chunk.
func splitChunks(seq bounds.Sequence, span plot.Range, coarsest float64) [][2]int {
	n := seq.Len()

	buckets := int(math.Floor(span.Max/coarsest)-math.Floor(span.Min/coarsest)) + 1
	workers := runtime.GOMAXPROCS(0)

	perChunk := (buckets + workers - 1) / workers
	if perChunk < minChunkBuckets {
		perChunk = minChunkBuckets
	}

	chunkWidth := coarsest * float64(perChunk)

	var chunks [][2]int

	lo := 0
	for lo < n {
		boundary := (math.Floor(seq.At(lo).X/chunkWidth) + 1) * chunkWidth

		hi := lo + sort.Search(n-lo, func(i int) bool {
			return seq.At(lo+i).X >= boundary
		})

		chunks = append(chunks, [2]int{lo, hi})
		lo = hi
	}

	return chunks
}

func buildChunk(ctx context.Context, seq bounds.Sequence, lo, hi int, widths []float64) ([][]plot.Point, error) {
	raw := make([]plot.Point, 0, hi-lo)
	for i := lo; i < hi; i++ {
		raw = append(raw, seq.At(i))
	}

	levels := make([][]plot.Point, len(widths))

	src := raw
	for li, w := range widths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		levels[li] = aggregate(src, w)
		src = levels[li]
	}

	return levels, nil
}

// aggregate keeps first/min/max/last of every grid bucket of width w.
func aggregate(points []plot.Point, w float64) []plot.Point {
	buckets := decimation.Partition(points, w, nil)

	return decimation.M4(points, buckets)
}

// Select returns the coarsest level whose bucket width does not exceed width.
func (p *Pyramid) Select(width float64) (Level, bool) {
	if p == nil {
		return Level{}, false
	}

	i := sort.Search(len(p.Levels), func(i int) bool {
		return p.Levels[i].BucketWidth > width
	})
	if i == 0 {
		return Level{}, false
	}

	return p.Levels[i-1], true
}

// Gather assembles the input of the aggregation engine for the real range [realMin, realMax] and
// an engine bucket width in logical x. A level bucket is served when it lies inside the range and
// the pyramid coverage, is at least one bucket away from every gap and maps into a single engine
// bucket; raw points are served everywhere else, plus one raw point on each side of the range.
func (p *Pyramid) Gather(raw bounds.Sequence, realMin, realMax, width float64, idx *gaps.Index) []plot.Point {
	lo, hi := searchRange(raw, realMin, realMax)

	level, ok := p.Select(width / 2)
	if !ok {
		return appendRaw(nil, raw, overflowLo(lo), overflowHi(hi, raw.Len()))
	}

	w := level.BucketWidth

	gridLo := math.Ceil(realMin/w) * w
	gridHi := math.Min(math.Floor(realMax/w)*w, math.Floor(p.Span.Max/w)*w)

	out := make([]plot.Point, 0, 256)
	out = appendRaw(out, raw, overflowLo(lo), lo)

	cur := realMin

	for _, c := range cleanIntervals(gridLo, gridHi, w, idx) {
		// no gap inside a clean interval, so real and logical x differ by a constant
		offset := idx.ToLogicalF(c[0]) - c[0]

		li := sort.Search(len(level.Points), func(i int) bool { return level.Points[i].X >= c[0] })

		for j := 0; ; j++ {
			a := c[0] + float64(j)*w
			if a >= c[1] {
				break
			}

			la := li
			for li < len(level.Points) && level.Points[li].X < a+w {
				li++
			}

			if la == li || !insideBucket(a+offset, w, width) {
				continue
			}

			rawLo, rawHi := searchHalfOpen(raw, cur, a)
			out = appendRaw(out, raw, rawLo, rawHi)
			out = append(out, level.Points[la:li]...)

			cur = a + w
		}
	}

	a, b := searchRange(raw, cur, realMax)
	out = appendRaw(out, raw, a, b)

	return appendRaw(out, raw, hi, overflowHi(hi, raw.Len()))
}

// insideBucket reports whether the logical interval [x, x+w) falls in one bucket of the grid of
// the given width.
func insideBucket(x, w, width float64) bool {
	k := math.Floor(x / width)

	return x+w <= (k+1)*width
}

// cleanIntervals returns the grid-aligned parts of [gridLo, gridHi) farther than one bucket from
// every gap.
func cleanIntervals(gridLo, gridHi, w float64, idx *gaps.Index) [][2]float64 {
	if gridHi <= gridLo {
		return nil
	}

	var clean [][2]float64

	cur := gridLo

	for _, seg := range idx.SegmentsIn(gridLo-w, gridHi+w) {
		dirtyLo := math.Floor((float64(seg.StartReal)-w)/w) * w
		dirtyHi := math.Ceil((float64(seg.EndReal)+w)/w) * w

		if dirtyLo > cur {
			clean = append(clean, [2]float64{cur, math.Min(dirtyLo, gridHi)})
		}

		if dirtyHi > cur {
			cur = dirtyHi
		}

		if cur >= gridHi {
			return clean
		}
	}

	if cur < gridHi {
		clean = append(clean, [2]float64{cur, gridHi})
	}

	return clean
}

func searchRange(seq bounds.Sequence, xMin, xMax float64) (lo, hi int) {
	n := seq.Len()

	lo = sort.Search(n, func(i int) bool { return seq.At(i).X >= xMin })
	hi = sort.Search(n, func(i int) bool { return seq.At(i).X > xMax })

	if hi < lo {
		hi = lo
	}

	return
}

func searchHalfOpen(seq bounds.Sequence, xMin, xMax float64) (lo, hi int) {
	n := seq.Len()

	lo = sort.Search(n, func(i int) bool { return seq.At(i).X >= xMin })
	hi = sort.Search(n, func(i int) bool { return seq.At(i).X >= xMax })

	if hi < lo {
		hi = lo
	}

	return
}

func overflowLo(lo int) int {
	if lo > 0 {
		return lo - 1
	}

	return 0
}

func overflowHi(hi, n int) int {
	if hi < n {
		return hi + 1
	}

	return n
}

func appendRaw(out []plot.Point, seq bounds.Sequence, lo, hi int) []plot.Point {
	for i := lo; i < hi; i++ {
		out = append(out, seq.At(i))
	}

	return out
}
