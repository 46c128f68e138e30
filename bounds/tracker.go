package bounds

import (
	"github.com/sgostarter/libtimechart/plot"
)

const ChunkSize = 512

type Points []plot.Point

func (ps Points) Len() int {
	return len(ps)
}

func (ps Points) At(i int) plot.Point {
	return ps[i]
}

// Tracker keeps per-chunk x/y summaries of a sequence plus cached totals. Chunks are aligned on
// absolute positions, so evicting from the front only touches the first chunk.
type Tracker struct {
	chunks []plot.Accumulator
	// offset is how many positions of the first chunk have been evicted.
	offset int
	total  plot.Accumulator
}

func NewTracker() *Tracker {
	return &Tracker{
		total: plot.NewAccumulator(),
	}
}

func (t *Tracker) Len() int {
	return t.total.Count
}

func (t *Tracker) Rebuild(seq Sequence) {
	n := seq.Len()

	t.chunks = make([]plot.Accumulator, 0, (n+ChunkSize-1)/ChunkSize)
	t.offset = 0
	t.total = plot.NewAccumulator()

	for lo := 0; lo < n; lo += ChunkSize {
		hi := lo + ChunkSize
		if hi > n {
			hi = n
		}

		acc := summarize(seq, lo, hi)

		t.chunks = append(t.chunks, acc)
		t.total.Merge(acc)
	}
}

func (t *Tracker) chunkCapacity(i int) int {
	if i == 0 {
		return ChunkSize - t.offset
	}

	return ChunkSize
}

func (t *Tracker) Append(p plot.Point) {
	last := len(t.chunks) - 1
	if last < 0 || t.chunks[last].Count >= t.chunkCapacity(last) {
		t.chunks = append(t.chunks, plot.NewAccumulator())
		last++
	}

	t.chunks[last].Add(p)
	t.total.Add(p)
}

// EvictFront drops the oldest point. seq must already reflect the eviction.
func (t *Tracker) EvictFront(seq Sequence, evicted plot.Point) {
	if len(t.chunks) == 0 {
		return
	}

	t.offset++

	first := &t.chunks[0]

	switch {
	case t.offset >= ChunkSize || first.Count <= 1:
		t.chunks = t.chunks[1:]
		t.offset = 0
	case isExtremum(first, evicted):
		n := first.Count - 1
		if l := seq.Len(); n > l {
			n = l
		}

		*first = summarize(seq, 0, n)
	default:
		dropCount(first, evicted)
	}

	if len(t.chunks) == 0 {
		t.offset = 0
		t.total = plot.NewAccumulator()

		return
	}

	if isExtremum(&t.total, evicted) {
		t.total = plot.NewAccumulator()
		for _, acc := range t.chunks {
			t.total.Merge(acc)
		}

		return
	}

	dropCount(&t.total, evicted)
}

func (t *Tracker) XBounds() (plot.Range, bool) {
	return t.total.XBounds()
}

func (t *Tracker) YBounds() (plot.Range, bool) {
	return t.total.YBounds()
}

// YRange returns the finite y extent of the points whose x lies in [xMin, xMax]. Chunks entirely
// inside the range are answered from their summary; chunks straddling it are scanned.
func (t *Tracker) YRange(seq Sequence, xMin, xMax float64) (plot.Range, bool) {
	acc := plot.NewAccumulator()

	pos := 0

	for i, chunk := range t.chunks {
		lo := pos
		pos += chunk.Count

		if chunk.Count == 0 || chunk.X.Max < xMin || chunk.X.Min > xMax {
			continue
		}

		if chunk.X.Min >= xMin && chunk.X.Max <= xMax {
			acc.Merge(t.chunks[i])

			continue
		}

		for j := lo; j < pos && j < seq.Len(); j++ {
			if p := seq.At(j); p.X >= xMin && p.X <= xMax {
				acc.Add(p)
			}
		}
	}

	return acc.YBounds()
}

func summarize(seq Sequence, lo, hi int) plot.Accumulator {
	acc := plot.NewAccumulator()

	for i := lo; i < hi; i++ {
		acc.Add(seq.At(i))
	}

	return acc
}

func isExtremum(acc *plot.Accumulator, p plot.Point) bool {
	if p.X <= acc.X.Min || p.X >= acc.X.Max {
		return true
	}

	return plot.IsFinite(p.Y) && (p.Y <= acc.Y.Min || p.Y >= acc.Y.Max)
}

func dropCount(acc *plot.Accumulator, p plot.Point) {
	acc.Count--

	if plot.IsFinite(p.Y) {
		acc.Finite--
	}
}
