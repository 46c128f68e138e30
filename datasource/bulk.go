package datasource

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/godruoyi/go-snowflake"
	"github.com/sgostarter/libtimechart/bounds"
	"github.com/sgostarter/libtimechart/lod"
	"github.com/sgostarter/libtimechart/plot"
)

// Bulk is an immutable columnar snapshot. Its pyramid is built lazily, either synchronously with
// BuildPyramid or in the background by a lod.Builder.
type Bulk struct {
	cols       columns
	tracker    *bounds.Tracker
	generation uint64
	spacing    float64

	builder *lod.Builder
	pyramid atomic.Pointer[lod.Pyramid]
}

// NewBulk takes ownership of points, sorting them by x when needed.
func NewBulk(points []plot.Point) *Bulk {
	if !sort.SliceIsSorted(points, func(i, j int) bool { return points[i].X < points[j].X }) {
		sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })
	}

	return newBulkFromColumns(newColumns(points), snowflake.ID())
}

func newBulkFromColumns(cols columns, generation uint64) *Bulk {
	tracker := bounds.NewTracker()
	tracker.Rebuild(cols)

	return &Bulk{
		cols:       cols,
		tracker:    tracker,
		generation: generation,
		spacing:    minSpacing(cols.xs),
	}
}

func (b *Bulk) Len() int {
	return b.cols.Len()
}

func (b *Bulk) Generation() uint64 {
	return b.generation
}

func (b *Bulk) At(i int) plot.Point {
	return b.cols.At(i)
}

func (b *Bulk) Points() []plot.Point {
	return b.cols.points()
}

// SuggestedSpacing is the smallest positive x step of the data.
func (b *Bulk) SuggestedSpacing() float64 {
	return b.spacing
}

// BuildPyramid builds and installs the pyramid on the calling goroutine.
func (b *Bulk) BuildPyramid(ctx context.Context) error {
	p, err := lod.Build(ctx, b.cols, b.generation)
	if err != nil {
		return err
	}

	if p != nil {
		b.pyramid.Store(p)
	}

	return nil
}

// UseBuilder hands the pyramid build to a background builder. Queries run on raw data until the
// builder publishes this generation.
func (b *Bulk) UseBuilder(builder *lod.Builder) {
	b.builder = builder

	if builder != nil && b.cols.Len() >= lod.MinPoints {
		builder.Submit(b.cols, b.generation)
	}
}

func (b *Bulk) Pyramid() *lod.Pyramid {
	if p := b.pyramid.Load(); p != nil {
		return p
	}

	if b.builder == nil {
		return nil
	}

	return b.builder.CurrentFor(b.generation)
}

func (b *Bulk) view() view {
	return view{
		seq:     b.cols,
		tracker: b.tracker,
		pyramid: b.Pyramid(),
	}
}
