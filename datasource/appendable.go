package datasource

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/godruoyi/go-snowflake"
	"github.com/sgostarter/i/l"
	"github.com/sgostarter/libtimechart/bounds"
	"github.com/sgostarter/libtimechart/lod"
	"github.com/sgostarter/libtimechart/plot"
)

// Appendable is a growable in-memory source. Appends in x order are incremental: bounds are
// updated in place and the pyramid keeps serving the prefix it covers. Everything else is a
// structural change that starts a new generation.
type Appendable struct {
	logger l.Wrapper

	lock       sync.RWMutex
	cols       columns
	tracker    *bounds.Tracker
	generation uint64
	// pyramidLen is the length the last pyramid was requested for.
	pyramidLen int

	builder *lod.Builder
	pyramid atomic.Pointer[lod.Pyramid]
}

func NewAppendable(builder *lod.Builder, logger l.Wrapper) *Appendable {
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	a := &Appendable{
		logger:  logger.WithFields(l.StringField(l.ClsKey, "Appendable")),
		tracker: bounds.NewTracker(),
		builder: builder,
	}

	a.resetLocked(columns{})

	return a
}

func (impl *Appendable) Len() int {
	impl.lock.RLock()
	defer impl.lock.RUnlock()

	return impl.cols.Len()
}

func (impl *Appendable) Generation() uint64 {
	impl.lock.RLock()
	defer impl.lock.RUnlock()

	return impl.generation
}

func (impl *Appendable) Append(p plot.Point) error {
	if !plot.IsFinite(p.X) {
		return ErrNotFinite
	}

	impl.lock.Lock()
	defer impl.lock.Unlock()

	n := impl.cols.Len()
	if n == 0 || p.X >= impl.cols.xs[n-1] {
		impl.cols = impl.cols.append(p)
		impl.tracker.Append(p)

		// the uncovered tail is served raw; rebuild once it outgrows the covered prefix
		if impl.cols.Len() >= 2*impl.pyramidLen {
			impl.requestPyramidLocked()
		}

		return nil
	}

	pos := sort.SearchFloat64s(impl.cols.xs, p.X)
	for pos < n && impl.cols.xs[pos] == p.X {
		pos++
	}

	points := make([]plot.Point, 0, n+1)
	for i := 0; i < pos; i++ {
		points = append(points, impl.cols.At(i))
	}

	points = append(points, p)

	for i := pos; i < n; i++ {
		points = append(points, impl.cols.At(i))
	}

	impl.resetLocked(newColumns(points))

	return nil
}

// SetData replaces the content; points are sorted by x when needed.
func (impl *Appendable) SetData(points []plot.Point) {
	points = append([]plot.Point(nil), points...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })

	impl.lock.Lock()
	defer impl.lock.Unlock()

	impl.resetLocked(newColumns(points))
}

func (impl *Appendable) Clear() {
	impl.lock.Lock()
	defer impl.lock.Unlock()

	impl.resetLocked(columns{})
}

// Snapshot returns an immutable Bulk with the current content.
func (impl *Appendable) Snapshot() *Bulk {
	impl.lock.RLock()
	defer impl.lock.RUnlock()

	return newBulkFromColumns(impl.cols, impl.generation)
}

// BuildPyramid builds the pyramid for the current content on the calling goroutine.
func (impl *Appendable) BuildPyramid(ctx context.Context) error {
	impl.lock.RLock()
	cols, generation := impl.cols, impl.generation
	impl.lock.RUnlock()

	p, err := lod.Build(ctx, cols, generation)
	if err != nil || p == nil {
		return err
	}

	impl.lock.Lock()
	defer impl.lock.Unlock()

	if impl.generation == generation {
		impl.pyramid.Store(p)
		impl.pyramidLen = cols.Len()
	}

	return nil
}

func (impl *Appendable) Pyramid() *lod.Pyramid {
	impl.lock.RLock()
	defer impl.lock.RUnlock()

	return impl.pyramidLocked()
}

// pyramidLocked returns the newest pyramid of the current generation. Appends keep the
// generation, so an older pyramid still describes a prefix of the data.
func (impl *Appendable) pyramidLocked() *lod.Pyramid {
	if p := impl.pyramid.Load(); p != nil && p.Generation == impl.generation {
		return p
	}

	if impl.builder == nil {
		return nil
	}

	return impl.builder.CurrentFor(impl.generation)
}

func (impl *Appendable) resetLocked(cols columns) {
	impl.cols = cols
	impl.tracker.Rebuild(cols)
	impl.generation = snowflake.ID()
	impl.pyramid.Store(nil)
	impl.pyramidLen = 0

	impl.logger.WithFields(l.UInt64Field("generation", impl.generation), l.IntField("points", cols.Len())).Debug("structural change")

	impl.requestPyramidLocked()
}

func (impl *Appendable) requestPyramidLocked() {
	if impl.builder == nil || impl.cols.Len() < lod.MinPoints {
		return
	}

	impl.pyramidLen = impl.cols.Len()
	impl.builder.Submit(impl.cols, impl.generation)
}

func (impl *Appendable) viewLocked() view {
	return view{
		seq:     impl.cols,
		tracker: impl.tracker,
		pyramid: impl.pyramidLocked(),
	}
}
