package datasource

import (
	"github.com/sgostarter/libtimechart/bounds"
	"github.com/sgostarter/libtimechart/decimation"
	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
)

// Source is a closed tagged union over the three variants. Queries take logical x bounds and are
// converted to real x with the gap index of the GapSource.
type Source struct {
	kind       Kind
	bulk       *Bulk
	appendable *Appendable
	streaming  *Streaming

	gapSource GapSource
}

func NewBulkSource(b *Bulk, gapSource GapSource) *Source {
	return &Source{kind: KindBulk, bulk: b, gapSource: gapSource}
}

func NewAppendableSource(a *Appendable, gapSource GapSource) *Source {
	return &Source{kind: KindAppendable, appendable: a, gapSource: gapSource}
}

func NewStreamingSource(s *Streaming, gapSource GapSource) *Source {
	return &Source{kind: KindStreaming, streaming: s, gapSource: gapSource}
}

func (s *Source) Kind() Kind {
	return s.kind
}

func (s *Source) Bulk() *Bulk {
	return s.bulk
}

func (s *Source) Appendable() *Appendable {
	return s.appendable
}

func (s *Source) Streaming() *Streaming {
	return s.streaming
}

func (s *Source) gapIndex() *gaps.Index {
	if s.gapSource == nil {
		return nil
	}

	return s.gapSource.Index()
}

// withView runs fn against a consistent view of the source.
func (s *Source) withView(fn func(v view)) {
	switch s.kind {
	case KindBulk:
		fn(s.bulk.view())
	case KindAppendable:
		s.appendable.lock.RLock()
		defer s.appendable.lock.RUnlock()

		fn(s.appendable.viewLocked())
	case KindStreaming:
		s.streaming.lock.RLock()
		defer s.streaming.lock.RUnlock()

		fn(s.streaming.viewLocked())
	}
}

// IterRange iterates the raw points in the logical range plus one overflow point on each side.
// Streaming data is copied since the ring keeps moving.
func (s *Source) IterRange(lmin, lmax float64) (it *Iterator) {
	idx := s.gapIndex()

	s.withView(func(v view) {
		it = v.iterRange(idx, lmin, lmax)

		if s.kind == KindStreaming {
			copied := it.Collect()
			it = newIterator(bounds.Points(copied), 0, len(copied))
		}
	})

	return
}

func (s *Source) IterAggregated(lmin, lmax float64, budget int, mode decimation.Mode) (ps []plot.Point) {
	idx := s.gapIndex()

	s.withView(func(v view) {
		ps = v.iterAggregated(idx, lmin, lmax, budget, mode)
	})

	return
}

// YRange returns the finite y extent of the points inside the logical range; false means no data.
func (s *Source) YRange(lmin, lmax float64) (r plot.Range, ok bool) {
	idx := s.gapIndex()

	s.withView(func(v view) {
		r, ok = v.yRange(idx, lmin, lmax)
	})

	return
}

// XBounds returns the real x extent of the source; false means no data.
func (s *Source) XBounds() (r plot.Range, ok bool) {
	s.withView(func(v view) {
		r, ok = v.tracker.XBounds()
	})

	return
}

// LogicalXBounds is XBounds mapped through the gap index.
func (s *Source) LogicalXBounds() (plot.Range, bool) {
	r, ok := s.XBounds()
	if !ok {
		return r, false
	}

	idx := s.gapIndex()

	return plot.Range{Min: idx.ToLogicalF(r.Min), Max: idx.ToLogicalF(r.Max)}, true
}

func (s *Source) Len() int {
	switch s.kind {
	case KindBulk:
		return s.bulk.Len()
	case KindAppendable:
		return s.appendable.Len()
	case KindStreaming:
		return s.streaming.Len()
	}

	return 0
}

func (s *Source) Generation() uint64 {
	switch s.kind {
	case KindBulk:
		return s.bulk.Generation()
	case KindAppendable:
		return s.appendable.Generation()
	case KindStreaming:
		return s.streaming.Generation()
	}

	return 0
}

func (s *Source) SuggestedSpacing() float64 {
	switch s.kind {
	case KindBulk:
		return s.bulk.SuggestedSpacing()
	case KindAppendable:
		s.appendable.lock.RLock()
		defer s.appendable.lock.RUnlock()

		return minSpacing(s.appendable.cols.xs)
	case KindStreaming:
		return s.streaming.SuggestedSpacing()
	}

	return 0
}
