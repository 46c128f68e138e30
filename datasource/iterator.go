package datasource

import (
	"github.com/sgostarter/libtimechart/bounds"
	"github.com/sgostarter/libtimechart/plot"
)

// Iterator walks raw points of a range plus one overflow point on each side. It is finite and
// can be restarted with Reset.
type Iterator struct {
	seq bounds.Sequence
	lo  int
	hi  int
	pos int
}

func newIterator(seq bounds.Sequence, lo, hi int) *Iterator {
	return &Iterator{
		seq: seq,
		lo:  lo,
		hi:  hi,
		pos: lo,
	}
}

func (it *Iterator) Next() (p plot.Point, ok bool) {
	if it.pos >= it.hi {
		return
	}

	p, ok = it.seq.At(it.pos), true
	it.pos++

	return
}

func (it *Iterator) Reset() {
	it.pos = it.lo
}

func (it *Iterator) Len() int {
	return it.hi - it.lo
}

func (it *Iterator) Collect() []plot.Point {
	ps := make([]plot.Point, 0, it.Len())
	for i := it.lo; i < it.hi; i++ {
		ps = append(ps, it.seq.At(i))
	}

	return ps
}
