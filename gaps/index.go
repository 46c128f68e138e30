package gaps

import (
	"sort"
)

// Index maps real time to logical time, where every segment is compressed to zero width.
// A nil *Index is the identity mapping.
type Index struct {
	segments []Segment
	// logicalStarts[i] is the raw logical coordinate of segments[i].StartReal.
	logicalStarts []int64
	total         int64
	// shift pins the logical origin to an anchor so that growing the horizon does not move
	// logical coordinates inside the previous horizon.
	shift int64
}

func newIndex(segments []Segment, shift int64) *Index {
	idx := &Index{
		segments:      segments,
		logicalStarts: make([]int64, len(segments)),
		shift:         shift,
	}

	var cumulative int64

	for i := range idx.segments {
		idx.segments[i].CumulativeGap = cumulative
		idx.logicalStarts[i] = idx.segments[i].StartReal - cumulative
		cumulative += idx.segments[i].Duration()
	}

	idx.total = cumulative

	return idx
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}

	return len(idx.segments)
}

func (idx *Index) Segments() []Segment {
	if idx == nil {
		return nil
	}

	return idx.segments
}

func (idx *Index) TotalGap() int64 {
	if idx == nil {
		return 0
	}

	return idx.total
}

// startsAtOrBefore returns the number of segments with StartReal <= real.
func (idx *Index) startsAtOrBefore(real float64) int {
	return sort.Search(len(idx.segments), func(i int) bool {
		return float64(idx.segments[i].StartReal) > real
	})
}

func (idx *Index) ToLogical(real int64) int64 {
	if idx.Len() == 0 {
		return real
	}

	i := sort.Search(len(idx.segments), func(i int) bool {
		return idx.segments[i].StartReal > real
	})
	if i == 0 {
		return real - idx.shift
	}

	seg := idx.segments[i-1]
	if real < seg.EndReal {
		return seg.StartReal - seg.CumulativeGap - idx.shift
	}

	return real - seg.CumulativeGap - seg.Duration() - idx.shift
}

func (idx *Index) ToReal(logical int64) int64 {
	if idx.Len() == 0 {
		return logical
	}

	raw := logical + idx.shift

	i := sort.Search(len(idx.logicalStarts), func(i int) bool {
		return idx.logicalStarts[i] > raw
	})
	if i == 0 {
		return raw
	}

	seg := idx.segments[i-1]

	return raw + seg.CumulativeGap + seg.Duration()
}

func (idx *Index) ToLogicalF(real float64) float64 {
	if idx.Len() == 0 {
		return real
	}

	i := idx.startsAtOrBefore(real)
	if i == 0 {
		return real - float64(idx.shift)
	}

	seg := idx.segments[i-1]
	if real < float64(seg.EndReal) {
		return float64(seg.StartReal - seg.CumulativeGap - idx.shift)
	}

	return real - float64(seg.CumulativeGap+seg.Duration()+idx.shift)
}

func (idx *Index) ToRealF(logical float64) float64 {
	if idx.Len() == 0 {
		return logical
	}

	raw := logical + float64(idx.shift)

	i := sort.Search(len(idx.logicalStarts), func(i int) bool {
		return float64(idx.logicalStarts[i]) > raw
	})
	if i == 0 {
		return raw
	}

	seg := idx.segments[i-1]

	return raw + float64(seg.CumulativeGap+seg.Duration())
}

func (idx *Index) IsInside(real int64) bool {
	if idx.Len() == 0 {
		return false
	}

	i := sort.Search(len(idx.segments), func(i int) bool {
		return idx.segments[i].StartReal > real
	})

	return i > 0 && real < idx.segments[i-1].EndReal
}

// GapOrdinal returns how many segments end at or before real; points with equal ordinal are
// not separated by any gap.
func (idx *Index) GapOrdinal(real float64) int {
	if idx.Len() == 0 {
		return 0
	}

	return sort.Search(len(idx.segments), func(i int) bool {
		return float64(idx.segments[i].EndReal) > real
	})
}

// SegmentsIn returns the segments intersecting [start, end].
func (idx *Index) SegmentsIn(start, end float64) []Segment {
	if idx.Len() == 0 || end < start {
		return nil
	}

	lo := sort.Search(len(idx.segments), func(i int) bool {
		return float64(idx.segments[i].EndReal) > start
	})
	hi := idx.startsAtOrBefore(end)

	if lo >= hi {
		return nil
	}

	return idx.segments[lo:hi]
}

// SplitRange splits the real range [start, end) into the visible sub-ranges between gaps.
func (idx *Index) SplitRange(start, end int64) [][2]int64 {
	if idx.Len() == 0 {
		return [][2]int64{{start, end}}
	}

	var result [][2]int64

	current := start

	for _, seg := range idx.SegmentsIn(float64(start), float64(end)) {
		if seg.StartReal >= end {
			break
		}

		if seg.StartReal > current {
			result = append(result, [2]int64{current, seg.StartReal})
		}

		if seg.EndReal > current {
			current = seg.EndReal
		}
	}

	if current < end {
		result = append(result, [2]int64{current, end})
	}

	return result
}

func (idx *Index) Cursor() *Cursor {
	return &Cursor{idx: idx}
}
