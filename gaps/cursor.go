package gaps

// Cursor maps monotonically increasing inputs in O(1) amortized time. Going backwards falls
// back to a binary search, so results always match the Index.
type Cursor struct {
	idx *Index
	// pos is the number of segments with StartReal <= the last real input.
	pos int
	// lpos is the number of segments with logical start <= the last logical input.
	lpos int
	// opos is the number of segments with EndReal <= the last real input.
	opos int
}

func (c *Cursor) Reset() {
	c.pos = 0
	c.lpos = 0
	c.opos = 0
}

func (c *Cursor) ToLogical(real float64) float64 {
	n := c.idx.Len()
	if n == 0 {
		return real
	}

	segments := c.idx.segments

	if c.pos > 0 && float64(segments[c.pos-1].StartReal) > real {
		c.pos = c.idx.startsAtOrBefore(real)
	} else {
		for c.pos < n && float64(segments[c.pos].StartReal) <= real {
			c.pos++
		}
	}

	if c.pos == 0 {
		return real - float64(c.idx.shift)
	}

	seg := segments[c.pos-1]
	if real < float64(seg.EndReal) {
		return float64(seg.StartReal - seg.CumulativeGap - c.idx.shift)
	}

	return real - float64(seg.CumulativeGap+seg.Duration()+c.idx.shift)
}

func (c *Cursor) ToReal(logical float64) float64 {
	n := c.idx.Len()
	if n == 0 {
		return logical
	}

	starts := c.idx.logicalStarts
	raw := logical + float64(c.idx.shift)

	if c.lpos > 0 && float64(starts[c.lpos-1]) > raw {
		c.lpos = 0
	}

	for c.lpos < n && float64(starts[c.lpos]) <= raw {
		c.lpos++
	}

	if c.lpos == 0 {
		return raw
	}

	seg := c.idx.segments[c.lpos-1]

	return raw + float64(seg.CumulativeGap+seg.Duration())
}

func (c *Cursor) GapOrdinal(real float64) int {
	n := c.idx.Len()
	if n == 0 {
		return 0
	}

	segments := c.idx.segments

	if c.opos > 0 && float64(segments[c.opos-1].EndReal) > real {
		c.opos = c.idx.GapOrdinal(real)

		return c.opos
	}

	for c.opos < n && float64(segments[c.opos].EndReal) <= real {
		c.opos++
	}

	return c.opos
}
