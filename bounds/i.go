package bounds

import "github.com/sgostarter/libtimechart/plot"

// Sequence is an indexed view over points, index 0 being the oldest live point.
type Sequence interface {
	Len() int
	At(i int) plot.Point
}
