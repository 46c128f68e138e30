package datasource

import "github.com/sgostarter/libtimechart/gaps"

// GapSource provides the gap index in effect; a nil index means no gaps.
type GapSource interface {
	Index() *gaps.Index
}
