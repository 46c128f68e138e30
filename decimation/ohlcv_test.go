package decimation

import (
	"math"
	"testing"

	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
	"github.com/stretchr/testify/assert"
)

func bars(n int) []Bar {
	bs := make([]Bar, n)
	for i := range bs {
		v := float64(i)
		bs[i] = Bar{X: v, Open: v, High: v + 10, Low: v - 10, Close: v + 1, Volume: 1}
	}

	return bs
}

func TestAggregateBars(t *testing.T) {
	bs := bars(100)
	bs[3].Open = math.NaN()
	bs[0].Open = math.NaN()
	bs[7].Close = math.NaN()
	bs[5].High = 1000

	out := AggregateBars(bs, Request{Window: plot.Range{Min: 0, Max: 100}, Budget: 10})
	assert.Len(t, out, 10)

	first := out[0]
	assert.EqualValues(t, 0, first.X)
	assert.EqualValues(t, 10, first.Span)
	assert.EqualValues(t, 1, first.Open)
	assert.EqualValues(t, 1000, first.High)
	assert.EqualValues(t, -10, first.Low)
	assert.EqualValues(t, 10, first.Close)
	assert.EqualValues(t, 10, first.Volume)

	last := out[9]
	assert.EqualValues(t, 90, last.X)
	assert.EqualValues(t, 90, last.Open)
	assert.EqualValues(t, 109, last.High)
	assert.EqualValues(t, 80, last.Low)
	assert.EqualValues(t, 100, last.Close)
}

func TestAggregateBarsDegenerate(t *testing.T) {
	assert.Equal(t, []Bar{}, AggregateBars(nil, Request{Window: plot.Range{Max: 10}, Budget: 4}))

	bs := bars(8)
	assert.Equal(t, bs, AggregateBars(bs, Request{Window: plot.Range{Max: 8}, Budget: 10}))
	assert.Equal(t, bs, AggregateBars(bs, Request{Window: plot.Range{Min: 3, Max: 3}, Budget: 2}))

	bs[2].High, bs[3].High = math.NaN(), math.NaN()

	out := AggregateBars(bs, Request{Window: plot.Range{Max: 8}, Budget: 4})
	assert.Len(t, out, 3)
	assert.EqualValues(t, 0, out[0].X)
	assert.EqualValues(t, 4, out[1].X)
}

func TestAggregateBarsWithGaps(t *testing.T) {
	idx, err := gaps.Build([]gaps.Rule{gaps.Fixed{Start: 40, End: 60}}, gaps.Horizon{Start: 0, End: 100})
	assert.Nil(t, err)

	bs := bars(100)
	bs[50].High = 1e6

	out := AggregateBars(bs, Request{Window: plot.Range{Min: 0, Max: 80}, Budget: 8, Gaps: idx})
	assert.Len(t, out, 8)

	volume := 0.0

	for _, b := range out {
		assert.False(t, b.X >= 40 && b.X < 60)
		assert.True(t, b.High < 1e6)

		volume += b.Volume
	}

	assert.EqualValues(t, 80, volume)
	assert.EqualValues(t, 60, out[4].X)
}
