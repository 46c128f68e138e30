package chart

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sgostarter/i/commerr"
	"github.com/sgostarter/i/l"
	"github.com/sgostarter/libtimechart/datasource"
	"github.com/sgostarter/libtimechart/decimation"
	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/plot"
	"github.com/sgostarter/libtimechart/transform"
	"github.com/stretchr/testify/assert"
)

func sine(n int) []plot.Point {
	ps := make([]plot.Point, n)
	for i := range ps {
		ps[i] = plot.Point{X: float64(i), Y: math.Sin(float64(i) / 20)}
	}

	return ps
}

func ramp(n int) []plot.Point {
	ps := make([]plot.Point, n)
	for i := range ps {
		ps[i] = plot.Point{X: float64(i), Y: float64(i)}
	}

	return ps
}

func maxY(ps []plot.Point) float64 {
	m := math.Inf(-1)
	for _, p := range ps {
		m = math.Max(m, p.Y)
	}

	return m
}

func assertSorted(t *testing.T, ps []plot.Point) {
	for i := 1; i < len(ps); i++ {
		assert.True(t, ps[i-1].X <= ps[i].X)
	}
}

func TestBulkSeriesFrame(t *testing.T) {
	points := sine(1000)

	s, err := NewBulkSeries(points, Config{}, l.NewConsoleLoggerWrapper())
	assert.Nil(t, err)

	defer func() {
		s.TriggerStop()
		s.Wait()
	}()

	assert.Equal(t, transform.AxisRange{Min: 0, Max: 999}, s.XAxis().Range())

	viewport := transform.Viewport{Width: 100, Height: 50}

	f := s.Frame(viewport)
	assert.True(t, len(f.Data) > 0)
	assert.True(t, len(f.Data) < 200)
	assert.Equal(t, len(f.Data), len(f.Points))
	assertSorted(t, f.Data)
	assert.EqualValues(t, maxY(points), maxY(f.Data))
	assert.InDelta(t, 0, f.Points[0].X, 1e-9)
	assert.InDelta(t, 100, f.Points[len(f.Points)-1].X, 1e-9)
	assert.NotEmpty(t, f.XTicks)
	assert.NotEmpty(t, f.YTicks)

	for _, p := range f.Points {
		assert.True(t, p.Y >= 0 && p.Y <= 50)
	}

	// unchanged inputs reuse the cached aggregation
	again := s.Frame(viewport)
	assert.True(t, &f.Data[0] == &again.Data[0])

	assert.True(t, s.Pan(100))

	moved := s.Frame(viewport)
	assert.EqualValues(t, 100, moved.Window.Min)
	assert.EqualValues(t, 99, moved.Data[0].X)

	s.SetMode(decimation.ModeLTTB)
	assert.Equal(t, decimation.ModeLTTB, s.Mode())
	assert.True(t, s.FitX())

	lttb := s.Frame(viewport)
	assert.Len(t, lttb.Data, 200)
	assertSorted(t, lttb.Data)
}

func TestAutoScaleY(t *testing.T) {
	s, err := NewBulkSeries(ramp(1000), Config{}, nil)
	assert.Nil(t, err)

	defer func() {
		s.TriggerStop()
		s.Wait()
	}()

	y := s.YAxis().Range()
	assert.InDelta(t, -49.95, y.Min, 1e-9)
	assert.InDelta(t, 1048.95, y.Max, 1e-9)

	assert.True(t, s.ZoomAt(0, 0.1))
	assert.InDelta(t, 99.9, s.XAxis().Range().Max, 1e-9)

	assert.True(t, s.AutoScaleY())

	y = s.YAxis().Range()
	assert.InDelta(t, -4.95, y.Min, 1e-9)
	assert.InDelta(t, 103.95, y.Max, 1e-9)

	assert.False(t, s.AutoScaleY())

	assert.True(t, s.PanPixels(-50, 100))
	assert.InDelta(t, 49.95, s.XAxis().Range().Min, 1e-9)
}

func TestSeriesCollapsesGaps(t *testing.T) {
	var points []plot.Point

	for x := 0; x < 1000; x++ {
		if x >= 400 && x < 600 {
			continue
		}

		points = append(points, plot.Point{X: float64(x), Y: float64(x % 50)})
	}

	cfg := Config{
		Rules: []gaps.RuleConfig{
			{Kind: "fixed", Params: map[string]interface{}{"start": 400, "end": 600}},
		},
	}

	s, err := NewBulkSeries(points, cfg, nil)
	assert.Nil(t, err)

	defer func() {
		s.TriggerStop()
		s.Wait()
	}()

	assert.Equal(t, 1, s.Mapper().Index().Len())

	f := s.Frame(transform.Viewport{Width: 100, Height: 50})
	assert.InDelta(t, 799, f.Window.Span(), 1e-9)
	assert.InDelta(t, f.Transform.MapX(400), f.Transform.MapX(600), 1e-9)
	assert.True(t, f.Transform.MapX(399) < f.Transform.MapX(600))
	assert.InDelta(t, 0, f.Transform.MapX(0), 1e-9)
	assert.InDelta(t, 100, f.Transform.MapX(999), 1e-9)

	for _, p := range f.Data {
		assert.False(t, p.X >= 400 && p.X < 600)
	}

	for _, tick := range f.XTicks {
		assert.False(t, tick.Value >= 400 && tick.Value < 600)
	}
}

func TestSetExclusionRulesKeepsCentre(t *testing.T) {
	s, err := NewBulkSeries(ramp(1000), Config{}, nil)
	assert.Nil(t, err)

	defer func() {
		s.TriggerStop()
		s.Wait()
	}()

	assert.InDelta(t, 499.5, s.XAxis().Range().Center(), 1e-9)

	assert.Nil(t, s.SetExclusionRules([]gaps.Rule{gaps.Fixed{Start: 100, End: 300}}))

	idx := s.Mapper().Index()
	assert.Equal(t, 1, idx.Len())
	assert.InDelta(t, 499.5, idx.ToRealF(s.XAxis().Range().Center()), 1e-6)
	assert.InDelta(t, 999, s.XAxis().Range().Span(), 1e-6)

	version := s.Mapper().Version()
	xr := s.XAxis().Range()

	err = s.SetExclusionRules([]gaps.Rule{gaps.Fixed{Start: 5, End: 1}})
	assert.ErrorIs(t, err, commerr.ErrInvalidArgument)
	assert.Equal(t, version, s.Mapper().Version())
	assert.Equal(t, xr, s.XAxis().Range())
}

func TestStreamingSeries(t *testing.T) {
	s, err := NewStreamingSeries(Config{Streaming: datasource.StreamingConfig{Capacity: 1000}}, nil)
	assert.Nil(t, err)

	defer func() {
		s.TriggerStop()
		s.Wait()
	}()

	for i := 0; i < 3000; i++ {
		assert.Nil(t, s.Push(plot.Point{X: float64(i), Y: float64(i % 100)}))
	}

	assert.Equal(t, 1000, s.Source().Len())
	assert.True(t, s.FitX())
	assert.Equal(t, transform.AxisRange{Min: 2000, Max: 2999}, s.XAxis().Range())

	viewport := transform.Viewport{Width: 100, Height: 50}

	f := s.Frame(viewport)
	assert.EqualValues(t, 3000, f.Generation)

	for _, p := range f.Data {
		assert.True(t, p.X >= 2000)
	}

	assert.Nil(t, s.Commit(context.Background()))
	assert.NotNil(t, s.Source().Streaming().Snapshot())

	f = s.Frame(viewport)
	for _, p := range f.Data {
		assert.True(t, p.X >= 2000)
	}

	assert.ErrorIs(t, s.SetData(nil), ErrUnsupported)
}

func TestAppendableSeries(t *testing.T) {
	s, err := NewAppendableSeries(Config{}, nil)
	assert.Nil(t, err)

	defer func() {
		s.TriggerStop()
		s.Wait()
	}()

	for i := 0; i < 10; i++ {
		assert.Nil(t, s.Push(plot.Point{X: float64(i), Y: 1}))
	}

	assert.Equal(t, 10, s.Source().Len())

	assert.Nil(t, s.SetData(ramp(500)))
	assert.True(t, s.FitX())

	f := s.Frame(transform.Viewport{Width: 50, Height: 50})
	assert.True(t, len(f.Data) <= 100)
	assert.EqualValues(t, 499, maxY(f.Data))

	assert.Nil(t, s.Commit(context.Background()))
}

func TestBulkSeriesIsImmutable(t *testing.T) {
	s, err := NewBulkSeries(ramp(10), Config{}, nil)
	assert.Nil(t, err)

	defer func() {
		s.TriggerStop()
		s.Wait()
	}()

	assert.ErrorIs(t, s.Push(plot.Point{X: 11}), ErrImmutable)
	assert.ErrorIs(t, s.SetData(nil), ErrUnsupported)
	assert.Nil(t, s.Commit(context.Background()))
}

func TestSharedXAxis(t *testing.T) {
	a, err := NewBulkSeries(ramp(100), Config{}, nil)
	assert.Nil(t, err)

	defer func() {
		a.TriggerStop()
		a.Wait()
	}()

	b, err := NewBulkSeries(ramp(50), Config{}, nil, SharedXOption(a.XAxis()), MapperOption(a.Mapper()))
	assert.Nil(t, err)

	defer func() {
		b.TriggerStop()
		b.Wait()
	}()

	assert.True(t, a.Pan(10))
	assert.Equal(t, a.XAxis().Range(), b.XAxis().Range())
	assert.Equal(t, transform.AxisRange{Min: 10, Max: 109}, b.XAxis().Range())
}

func TestParseConfigYAML(t *testing.T) {
	cfg, err := ParseConfigYAML([]byte(`
mode: lttb
points_per_pixel: 3
cache_ttl: 5s
y_scale: log
auto_scale_y: true
streaming:
  capacity: 100
rules:
  - kind: numeric
    modulo: 7
    width: 2
`))
	assert.Nil(t, err)
	assert.Equal(t, decimation.ModeLTTB, cfg.Mode)
	assert.EqualValues(t, 3, cfg.PointsPerPixel)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.Equal(t, transform.ScaleLog, cfg.YScale)
	assert.True(t, cfg.AutoScaleY)
	assert.Equal(t, 100, cfg.Streaming.Capacity)
	assert.Equal(t, DefaultTickCount, cfg.TickCount)
	assert.EqualValues(t, transform.DefaultMargin, cfg.YMargin)

	rules, err := cfg.ExclusionRules()
	assert.Nil(t, err)
	assert.Equal(t, []gaps.Rule{gaps.RecurringNumeric{Modulo: 7, Width: 2}}, rules)

	_, err = ParseConfigYAML([]byte("mode: spline"))
	assert.ErrorIs(t, err, decimation.ErrUnknownMode)
}
