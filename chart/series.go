package chart

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/patrickmn/go-cache"
	"github.com/sgostarter/i/l"
	"github.com/sgostarter/libtimechart/datasource"
	"github.com/sgostarter/libtimechart/decimation"
	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/lod"
	"github.com/sgostarter/libtimechart/plot"
	"github.com/sgostarter/libtimechart/transform"
)

// Frame is everything needed to draw one series into a viewport. Data is shared with the frame
// cache and must not be modified.
type Frame struct {
	Generation   uint64
	IndexVersion uint64
	Window       transform.AxisRange
	Transform    transform.Transform
	Data         []plot.Point
	Points       []plot.ScreenPoint
	XTicks       []transform.Tick
	YTicks       []transform.Tick
}

// Series ties a data source to the gap mapper and its axes and turns the visible window into
// screen points.
type Series struct {
	logger l.Wrapper
	cfg    Config

	source  *datasource.Source
	mapper  *gaps.Mapper
	builder *lod.Builder
	xAxis   *transform.SharedAxis
	yAxis   *transform.SharedAxis

	mode   atomic.Int32
	frames *cache.Cache
}

func newSeries(cfg Config, logger l.Wrapper, opts *Options) (*Series, error) {
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	cfg.fix()

	mapper := opts.mapper
	if mapper == nil {
		rules, err := cfg.ExclusionRules()
		if err != nil {
			return nil, err
		}

		mapper, err = gaps.NewMapper(rules, cfg.Horizon, logger)
		if err != nil {
			return nil, err
		}
	}

	s := &Series{
		logger: logger.WithFields(l.StringField(l.ClsKey, "Series")),
		cfg:    cfg,
		mapper: mapper,
		frames: cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
	}

	s.mode.Store(int32(cfg.Mode))

	return s, nil
}

func NewBulkSeries(points []plot.Point, cfg Config, logger l.Wrapper, opts ...Option) (*Series, error) {
	options := optionNew(opts...)

	s, err := newSeries(cfg, logger, options)
	if err != nil {
		return nil, err
	}

	s.builder = lod.NewBuilder(s.pyramidBuilt, logger)

	bulk := datasource.NewBulk(points)
	bulk.UseBuilder(s.builder)

	s.source = datasource.NewBulkSource(bulk, s.mapper)
	s.initAxes(options)

	return s, nil
}

func NewAppendableSeries(cfg Config, logger l.Wrapper, opts ...Option) (*Series, error) {
	options := optionNew(opts...)

	s, err := newSeries(cfg, logger, options)
	if err != nil {
		return nil, err
	}

	s.builder = lod.NewBuilder(s.pyramidBuilt, logger)

	s.source = datasource.NewAppendableSource(datasource.NewAppendable(s.builder, logger), s.mapper)
	s.initAxes(options)

	return s, nil
}

func NewStreamingSeries(cfg Config, logger l.Wrapper, opts ...Option) (*Series, error) {
	options := optionNew(opts...)

	s, err := newSeries(cfg, logger, options)
	if err != nil {
		return nil, err
	}

	streaming, err := datasource.NewStreaming(s.cfg.Streaming, logger)
	if err != nil {
		return nil, err
	}

	s.source = datasource.NewStreamingSource(streaming, s.mapper)
	s.initAxes(options)

	return s, nil
}

func (impl *Series) initAxes(opts *Options) {
	impl.xAxis = opts.xAxis
	if impl.xAxis == nil {
		impl.xAxis = transform.NewSharedAxis(impl.dataXRange(), impl.cfg.XLimits, impl.logger)
	}

	impl.yAxis = opts.yAxis
	if impl.yAxis == nil {
		impl.yAxis = transform.NewSharedAxis(impl.dataYRange(impl.xAxis.Load().Clamped), impl.cfg.YLimits, impl.logger)
	}
}

// dataXRange is the logical extent of the data, after the gap horizon was expanded over it.
func (impl *Series) dataXRange() transform.AxisRange {
	xr, ok := impl.source.XBounds()
	if !ok {
		return transform.AutoFit(math.Inf(1), math.Inf(-1), 0)
	}

	impl.mapper.EnsureHorizon(xr.Min, xr.Max)

	lr, _ := impl.source.LogicalXBounds()

	return transform.AutoFit(lr.Min, lr.Max, 0)
}

func (impl *Series) dataYRange(window transform.AxisRange) transform.AxisRange {
	yr, ok := impl.source.YRange(window.Min, window.Max)
	if !ok {
		return transform.AutoFit(math.Inf(1), math.Inf(-1), impl.cfg.YMargin)
	}

	return transform.AutoFit(yr.Min, yr.Max, impl.cfg.YMargin)
}

func (impl *Series) pyramidBuilt(p *lod.Pyramid) {
	impl.frames.Flush()

	impl.logger.WithFields(l.UInt64Field("generation", p.Generation), l.IntField("levels", len(p.Levels))).Debug("pyramid ready")
}

func (impl *Series) TriggerStop() {
	if impl.builder != nil {
		impl.builder.TriggerStop()
	}

	if streaming := impl.source.Streaming(); streaming != nil {
		streaming.TriggerStop()
	}
}

func (impl *Series) Wait() {
	if impl.builder != nil {
		impl.builder.Wait()
	}

	if streaming := impl.source.Streaming(); streaming != nil {
		streaming.Wait()
	}
}

func (impl *Series) Source() *datasource.Source {
	return impl.source
}

func (impl *Series) Mapper() *gaps.Mapper {
	return impl.mapper
}

func (impl *Series) XAxis() *transform.SharedAxis {
	return impl.xAxis
}

func (impl *Series) YAxis() *transform.SharedAxis {
	return impl.yAxis
}

func (impl *Series) Mode() decimation.Mode {
	return decimation.Mode(impl.mode.Load())
}

func (impl *Series) SetMode(mode decimation.Mode) {
	impl.mode.Store(int32(mode))
}

// Frame runs the render pipeline: axis snapshot, gap horizon, aggregation of the visible window
// within a budget derived from the pixel width, then the mapping to screen space.
func (impl *Series) Frame(viewport transform.Viewport) *Frame {
	window := impl.xAxis.Load().Clamped

	idx := impl.mapper.Index()
	if impl.mapper.EnsureHorizon(idx.ToRealF(window.Min), idx.ToRealF(window.Max)) {
		idx = impl.mapper.Index()
	}

	budget := int(math.Ceil(viewport.Width * impl.cfg.PointsPerPixel))
	if budget < minBudget {
		budget = minBudget
	}

	generation := impl.source.Generation()
	data := impl.aggregated(window, budget, impl.Mode(), generation)

	if impl.cfg.AutoScaleY {
		impl.fitY(window)
	}

	tr := transform.Transform{
		X: transform.Axis{
			Scale: transform.ScaleTime,
			Range: window,
			Gaps:  idx,
		},
		Y: transform.Axis{
			Scale: impl.cfg.YScale,
			Range: impl.yAxis.Load().Clamped,
		},
		Viewport: viewport,
	}

	return &Frame{
		Generation:   generation,
		IndexVersion: impl.mapper.Version(),
		Window:       window,
		Transform:    tr,
		Data:         data,
		Points:       tr.MapPoints(make([]plot.ScreenPoint, 0, len(data)), data),
		XTicks:       tr.X.Ticks(impl.cfg.TickCount),
		YTicks:       tr.Y.Ticks(impl.cfg.TickCount),
	}
}

func (impl *Series) aggregated(window transform.AxisRange, budget int, mode decimation.Mode, generation uint64) []plot.Point {
	key := fmt.Sprintf("%d:%d:%d:%v:%v:%d:%d", generation, impl.source.Len(), impl.mapper.Version(),
		window.Min, window.Max, budget, mode)

	if i, ok := impl.frames.Get(key); ok {
		data, _ := i.([]plot.Point)

		return data
	}

	data := impl.source.IterAggregated(window.Min, window.Max, budget, mode)

	impl.frames.SetDefault(key, data)

	return data
}

// AutoScaleY fits the y axis to the data inside the visible x window. It reports whether the
// axis changed.
func (impl *Series) AutoScaleY() bool {
	return impl.fitY(impl.xAxis.Load().Clamped)
}

func (impl *Series) fitY(window transform.AxisRange) bool {
	yr, ok := impl.source.YRange(window.Min, window.Max)
	if !ok {
		return false
	}

	r := transform.AutoFit(yr.Min, yr.Max, impl.cfg.YMargin)
	if r == impl.yAxis.Range() {
		return false
	}

	_, ok = impl.yAxis.Set(r)

	return ok
}

// FitX shows all the data on the x axis.
func (impl *Series) FitX() bool {
	_, ok := impl.xAxis.Set(impl.dataXRange())

	return ok
}

func (impl *Series) Pan(delta float64) bool {
	_, ok := impl.xAxis.Pan(delta)

	return ok
}

// PanPixels pans the x axis by a drag of dx pixels over a plot of the given width.
func (impl *Series) PanPixels(dx, width float64) bool {
	_, ok := impl.xAxis.Update(func(r transform.AxisRange, _ transform.Limits) transform.AxisRange {
		return transform.PanPixels(r, dx, width, false)
	})

	return ok
}

// ZoomAt zooms the x axis around the logical position pivot.
func (impl *Series) ZoomAt(pivot, factor float64) bool {
	_, ok := impl.xAxis.ZoomAt(pivot, factor)

	return ok
}

// Push adds a point to an appendable or streaming series.
func (impl *Series) Push(p plot.Point) error {
	switch impl.source.Kind() {
	case datasource.KindAppendable:
		return impl.source.Appendable().Append(p)
	case datasource.KindStreaming:
		return impl.source.Streaming().Push(p)
	}

	return ErrImmutable
}

// SetData replaces the content of an appendable series.
func (impl *Series) SetData(points []plot.Point) error {
	if impl.source.Kind() != datasource.KindAppendable {
		return ErrUnsupported
	}

	impl.source.Appendable().SetData(points)

	return nil
}

// Commit publishes the pending data with a fresh pyramid.
func (impl *Series) Commit(ctx context.Context) (err error) {
	switch impl.source.Kind() {
	case datasource.KindBulk:
		err = impl.source.Bulk().BuildPyramid(ctx)
	case datasource.KindAppendable:
		err = impl.source.Appendable().BuildPyramid(ctx)
	case datasource.KindStreaming:
		err = impl.source.Streaming().Commit(ctx)
	}

	if err != nil {
		impl.logger.WithFields(l.ErrorField(err)).Error("commit failed")

		return
	}

	impl.frames.Flush()

	return
}

// SetExclusionRules swaps the gap rules. The real time at the centre of the view stays at the
// centre; its logical position may move. On error the previous rules stay in effect.
func (impl *Series) SetExclusionRules(rules []gaps.Rule) error {
	centre := impl.mapper.Index().ToRealF(impl.xAxis.Range().Center())

	if err := impl.mapper.SetRules(rules); err != nil {
		return err
	}

	impl.xAxis.Recenter(impl.mapper.Index().ToLogicalF(centre))
	impl.frames.Flush()

	return nil
}
