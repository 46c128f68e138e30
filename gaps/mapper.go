package gaps

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sgostarter/i/l"
	"github.com/spf13/cast"
)

const (
	defaultInitialHalfSpan = int64(30 * 24 * time.Hour / time.Millisecond)
	defaultMinPadding      = int64(7 * 24 * time.Hour / time.Millisecond)
	maxHorizonOverscan     = 64
)

type MapperConfig struct {
	// Horizon used before the first EnsureHorizon; defaults to now +- 30 days.
	Horizon Horizon `json:"horizon" yaml:"horizon"`
	// Padding is the horizon margin on each side, in multiples of the visible span.
	Padding float64 `json:"padding" yaml:"padding"`
	// MinPadding is the smallest margin on each side, in milliseconds.
	MinPadding int64 `json:"min_padding" yaml:"min_padding"`
	// RefreshMargin is the fraction of the margin the view may consume before re-expansion.
	RefreshMargin float64 `json:"refresh_margin" yaml:"refresh_margin"`
}

// Mapper owns the exclusion rules and the Index built from them. Readers load the Index
// atomically; rebuilds replace it as a whole.
type Mapper struct {
	logger l.Wrapper
	cfg    MapperConfig

	lock    sync.Mutex
	rules   []Rule
	horizon Horizon

	index   atomic.Pointer[Index]
	version atomic.Uint64
}

func NewMapper(rules []Rule, cfg MapperConfig, logger l.Wrapper) (*Mapper, error) {
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	if cfg.Padding <= 0 {
		cfg.Padding = 1
	}

	if cfg.MinPadding <= 0 {
		cfg.MinPadding = defaultMinPadding
	}

	if cfg.RefreshMargin <= 0 || cfg.RefreshMargin >= 1 {
		cfg.RefreshMargin = 0.25
	}

	if cfg.Horizon.IsZero() {
		n := time.Now().UnixMilli()
		cfg.Horizon = Horizon{Start: n - defaultInitialHalfSpan, End: n + defaultInitialHalfSpan}
	}

	if cfg.Horizon.End <= cfg.Horizon.Start {
		return nil, ErrBadHorizon
	}

	m := &Mapper{
		logger:  logger.WithFields(l.StringField(l.ClsKey, "Mapper")),
		cfg:     cfg,
		horizon: cfg.Horizon,
	}

	if err := m.SetRules(rules); err != nil {
		return nil, err
	}

	return m, nil
}

// Index returns the index in effect; nil means no gaps.
func (impl *Mapper) Index() *Index {
	return impl.index.Load()
}

// Version changes whenever the index is replaced.
func (impl *Mapper) Version() uint64 {
	return impl.version.Load()
}

func (impl *Mapper) Horizon() Horizon {
	impl.lock.Lock()
	defer impl.lock.Unlock()

	return impl.horizon
}

func (impl *Mapper) Rules() []Rule {
	impl.lock.Lock()
	defer impl.lock.Unlock()

	return append([]Rule(nil), impl.rules...)
}

// SetRules replaces the rule set. On failure the previous rules and index stay in effect.
func (impl *Mapper) SetRules(rules []Rule) error {
	impl.lock.Lock()
	defer impl.lock.Unlock()

	idx, err := impl.buildLocked(rules, impl.horizon, impl.horizon.Start+impl.horizon.Span()/2)
	if err != nil {
		impl.logger.WithFields(l.ErrorField(err)).Error("rejected exclusion rules")

		return err
	}

	impl.rules = append([]Rule(nil), rules...)
	impl.publishLocked(idx)

	return nil
}

// EnsureHorizon re-expands the rules when the real range [realMin, realMax] gets close to the
// edge of the expanded horizon, or when the horizon is far larger than the view needs.
// It reports whether the index was rebuilt.
func (impl *Mapper) EnsureHorizon(realMin, realMax float64) bool {
	if math.IsNaN(realMin) || math.IsNaN(realMax) || math.IsInf(realMin, 0) || math.IsInf(realMax, 0) {
		return false
	}

	if realMax < realMin {
		realMin, realMax = realMax, realMin
	}

	span := math.Max(realMax-realMin, 1)
	pad := math.Max(span*impl.cfg.Padding, float64(impl.cfg.MinPadding))
	margin := pad * impl.cfg.RefreshMargin

	impl.lock.Lock()
	defer impl.lock.Unlock()

	h := impl.horizon

	wanted := Horizon{
		Start: int64(math.Floor(realMin - pad)),
		End:   int64(math.Ceil(realMax + pad)),
	}

	nearEdge := realMin-margin < float64(h.Start) || realMax+margin > float64(h.End)
	overscan := h.Span()/maxHorizonOverscan > wanted.Span()

	if !nearEdge && !overscan {
		return false
	}

	idx, err := impl.buildLocked(impl.rules, wanted, int64(math.Round((realMin+realMax)/2)))
	if err != nil {
		impl.logger.WithFields(l.ErrorField(err), l.StringField("start", cast.ToString(wanted.Start)),
			l.StringField("end", cast.ToString(wanted.End))).Error("expand horizon failed")

		return false
	}

	impl.horizon = wanted
	impl.publishLocked(idx)

	impl.logger.WithFields(l.StringField("start", cast.ToString(wanted.Start)),
		l.StringField("end", cast.ToString(wanted.End)), l.IntField("segments", idx.Len())).Debug("horizon expanded")

	return true
}

// buildLocked pins the logical coordinate of anchor to its value under the current index, so
// everything between anchor and the overlap of the old and new horizons keeps its position.
func (impl *Mapper) buildLocked(rules []Rule, horizon Horizon, anchor int64) (*Index, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	return BuildWithAnchor(rules, horizon, anchor, impl.index.Load().ToLogical(anchor))
}

func (impl *Mapper) publishLocked(idx *Index) {
	impl.index.Store(idx)
	impl.version.Add(1)
}
