package datasource

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sgostarter/i/l"
	"github.com/sgostarter/libeasygo/routineman"
	"github.com/sgostarter/libeasygo/timespan"
	"github.com/sgostarter/libtimechart/bounds"
	"github.com/sgostarter/libtimechart/plot"
)

const DefaultCommitThreshold = 5000

type StreamingConfig struct {
	Capacity int `json:"capacity" yaml:"capacity"`
	// CommitThreshold commits once that many points were pushed since the last commit.
	CommitThreshold int `json:"commit_threshold" yaml:"commit_threshold"`
	// CommitPeriod commits at every period boundary when points arrived; 0 disables it.
	CommitPeriod time.Duration `json:"commit_period" yaml:"commit_period"`
	// AutoCommit starts the background commit routine.
	AutoCommit bool `json:"auto_commit" yaml:"auto_commit"`
}

// ring is a fixed-capacity arena; index 0 is the oldest live point.
type ring struct {
	arena  []plot.Point
	head   int
	length int
}

func (r *ring) Len() int {
	return r.length
}

func (r *ring) At(i int) plot.Point {
	return r.arena[(r.head+i)%len(r.arena)]
}

// Streaming keeps the most recent Capacity points in a ring and periodically commits them into a
// Bulk snapshot with a pyramid. Queries always see the live ring; the committed pyramid serves
// the part of the window it covers.
type Streaming struct {
	logger l.Wrapper
	cfg    StreamingConfig

	lock        sync.RWMutex
	ring        ring
	tracker     *bounds.Tracker
	pushed      uint64
	sinceCommit int
	spacing     float64

	snapshot atomic.Pointer[Bulk]

	commitLock sync.Mutex
	commitCh   chan struct{}
	routineMan routineman.RoutineMan
}

func NewStreaming(cfg StreamingConfig, logger l.Wrapper) (*Streaming, error) {
	if cfg.Capacity <= 0 {
		return nil, ErrBadCapacity
	}

	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	if cfg.CommitThreshold <= 0 {
		cfg.CommitThreshold = DefaultCommitThreshold
	}

	s := &Streaming{
		logger:   logger.WithFields(l.StringField(l.ClsKey, "Streaming")),
		cfg:      cfg,
		ring:     ring{arena: make([]plot.Point, cfg.Capacity)},
		tracker:  bounds.NewTracker(),
		commitCh: make(chan struct{}, 1),
	}

	if cfg.AutoCommit {
		s.routineMan = routineman.NewRoutineMan(context.Background(), logger)
		s.routineMan.StartRoutine(s.commitRoutine, "commitRoutine")
	}

	return s, nil
}

func (impl *Streaming) TriggerStop() {
	if impl.routineMan != nil {
		impl.routineMan.TriggerStop()
	}
}

func (impl *Streaming) Wait() {
	if impl.routineMan != nil {
		impl.routineMan.Wait()
	}
}

func (impl *Streaming) Capacity() int {
	return impl.cfg.Capacity
}

func (impl *Streaming) Len() int {
	impl.lock.RLock()
	defer impl.lock.RUnlock()

	return impl.ring.Len()
}

// Generation counts pushes, so it changes with every accepted point.
func (impl *Streaming) Generation() uint64 {
	impl.lock.RLock()
	defer impl.lock.RUnlock()

	return impl.pushed
}

// SuggestedSpacing is the smallest positive x step seen so far.
func (impl *Streaming) SuggestedSpacing() float64 {
	impl.lock.RLock()
	defer impl.lock.RUnlock()

	return impl.spacing
}

// Push appends p, evicting the oldest point when the ring is full. Points must arrive in x order.
func (impl *Streaming) Push(p plot.Point) error {
	if !plot.IsFinite(p.X) {
		return ErrNotFinite
	}

	impl.lock.Lock()

	if n := impl.ring.Len(); n > 0 {
		last := impl.ring.At(n - 1)
		if p.X < last.X {
			impl.lock.Unlock()

			return ErrOutOfOrder
		}

		if d := p.X - last.X; d > 0 && (impl.spacing == 0 || d < impl.spacing) {
			impl.spacing = d
		}
	}

	if impl.ring.length == len(impl.ring.arena) {
		evicted := impl.ring.arena[impl.ring.head]
		impl.ring.head = (impl.ring.head + 1) % len(impl.ring.arena)
		impl.ring.length--
		impl.tracker.EvictFront(&impl.ring, evicted)
	}

	impl.ring.arena[(impl.ring.head+impl.ring.length)%len(impl.ring.arena)] = p
	impl.ring.length++
	impl.tracker.Append(p)

	impl.pushed++
	impl.sinceCommit++

	needCommit := impl.cfg.AutoCommit && impl.sinceCommit >= impl.cfg.CommitThreshold

	impl.lock.Unlock()

	if needCommit {
		select {
		case impl.commitCh <- struct{}{}:
		default:
		}
	}

	return nil
}

// Snapshot returns the last committed Bulk, nil before the first commit.
func (impl *Streaming) Snapshot() *Bulk {
	return impl.snapshot.Load()
}

// Commit copies the live window into a new Bulk and builds its pyramid without holding the ring
// lock, then publishes it with a single pointer swap.
func (impl *Streaming) Commit(ctx context.Context) error {
	impl.commitLock.Lock()
	defer impl.commitLock.Unlock()

	impl.lock.RLock()
	points := make([]plot.Point, impl.ring.Len())
	for i := range points {
		points[i] = impl.ring.At(i)
	}
	pushed := impl.pushed
	impl.lock.RUnlock()

	bulk := newBulkFromColumns(newColumns(points), pushed)
	if err := bulk.BuildPyramid(ctx); err != nil {
		return err
	}

	impl.snapshot.Store(bulk)

	impl.lock.Lock()
	impl.sinceCommit = int(impl.pushed - pushed)
	impl.lock.Unlock()

	impl.logger.WithFields(l.IntField("points", len(points)), l.UInt64Field("pushed", pushed)).Debug("committed")

	return nil
}

func (impl *Streaming) commitRoutine(ctx context.Context, _ func() bool) {
	var (
		ts    *timespan.TimeSpan
		label string
	)

	tick := time.Hour

	if impl.cfg.CommitPeriod > 0 {
		ts = timespan.NewTimeSpan(impl.cfg.CommitPeriod)
		label = ts.GetCurrentLabel()

		tick = impl.cfg.CommitPeriod / 2
		if tick > time.Second*10 {
			tick = time.Second * 10
		}
	}

	loop := true

	for loop {
		select {
		case <-ctx.Done():
			loop = false

			continue
		case <-impl.commitCh:
		case <-time.After(tick):
			if ts == nil {
				continue
			}

			newLabel := ts.GetCurrentLabel()
			if newLabel == label {
				continue
			}

			label = newLabel

			impl.lock.RLock()
			pending := impl.sinceCommit
			impl.lock.RUnlock()

			if pending == 0 {
				continue
			}
		}

		if err := impl.Commit(ctx); err != nil {
			impl.logger.WithFields(l.ErrorField(err)).Error("commit failed")
		}
	}
}

func (impl *Streaming) viewLocked() view {
	v := view{
		seq:     &impl.ring,
		tracker: impl.tracker,
	}

	if snapshot := impl.snapshot.Load(); snapshot != nil {
		v.pyramid = snapshot.Pyramid()
	}

	return v
}
