package lod

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sgostarter/i/l"
	"github.com/sgostarter/libeasygo/routineman"
	"github.com/sgostarter/libtimechart/bounds"
)

type BuiltObserver func(p *Pyramid)

type buildRequest struct {
	seq        bounds.Sequence
	generation uint64
}

// Builder builds pyramids on a background routine from immutable snapshots. Only the most recently
// submitted generation is ever published; older requests and results are dropped.
type Builder struct {
	logger l.Wrapper

	routineMan routineman.RoutineMan

	submitLock sync.Mutex
	requests   chan buildRequest
	latest     atomic.Uint64

	current  atomic.Pointer[Pyramid]
	observer BuiltObserver
}

func NewBuilder(observer BuiltObserver, logger l.Wrapper) *Builder {
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	b := &Builder{
		logger:     logger.WithFields(l.StringField(l.ClsKey, "Builder")),
		routineMan: routineman.NewRoutineMan(context.Background(), logger),
		requests:   make(chan buildRequest, 1),
		observer:   observer,
	}

	b.routineMan.StartRoutine(b.buildRoutine, "buildRoutine")

	return b
}

func (impl *Builder) TriggerStop() {
	impl.routineMan.TriggerStop()
}

func (impl *Builder) Wait() {
	impl.routineMan.Wait()
}

// Current returns the last published pyramid, which may belong to an older generation than
// the latest submitted one.
func (impl *Builder) Current() *Pyramid {
	return impl.current.Load()
}

// CurrentFor returns the published pyramid only when it was built for generation.
func (impl *Builder) CurrentFor(generation uint64) *Pyramid {
	p := impl.current.Load()
	if p == nil || p.Generation != generation {
		return nil
	}

	return p
}

// Submit queues a build of seq, which must not change afterwards. A pending request that has
// not started yet is replaced.
func (impl *Builder) Submit(seq bounds.Sequence, generation uint64) {
	impl.submitLock.Lock()
	defer impl.submitLock.Unlock()

	impl.latest.Store(generation)

	req := buildRequest{seq: seq, generation: generation}

	select {
	case impl.requests <- req:
		return
	default:
	}

	select {
	case <-impl.requests:
	default:
	}

	impl.requests <- req
}

// Invalidate forgets the published pyramid unless it belongs to generation.
func (impl *Builder) Invalidate(generation uint64) {
	impl.latest.Store(generation)

	for {
		p := impl.current.Load()
		if p == nil || p.Generation == generation {
			return
		}

		if impl.current.CompareAndSwap(p, nil) {
			return
		}
	}
}

func (impl *Builder) buildRoutine(ctx context.Context, _ func() bool) {
	loop := true

	for loop {
		select {
		case <-ctx.Done():
			loop = false

			continue
		case req := <-impl.requests:
			impl.build(ctx, req)
		}
	}
}

func (impl *Builder) build(ctx context.Context, req buildRequest) {
	if req.generation != impl.latest.Load() {
		return
	}

	start := time.Now()

	p, err := Build(ctx, req.seq, req.generation)
	if err != nil {
		impl.logger.WithFields(l.ErrorField(err), l.UInt64Field("generation", req.generation)).Error("build pyramid failed")

		return
	}

	if p == nil || req.generation != impl.latest.Load() {
		return
	}

	impl.current.Store(p)

	impl.logger.WithFields(l.UInt64Field("generation", req.generation), l.IntField("points", req.seq.Len()),
		l.IntField("levels", len(p.Levels)), l.StringField("cost", time.Since(start).String())).Debug("pyramid built")

	if impl.observer != nil {
		impl.observer(p)
	}
}
