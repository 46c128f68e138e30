package transform

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sgostarter/i/l"
	"github.com/spf13/cast"
)

// AxisState is an immutable snapshot of a shared axis. Virtual is the navigated range kept
// inside the limits with its span intact; Clamped is Virtual cut at the limits, which is what
// gets drawn.
type AxisState struct {
	Virtual AxisRange
	Clamped AxisRange
	Limits  Limits
	Version uint64
}

type AxisObserver func(state AxisState)

// SharedAxis is one axis range shared by every pane that displays it. Readers load a snapshot,
// writers swap a new one in with compare-and-swap.
type SharedAxis struct {
	logger l.Wrapper
	state  atomic.Pointer[AxisState]

	observersLock sync.RWMutex
	observers     map[uuid.UUID]AxisObserver
}

func NewSharedAxis(r AxisRange, limits Limits, logger l.Wrapper) *SharedAxis {
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	axis := &SharedAxis{
		logger:    logger.WithFields(l.StringField(l.ClsKey, "SharedAxis")),
		observers: make(map[uuid.UUID]AxisObserver),
	}

	virtual := r.Clamp(limits)
	axis.state.Store(&AxisState{
		Virtual: virtual,
		Clamped: virtual.Bounded(limits),
		Limits:  limits,
	})

	return axis
}

func (axis *SharedAxis) Load() AxisState {
	return *axis.state.Load()
}

func (axis *SharedAxis) Range() AxisRange {
	return axis.state.Load().Virtual
}

// Update applies fn to the current range until it wins the swap. A range that is not finite
// or is inverted is rejected and the state stays unchanged.
func (axis *SharedAxis) Update(fn func(r AxisRange, limits Limits) AxisRange) (AxisState, bool) {
	for {
		old := axis.state.Load()

		next := fn(old.Virtual, old.Limits)
		if !next.valid() {
			axis.logger.WithFields(l.StringField("min", cast.ToString(next.Min)),
				l.StringField("max", cast.ToString(next.Max))).Debug("reject axis range")

			return *old, false
		}

		next = next.Clamp(old.Limits)

		state := &AxisState{
			Virtual: next,
			Clamped: next.Bounded(old.Limits),
			Limits:  old.Limits,
			Version: old.Version + 1,
		}

		if axis.state.CompareAndSwap(old, state) {
			axis.notify(*state)

			return *state, true
		}
	}
}

func (axis *SharedAxis) Set(r AxisRange) (AxisState, bool) {
	return axis.Update(func(AxisRange, Limits) AxisRange {
		return r
	})
}

func (axis *SharedAxis) Pan(delta float64) (AxisState, bool) {
	return axis.Update(func(r AxisRange, _ Limits) AxisRange {
		return r.Pan(delta)
	})
}

func (axis *SharedAxis) ZoomAt(pivot, factor float64) (AxisState, bool) {
	return axis.Update(func(r AxisRange, _ Limits) AxisRange {
		span := r.Span()
		if span > 0 && span*factor < MinSpan {
			factor = MinSpan / span
		}

		return r.ZoomAt(pivot, factor)
	})
}

func (axis *SharedAxis) Recenter(center float64) (AxisState, bool) {
	return axis.Update(func(r AxisRange, limits Limits) AxisRange {
		return MoveToCenter(r, center, limits)
	})
}

func (axis *SharedAxis) SetLimits(limits Limits) AxisState {
	for {
		old := axis.state.Load()

		virtual := old.Virtual.Clamp(limits)
		state := &AxisState{
			Virtual: virtual,
			Clamped: virtual.Bounded(limits),
			Limits:  limits,
			Version: old.Version + 1,
		}

		if axis.state.CompareAndSwap(old, state) {
			axis.notify(*state)

			return *state
		}
	}
}

func (axis *SharedAxis) Subscribe(observer AxisObserver) uuid.UUID {
	id := uuid.New()

	axis.observersLock.Lock()
	axis.observers[id] = observer
	axis.observersLock.Unlock()

	return id
}

func (axis *SharedAxis) Unsubscribe(id uuid.UUID) {
	axis.observersLock.Lock()
	delete(axis.observers, id)
	axis.observersLock.Unlock()
}

func (axis *SharedAxis) notify(state AxisState) {
	axis.observersLock.RLock()
	observers := make([]AxisObserver, 0, len(axis.observers))

	for _, observer := range axis.observers {
		observers = append(observers, observer)
	}
	axis.observersLock.RUnlock()

	for _, observer := range observers {
		observer(state)
	}
}
