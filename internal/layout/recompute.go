package layout

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/haatos/stageflow/internal/topology"
)

const DefaultPollInterval = 500 * time.Millisecond

// Source hands out the topology and geometry a pass should use.
type Source func() (topology.Pipeline, Oracle)

type RecomputeOption func(*Recomputer)

func WithPollInterval(d time.Duration) RecomputeOption {
	return func(r *Recomputer) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithRecomputeClock(clock clockwork.Clock) RecomputeOption {
	return func(r *Recomputer) {
		r.clock = clock
	}
}

// WithUpdateHook registers fn to receive every fresh path set.
func WithUpdateHook(fn func([]Path)) RecomputeOption {
	return func(r *Recomputer) {
		r.onUpdate = fn
	}
}

// Recomputer keeps the latest path set current. It recomputes on Notify and
// on a polling interval, replacing the previous set each time.
type Recomputer struct {
	engine   *Engine
	source   Source
	clock    clockwork.Clock
	interval time.Duration
	onUpdate func([]Path)
	notify   chan struct{}

	// pass serializes whole passes, from reading the source to publishing,
	// so a pass never overwrites the result of a later one.
	pass sync.Mutex

	mu    sync.RWMutex
	paths []Path
}

func NewRecomputer(engine *Engine, source Source, opts ...RecomputeOption) *Recomputer {
	r := &Recomputer{
		engine:   engine,
		source:   source,
		clock:    clockwork.NewRealClock(),
		interval: DefaultPollInterval,
		onUpdate: func([]Path) {},
		notify:   make(chan struct{}, 1),
		paths:    make([]Path, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Notify requests a pass. Requests made while one is pending coalesce.
func (r *Recomputer) Notify() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Recompute runs one pass synchronously and returns its result.
func (r *Recomputer) Recompute() []Path {
	r.pass.Lock()
	defer r.pass.Unlock()

	p, oracle := r.source()
	paths := r.engine.Compute(p, oracle)

	r.mu.Lock()
	r.paths = paths
	r.mu.Unlock()

	r.onUpdate(slices.Clone(paths))
	return slices.Clone(paths)
}

func (r *Recomputer) Paths() []Path {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.paths)
}

// Run recomputes until ctx is done.
func (r *Recomputer) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.Recompute()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.notify:
			r.Recompute()
		case <-ticker.Chan():
			r.Recompute()
		}
	}
}
