package execution

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/haatos/stageflow/internal/topology"
)

const (
	DefaultMinDwell = 2000 * time.Millisecond
	DefaultMaxDwell = 4000 * time.Millisecond
)

type Option func(*Controller)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithDwell sets the half-open range [lo, hi) a stage stays running.
func WithDwell(lo, hi time.Duration) Option {
	return func(c *Controller) {
		if lo >= 0 && hi > lo {
			c.minDwell, c.maxDwell = lo, hi
		}
	}
}

func WithRand(r *rand.Rand) Option {
	return func(c *Controller) {
		c.rng = r
	}
}

// WithObserver registers fn to receive every snapshot in order. The next
// dwell timer is armed only after fn returns. fn must not call Start.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

func WithRunIDs(fn func() string) Option {
	return func(c *Controller) {
		c.newRunID = fn
	}
}

// Controller simulates a run of one pipeline snapshot, one stage at a time.
// At most one run is in flight.
type Controller struct {
	clock    clockwork.Clock
	minDwell time.Duration
	maxDwell time.Duration
	rng      *rand.Rand
	observer func(Snapshot)
	newRunID func() string

	// emit serializes transitions together with their observer call.
	emit sync.Mutex

	mu       sync.Mutex
	snap     Snapshot
	pipeline topology.Pipeline
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		clock:    clockwork.NewRealClock(),
		minDwell: DefaultMinDwell,
		maxDwell: DefaultMaxDwell,
		observer: func(Snapshot) {},
		newRunID: uuid.NewString,
		snap:     Snapshot{State: StateNotStarted, Current: -1},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		now := uint64(c.clock.Now().UnixNano())
		c.rng = rand.New(rand.NewPCG(now, now>>1|1))
	}
	return c
}

// Start captures p and enters its first stage. It reports false, leaving the
// in-flight run untouched, when a run is already active.
func (c *Controller) Start(p topology.Pipeline, trigger Trigger) bool {
	c.emit.Lock()
	defer c.emit.Unlock()

	c.mu.Lock()
	if c.snap.State == StateRunning {
		c.mu.Unlock()
		return false
	}
	now := c.clock.Now()
	c.pipeline = p.Clone()
	c.snap = Snapshot{
		RunID:      c.newRunID(),
		PipelineID: p.ID,
		Trigger:    trigger,
		State:      StateRunning,
		Current:    0,
		StageCount: len(p.Stages),
		StartedAt:  now,
		UpdatedAt:  now,
	}
	if c.snap.StageCount == 0 {
		c.snap.State = StateCompleted
	}
	snap := c.snap
	c.mu.Unlock()

	c.observer(snap)
	if snap.State == StateRunning {
		c.arm(snap.RunID)
	}
	return true
}

func (c *Controller) dwell() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minDwell + time.Duration(c.rng.Int64N(int64(c.maxDwell-c.minDwell)))
}

func (c *Controller) arm(runID string) {
	c.clock.AfterFunc(c.dwell(), func() { c.advance(runID) })
}

func (c *Controller) advance(runID string) {
	c.emit.Lock()
	defer c.emit.Unlock()

	c.mu.Lock()
	if c.snap.RunID != runID || c.snap.State != StateRunning {
		c.mu.Unlock()
		return
	}
	c.snap.Current++
	if c.snap.Current >= c.snap.StageCount {
		c.snap.Current = c.snap.StageCount
		c.snap.State = StateCompleted
	}
	c.snap.UpdatedAt = c.clock.Now()
	snap := c.snap
	c.mu.Unlock()

	c.observer(snap)
	if snap.State == StateRunning {
		c.arm(runID)
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Pipeline returns the document captured by the latest Start.
func (c *Controller) Pipeline() topology.Pipeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipeline.Clone()
}

func (c *Controller) IsRunning() bool {
	return c.Snapshot().IsRunning()
}

func (c *Controller) StageStatus(i int) Status {
	return c.Snapshot().StageStatus(i)
}
