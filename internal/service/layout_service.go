package service

import (
	"context"
	"errors"
	"log"
	"maps"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/haatos/stageflow/internal/layout"
	"github.com/haatos/stageflow/internal/topology"
)

type LayoutServiceOption func(*LayoutService)

func WithLayoutClock(clock clockwork.Clock) LayoutServiceOption {
	return func(s *LayoutService) {
		s.clock = clock
	}
}

func WithLayoutPollInterval(d time.Duration) LayoutServiceOption {
	return func(s *LayoutService) {
		if d > 0 {
			s.interval = d
		}
	}
}

// LayoutService keeps connector paths current for every pipeline that has
// reported node geometry. Each such pipeline gets its own recompute loop.
type LayoutService struct {
	pipelines PipelineGetter
	engine    *layout.Engine
	clock     clockwork.Clock
	interval  time.Duration
	cancels   *CancelMap[string]
	clients   *SSEClientMap[[]layout.Path]

	mu       sync.Mutex
	sessions map[string]*layoutSession
}

type layoutSession struct {
	mu         sync.RWMutex
	doc        topology.Pipeline
	boxes      layout.BoxMap
	recomputer *layout.Recomputer
}

func (ls *layoutSession) source() (topology.Pipeline, layout.Oracle) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.doc.Clone(), maps.Clone(ls.boxes)
}

func NewLayoutService(
	pipelines PipelineGetter,
	engine *layout.Engine,
	opts ...LayoutServiceOption,
) *LayoutService {
	s := &LayoutService{
		pipelines: pipelines,
		engine:    engine,
		clock:     clockwork.NewRealClock(),
		interval:  layout.DefaultPollInterval,
		cancels:   NewCancelMap[string](),
		clients:   NewSSEClientMap[[]layout.Path](),
		sessions:  make(map[string]*layoutSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LayoutService) session(ctx context.Context, pipelineID string) (*layoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ls, ok := s.sessions[pipelineID]; ok {
		return ls, nil
	}

	p, err := s.pipelines.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	ls := &layoutSession{doc: p, boxes: layout.BoxMap{}}
	ls.recomputer = layout.NewRecomputer(
		s.engine,
		ls.source,
		layout.WithRecomputeClock(s.clock),
		layout.WithPollInterval(s.interval),
		layout.WithUpdateHook(func(paths []layout.Path) {
			s.clients.SendToClients(pipelineID, paths)
		}),
	)
	s.sessions[pipelineID] = ls

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancels.AddCancel(pipelineID, cancel)
	go func() {
		if err := ls.recomputer.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Println("layout loop stopped:", err)
		}
	}()
	return ls, nil
}

// SetBoxes replaces the node geometry of a pipeline and requests a pass.
func (s *LayoutService) SetBoxes(ctx context.Context, pipelineID string, boxes layout.BoxMap) error {
	ls, err := s.session(ctx, pipelineID)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	ls.boxes = maps.Clone(boxes)
	ls.mu.Unlock()
	ls.recomputer.Notify()
	return nil
}

// Paths runs a pass against the latest document and geometry.
func (s *LayoutService) Paths(ctx context.Context, pipelineID string) ([]layout.Path, error) {
	ls, err := s.session(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	return ls.recomputer.Recompute(), nil
}

// Compute is a one-shot pass that keeps no session.
func (s *LayoutService) Compute(p topology.Pipeline, boxes layout.BoxMap) []layout.Path {
	return s.engine.Compute(p, boxes)
}

// Invalidate hands a changed document to its recompute loop, if any.
func (s *LayoutService) Invalidate(p topology.Pipeline) {
	s.mu.Lock()
	ls, ok := s.sessions[p.ID]
	s.mu.Unlock()
	if !ok {
		return
	}
	ls.mu.Lock()
	ls.doc = p.Clone()
	ls.mu.Unlock()
	ls.recomputer.Notify()
}

func (s *LayoutService) Subscribe(pipelineID, uid string) chan []layout.Path {
	return s.clients.AddClient(pipelineID, uid)
}

func (s *LayoutService) Unsubscribe(pipelineID, uid string) {
	s.clients.RemoveClient(pipelineID, uid)
}

// Close stops the recompute loop of a pipeline and drops its geometry.
func (s *LayoutService) Close(pipelineID string) {
	s.cancels.Call(pipelineID)
	s.mu.Lock()
	delete(s.sessions, pipelineID)
	s.mu.Unlock()
}

func (s *LayoutService) CloseAll() {
	s.cancels.CallAll()
	s.mu.Lock()
	s.sessions = make(map[string]*layoutSession)
	s.mu.Unlock()
}
