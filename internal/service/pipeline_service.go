package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/haatos/stageflow/internal/store"
	"github.com/haatos/stageflow/internal/topology"
)

type PipelineWriter interface {
	CreatePipeline(context.Context, string, string, string) (*store.Pipeline, error)
	UpdatePipelineDocument(context.Context, string, string, string) error
	DeletePipeline(context.Context, string) error
}

type PipelineReader interface {
	ReadPipelineByID(context.Context, string) (*store.Pipeline, error)
	ListPipelines(context.Context) ([]*store.Pipeline, error)
}

type PipelineStore interface {
	PipelineWriter
	PipelineReader
}

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// PipelineService is the single editing authority for pipeline documents.
// Every mutation loads the stored document, applies a topology operation and
// writes the result back while holding one lock.
type PipelineService struct {
	pipelineStore PipelineStore
	uuidGen       UUIDGenerator

	mu        sync.Mutex
	listeners []func(topology.Pipeline)
}

func NewPipelineService(pipelineStore PipelineStore, uuidGen UUIDGenerator) *PipelineService {
	return &PipelineService{
		pipelineStore: pipelineStore,
		uuidGen:       uuidGen,
	}
}

// OnChange registers fn to receive every document the service stores.
func (s *PipelineService) OnChange(fn func(topology.Pipeline)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *PipelineService) notify(p topology.Pipeline) {
	for _, fn := range s.listeners {
		fn(p.Clone())
	}
}

func decodeRecord(record *store.Pipeline) (topology.Pipeline, error) {
	p, err := topology.DecodeJSON([]byte(record.Document))
	if err != nil {
		return topology.Pipeline{}, fmt.Errorf("pipeline %s: %w", record.PipelineID, err)
	}
	return p, nil
}

// CreatePipeline stores a new document seeded with the sample topology.
func (s *PipelineService) CreatePipeline(ctx context.Context) (topology.Pipeline, error) {
	p := topology.Seed()
	p.ID = s.uuidGen.GenerateUUID()
	p.Name = "pipeline-" + time.Now().Format("200601021504")
	return s.insert(ctx, p)
}

func (s *PipelineService) insert(ctx context.Context, p topology.Pipeline) (topology.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := topology.EncodeJSON(p)
	if err != nil {
		return topology.Pipeline{}, err
	}
	if _, err := s.pipelineStore.CreatePipeline(ctx, p.ID, p.Name, string(doc)); err != nil {
		return topology.Pipeline{}, err
	}
	s.notify(p)
	return p, nil
}

func (s *PipelineService) GetPipeline(ctx context.Context, id string) (topology.Pipeline, error) {
	record, err := s.pipelineStore.ReadPipelineByID(ctx, id)
	if err != nil {
		return topology.Pipeline{}, err
	}
	return decodeRecord(record)
}

func (s *PipelineService) ListPipelines(ctx context.Context) ([]topology.Pipeline, error) {
	records, err := s.pipelineStore.ListPipelines(ctx)
	if err != nil {
		return nil, err
	}
	pipelines := make([]topology.Pipeline, 0, len(records))
	for _, record := range records {
		p, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

func (s *PipelineService) DeletePipeline(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipelineStore.DeletePipeline(ctx, id)
}

// Mutate applies op to the stored document and persists the result.
func (s *PipelineService) Mutate(
	ctx context.Context,
	id string,
	op func(topology.Pipeline) topology.Pipeline,
) (topology.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.pipelineStore.ReadPipelineByID(ctx, id)
	if err != nil {
		return topology.Pipeline{}, err
	}
	current, err := decodeRecord(record)
	if err != nil {
		return topology.Pipeline{}, err
	}

	next := op(current)
	next.ID = current.ID
	doc, err := topology.EncodeJSON(next)
	if err != nil {
		return topology.Pipeline{}, err
	}
	if err := s.pipelineStore.UpdatePipelineDocument(ctx, id, next.Name, string(doc)); err != nil {
		return topology.Pipeline{}, err
	}
	s.notify(next)
	return next, nil
}

func (s *PipelineService) AddJob(
	ctx context.Context,
	pipelineID, stageID string,
	jobType topology.JobType,
	at topology.Placement,
) (topology.Pipeline, error) {
	job := topology.NewJob("j-"+s.uuidGen.GenerateUUID(), jobType)
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.AddJob(stageID, job, at)
	})
}

func (s *PipelineService) DeleteJob(
	ctx context.Context,
	pipelineID, stageID, jobID string,
) (topology.Pipeline, error) {
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.DeleteJob(stageID, jobID)
	})
}

func (s *PipelineService) UpdateJob(
	ctx context.Context,
	pipelineID, jobID string,
	patch topology.JobPatch,
) (topology.Pipeline, error) {
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.UpdateJob(jobID, patch)
	})
}

func (s *PipelineService) AddStage(
	ctx context.Context,
	pipelineID string,
	afterIndex int,
) (topology.Pipeline, error) {
	stage := topology.NewStage("s-" + s.uuidGen.GenerateUUID())
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.AddStage(afterIndex, stage)
	})
}

func (s *PipelineService) DeleteStage(
	ctx context.Context,
	pipelineID, stageID string,
) (topology.Pipeline, error) {
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.DeleteStage(stageID)
	})
}

func (s *PipelineService) ReorderStage(
	ctx context.Context,
	pipelineID string,
	from, to int,
) (topology.Pipeline, error) {
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.ReorderStage(from, to)
	})
}

func (s *PipelineService) RenameStage(
	ctx context.Context,
	pipelineID, stageID, name string,
) (topology.Pipeline, error) {
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.RenameStage(stageID, name)
	})
}

func (s *PipelineService) SetStageParallel(
	ctx context.Context,
	pipelineID, stageID string,
	parallel bool,
) (topology.Pipeline, error) {
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.SetStageParallel(stageID, parallel)
	})
}

func (s *PipelineService) AddVariable(
	ctx context.Context,
	pipelineID string,
	v topology.Variable,
) (topology.Pipeline, error) {
	v.ID = "v-" + s.uuidGen.GenerateUUID()
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.AddVariable(v)
	})
}

func (s *PipelineService) UpdateVariable(
	ctx context.Context,
	pipelineID, variableID string,
	patch topology.VariablePatch,
) (topology.Pipeline, error) {
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.UpdateVariable(variableID, patch)
	})
}

func (s *PipelineService) DeleteVariable(
	ctx context.Context,
	pipelineID, variableID string,
) (topology.Pipeline, error) {
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.DeleteVariable(variableID)
	})
}

func (s *PipelineService) UpdateInfo(
	ctx context.Context,
	pipelineID, name, description string,
) (topology.Pipeline, error) {
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.UpdateInfo(name, description)
	})
}

func (s *PipelineService) UpdateSettings(
	ctx context.Context,
	pipelineID string,
	settings topology.Settings,
) (topology.Pipeline, error) {
	if settings.Cron != "" {
		// same five-field grammar gocron applies when the trigger is registered
		if _, err := cron.ParseStandard(settings.Cron); err != nil {
			return topology.Pipeline{}, &ErrInvalidSchedule{Schedule: settings.Cron, Err: err}
		}
	}
	return s.Mutate(ctx, pipelineID, func(p topology.Pipeline) topology.Pipeline {
		return p.UpdateSettings(settings)
	})
}

func (s *PipelineService) LintPipeline(ctx context.Context, id string) ([]topology.Hint, error) {
	p, err := s.GetPipeline(ctx, id)
	if err != nil {
		return nil, err
	}
	return topology.Lint(p), nil
}

// ImportPipeline stores a document given as yaml or json. Documents without
// an id get a fresh one; documents whose id exists replace it.
func (s *PipelineService) ImportPipeline(
	ctx context.Context,
	data []byte,
	format string,
) (topology.Pipeline, error) {
	var (
		p   topology.Pipeline
		err error
	)
	switch format {
	case FormatYAML:
		p, err = topology.DecodeYAML(data)
	case FormatJSON:
		p, err = topology.DecodeJSON(data)
	default:
		return topology.Pipeline{}, NewErrUnknownFormat(format)
	}
	if err != nil {
		return topology.Pipeline{}, err
	}

	if p.ID == "" {
		p.ID = s.uuidGen.GenerateUUID()
		return s.insert(ctx, p)
	}
	if _, err := s.pipelineStore.ReadPipelineByID(ctx, p.ID); errors.Is(err, sql.ErrNoRows) {
		return s.insert(ctx, p)
	} else if err != nil {
		return topology.Pipeline{}, err
	}
	return s.Mutate(ctx, p.ID, func(topology.Pipeline) topology.Pipeline { return p })
}

func (s *PipelineService) ExportPipeline(
	ctx context.Context,
	id, format string,
) ([]byte, error) {
	p, err := s.GetPipeline(ctx, id)
	if err != nil {
		return nil, err
	}
	return Export(p, format)
}

// Export encodes p in the given format.
func Export(p topology.Pipeline, format string) ([]byte, error) {
	switch format {
	case FormatYAML:
		return topology.EncodeYAML(p)
	case FormatJSON:
		return topology.EncodeJSON(p)
	case FormatDOT:
		out, err := topology.ExportDOT(p)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
	return nil, NewErrUnknownFormat(format)
}
