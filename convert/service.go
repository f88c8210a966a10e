package convert

import (
	"context"
	"sync"
	"time"
)

// Service coordinates conversions across the pipeline and journal, and keeps
// track of running jobs so hosts can cancel them by ID.
type Service interface {
	StartConversion(ctx context.Context, req ConvertRequest) (JobRecord, error)
	CancelConversion(ctx context.Context, jobID string) (JobRecord, error)
	Status(ctx context.Context, jobID string) (JobRecord, error)
	History(ctx context.Context, filter JobFilter) ([]JobRecord, error)
}

// ServiceConfig supplies dependencies for Service.
type ServiceConfig struct {
	Pipeline *Pipeline
	Journal  Journal
	Now      func() time.Time
}

type service struct {
	pipeline *Pipeline
	journal  Journal
	now      func() time.Time

	mu      sync.Mutex
	running map[string]*Handle
}

// NewService creates a Service with the provided configuration.
func NewService(cfg ServiceConfig) Service {
	pipeline := cfg.Pipeline
	if pipeline == nil {
		pipeline = &Pipeline{}
	}
	if cfg.Journal != nil && pipeline.Journal == nil {
		pipeline.Journal = cfg.Journal
	}

	journal := cfg.Journal
	if journal == nil {
		journal = pipeline.Journal
	}

	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	if pipeline.Now == nil {
		pipeline.Now = nowFn
	}

	return &service{
		pipeline: pipeline,
		journal:  journal,
		now:      nowFn,
		running:  make(map[string]*Handle),
	}
}

// StartConversion launches a conversion in the background and returns its
// journal record in the queued state.
func (s *service) StartConversion(ctx context.Context, req ConvertRequest) (JobRecord, error) {
	handle, err := s.pipeline.Start(ctx, req)
	if err != nil {
		return JobRecord{}, err
	}

	s.mu.Lock()
	s.running[handle.ID()] = handle
	s.mu.Unlock()

	go func() {
		<-handle.Done()
		s.mu.Lock()
		delete(s.running, handle.ID())
		s.mu.Unlock()
	}()

	if s.journal != nil {
		record, err := s.journal.Status(ctx, handle.ID())
		if err == nil {
			return record, nil
		}
	}

	return JobRecord{
		ID:              handle.ID(),
		SourcePath:      req.SourcePath,
		DestinationPath: req.DestinationPath,
		State:           StateQueued,
		CreatedAt:       s.now(),
	}, nil
}

// CancelConversion requests cancellation of a running job.
func (s *service) CancelConversion(ctx context.Context, jobID string) (JobRecord, error) {
	if jobID == "" {
		return JobRecord{}, AsGoError(NewError(KindValidation, "job ID is required", nil))
	}

	s.mu.Lock()
	handle, ok := s.running[jobID]
	s.mu.Unlock()
	if !ok {
		return JobRecord{}, AsGoError(NewError(KindNotFound, "conversion not running", nil))
	}

	handle.Cancel()
	return s.Status(ctx, jobID)
}

// Status returns the journal record for a job.
func (s *service) Status(ctx context.Context, jobID string) (JobRecord, error) {
	if jobID == "" {
		return JobRecord{}, AsGoError(NewError(KindValidation, "job ID is required", nil))
	}
	if s.journal == nil {
		return JobRecord{}, AsGoError(NewError(KindNotImpl, "journal not configured", nil))
	}
	record, err := s.journal.Status(ctx, jobID)
	if err != nil {
		return JobRecord{}, AsGoError(err)
	}
	return record, nil
}

// History returns journal records matching the filter.
func (s *service) History(ctx context.Context, filter JobFilter) ([]JobRecord, error) {
	if s.journal == nil {
		return nil, AsGoError(NewError(KindNotImpl, "journal not configured", nil))
	}
	records, err := s.journal.List(ctx, filter)
	if err != nil {
		return nil, AsGoError(err)
	}
	return records, nil
}
