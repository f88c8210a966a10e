package convertjob

import (
	"context"
	"sync"

	"github.com/goliatone/go-db2xlsx/convert"
)

// CancelRegistry tracks running conversion jobs for cancellation.
type CancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewCancelRegistry creates a new registry for job cancellation.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{cancels: make(map[string]context.CancelFunc)}
}

// Register associates a cancel func with a job ID.
func (r *CancelRegistry) Register(jobID string, cancel context.CancelFunc) func() {
	if r == nil || jobID == "" || cancel == nil {
		return func() {}
	}
	r.mu.Lock()
	r.cancels[jobID] = cancel
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.cancels, jobID)
		r.mu.Unlock()
	}
}

// Cancel triggers context cancellation for a running conversion.
func (r *CancelRegistry) Cancel(ctx context.Context, jobID string) error {
	_ = ctx
	if r == nil {
		return convert.NewError(convert.KindInternal, "cancel registry is nil", nil)
	}
	if jobID == "" {
		return convert.NewError(convert.KindValidation, "job ID is required", nil)
	}

	r.mu.Lock()
	cancel, ok := r.cancels[jobID]
	r.mu.Unlock()
	if !ok {
		return convert.NewError(convert.KindNotFound, "conversion not running", nil)
	}
	cancel()
	return nil
}
