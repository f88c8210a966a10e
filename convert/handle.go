package convert

import "sync/atomic"

// Handle tracks a running conversion. Cancel is the caller's only way to
// influence the job; the pipeline observes it between tables.
type Handle struct {
	id     string
	stop   atomic.Bool
	done   chan struct{}
	result ConvertResult
	err    error
}

// ID returns the job identifier.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// Cancel requests cooperative cancellation. The pipeline honors it at the
// next table boundary, so latency is bounded by one table's export time.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.stop.Store(true)
}

// Done is closed once the conversion finishes, fails, or is canceled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the conversion finishes and returns its result.
func (h *Handle) Wait() (ConvertResult, error) {
	<-h.done
	return h.result, h.err
}

// Err returns the terminal error; nil while the conversion is still running.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Result returns the outcome; valid only after Done is closed.
func (h *Handle) Result() (ConvertResult, error) {
	select {
	case <-h.done:
		return h.result, h.err
	default:
		return ConvertResult{}, NewError(KindValidation, "conversion still running", nil)
	}
}

func (h *Handle) canceled() bool {
	return h.stop.Load()
}

func (h *Handle) finish(result ConvertResult, err error) {
	h.result = result
	h.err = err
	close(h.done)
}
