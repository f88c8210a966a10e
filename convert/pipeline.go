package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/goliatone/go-db2xlsx/convert/notify"
	"github.com/google/uuid"
)

// NotificationConfig addresses workbook-ready notifications.
type NotificationConfig struct {
	Recipients []string
	Channels   []string
	Locale     string
	Message    string
}

// Pipeline orchestrates one conversion: it lists tables from the source,
// streams each table into a workbook sheet, and reports progress to the sink.
type Pipeline struct {
	OpenSource   SourceOpener
	OpenWorkbook WorkbookOpener
	Sink         ProgressSink
	Journal      Journal
	Emitter      ChangeEmitter
	Notifier     notify.WorkbookReadyNotifier
	Notification NotificationConfig
	Logger       Logger
	Now          func() time.Time
	IDGenerator  func() string
}

// NewPipeline creates a pipeline with the given source and workbook openers.
func NewPipeline(openSource SourceOpener, openWorkbook WorkbookOpener) *Pipeline {
	return &Pipeline{
		OpenSource:   openSource,
		OpenWorkbook: openWorkbook,
		Sink:         NopSink{},
		Logger:       NopLogger{},
		Now:          time.Now,
		IDGenerator:  defaultIDGenerator,
	}
}

// Run executes a conversion synchronously. Cancellation is available only
// through the context; use Start for a cancellable background job.
func (p *Pipeline) Run(ctx context.Context, req ConvertRequest) (ConvertResult, error) {
	return p.run(ctx, req, &Handle{done: make(chan struct{})})
}

// Start launches a conversion as a background task and returns a handle the
// caller can use to cancel or wait for it.
func (p *Pipeline) Start(ctx context.Context, req ConvertRequest) (*Handle, error) {
	if err := p.validate(req); err != nil {
		return nil, AsGoError(err)
	}

	id := req.JobID
	if id == "" {
		id = p.nextID()
	}
	job := &Handle{
		id:   id,
		done: make(chan struct{}),
	}

	go func() {
		result, err := p.run(ctx, req, job)
		job.finish(result, err)
	}()

	return job, nil
}

func (p *Pipeline) run(ctx context.Context, req ConvertRequest, job *Handle) (ConvertResult, error) {
	if err := p.validate(req); err != nil {
		return ConvertResult{}, AsGoError(err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if job.id == "" {
		job.id = req.JobID
	}
	if job.id == "" {
		job.id = p.nextID()
	}

	sink := p.Sink
	if sink == nil {
		sink = NopSink{}
	}
	logger := p.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	startedAt := p.now()
	if p.Journal != nil {
		id, err := p.Journal.Start(ctx, JobRecord{
			ID:              job.id,
			SourcePath:      req.SourcePath,
			DestinationPath: req.DestinationPath,
			State:           StateQueued,
			CreatedAt:       startedAt,
		})
		if err != nil {
			return ConvertResult{}, AsGoError(err)
		}
		if id != "" {
			job.id = id
		}
	}

	info := runInfo{jobID: job.id, req: req, startedAt: startedAt}
	p.emit(ctx, info, "convert.started", nil)

	src, err := p.OpenSource(req.SourcePath)
	if err != nil {
		err = NewError(KindConnection, fmt.Sprintf("open source %q", req.SourcePath), err)
		p.fail(ctx, info, err)
		return ConvertResult{}, AsGoError(err)
	}
	defer func() {
		_ = src.Close()
	}()

	p.setState(ctx, job.id, StateListing)
	tables, err := src.Tables(ctx)
	if err != nil {
		p.fail(ctx, info, err)
		return ConvertResult{}, AsGoError(err)
	}
	p.advance(ctx, job.id, ProgressDelta{}, map[string]any{"tables_total": len(tables)})

	wb, err := p.OpenWorkbook(req.DestinationPath)
	if err != nil {
		err = NewError(KindWrite, fmt.Sprintf("open workbook %q", req.DestinationPath), err)
		p.fail(ctx, info, err)
		return ConvertResult{}, AsGoError(err)
	}
	finalized := false
	defer func() {
		if !finalized {
			_ = wb.Discard()
		}
	}()

	p.setState(ctx, job.id, StateRunning)

	result := ConvertResult{ID: job.id, Destination: req.DestinationPath}

	if err := p.checkCanceled(ctx, info, job); err != nil {
		return result, AsGoError(err)
	}

	total := len(tables)
	for i, table := range tables {
		rows, err := src.ReadTable(ctx, table)
		if err != nil {
			p.fail(ctx, info, err)
			return result, AsGoError(err)
		}

		if err := wb.WriteTable(ctx, table, rows); err != nil {
			p.fail(ctx, info, err)
			return result, AsGoError(err)
		}

		result.Tables++
		result.Rows += int64(len(rows.Rows))

		// Tables completed over total, truncated; the last table lands on 100.
		percent := (i + 1) * 100 / total
		sink.Progress(percent)
		p.advance(ctx, job.id, ProgressDelta{Tables: 1, Rows: int64(len(rows.Rows))}, nil)
		p.emit(ctx, info, "convert.table", map[string]any{
			"table":   table.Name,
			"rows":    len(rows.Rows),
			"percent": percent,
		})
		logger.Debugf("table %q written: %d rows (%d%%)", table.Name, len(rows.Rows), percent)

		// Cancellation is observed only at table boundaries; a request made
		// mid-table completes that table's write first.
		if err := p.checkCanceled(ctx, info, job); err != nil {
			return result, AsGoError(err)
		}
	}

	sink.Finalizing()
	p.setState(ctx, job.id, StateFinalizing)

	if err := wb.Close(); err != nil {
		err = NewError(KindWrite, "finalize workbook", err)
		p.fail(ctx, info, err)
		return result, AsGoError(err)
	}
	finalized = true

	sink.Done()
	if p.Journal != nil {
		_ = p.Journal.Complete(ctx, job.id, map[string]any{
			"tables": result.Tables,
			"rows":   result.Rows,
		})
	}
	p.emit(ctx, info, "convert.completed", map[string]any{
		"tables":   result.Tables,
		"rows":     result.Rows,
		"duration": p.now().Sub(info.startedAt),
	})
	p.notifyReady(ctx, info, result, logger)
	logger.Infof("conversion %s completed: %d tables, %d rows", job.id, result.Tables, result.Rows)

	return result, nil
}

type runInfo struct {
	jobID     string
	req       ConvertRequest
	startedAt time.Time
}

// notifyReady announces the finished workbook. Delivery failures are logged,
// never surfaced; the conversion already succeeded.
func (p *Pipeline) notifyReady(ctx context.Context, info runInfo, result ConvertResult, logger Logger) {
	if p.Notifier == nil {
		return
	}
	evt := notify.WorkbookReadyEvent{
		Recipients: p.Notification.Recipients,
		Channels:   p.Notification.Channels,
		Locale:     p.Notification.Locale,
		FileName:   filepath.Base(info.req.DestinationPath),
		Source:     info.req.SourcePath,
		Tables:     result.Tables,
		Rows:       int(result.Rows),
		Message:    p.Notification.Message,
	}
	if err := p.Notifier.Send(ctx, evt); err != nil {
		logger.Errorf("workbook-ready notification for %s: %v", info.jobID, err)
	}
}

func (p *Pipeline) validate(req ConvertRequest) error {
	if p == nil {
		return NewError(KindInternal, "pipeline is nil", nil)
	}
	if p.OpenSource == nil {
		return NewError(KindInternal, "source opener is not configured", nil)
	}
	if p.OpenWorkbook == nil {
		return NewError(KindInternal, "workbook opener is not configured", nil)
	}
	if req.SourcePath == "" {
		return NewError(KindValidation, "source path is required", nil)
	}
	if req.DestinationPath == "" {
		return NewError(KindValidation, "destination path is required", nil)
	}
	return nil
}

func (p *Pipeline) checkCanceled(ctx context.Context, info runInfo, job *Handle) error {
	canceled := job.canceled()
	if !canceled {
		if err := ctx.Err(); err != nil {
			canceled = true
		}
	}
	if !canceled {
		return nil
	}

	p.setState(ctx, info.jobID, StateCanceled)
	p.emit(ctx, info, "convert.canceled", map[string]any{
		"duration": p.now().Sub(info.startedAt),
	})
	return NewError(KindCanceled, "conversion canceled", nil)
}

func (p *Pipeline) fail(ctx context.Context, info runInfo, err error) {
	if p.Journal != nil {
		_ = p.Journal.Fail(ctx, info.jobID, err, nil)
	}
	p.emit(ctx, info, "convert.failed", map[string]any{
		"error":      err.Error(),
		"error_kind": KindFromError(err),
		"duration":   p.now().Sub(info.startedAt),
	})
}

func (p *Pipeline) setState(ctx context.Context, jobID string, state JobState) {
	if p.Journal == nil {
		return
	}
	_ = p.Journal.SetState(ctx, jobID, state, nil)
}

func (p *Pipeline) advance(ctx context.Context, jobID string, delta ProgressDelta, meta map[string]any) {
	if p.Journal == nil {
		return
	}
	_ = p.Journal.Advance(ctx, jobID, delta, meta)
}

func (p *Pipeline) emit(ctx context.Context, info runInfo, name string, meta map[string]any) {
	if p.Emitter == nil {
		return
	}
	evt := ChangeEvent{
		Name:        name,
		JobID:       info.jobID,
		Source:      info.req.SourcePath,
		Destination: info.req.DestinationPath,
		Timestamp:   p.now(),
		Metadata:    meta,
	}
	if table, ok := meta["table"].(string); ok {
		evt.Table = table
	}
	_ = p.Emitter.Emit(ctx, evt)
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) nextID() string {
	if p.IDGenerator == nil {
		return defaultIDGenerator()
	}
	return p.IDGenerator()
}

func defaultIDGenerator() string {
	return uuid.NewString()
}
