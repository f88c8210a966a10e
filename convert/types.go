package convert

import (
	"context"
	"time"
)

// Table identifies one exportable source table.
type Table struct {
	Name string
}

// Row is a column-aligned record.
type Row []any

// RowSet holds the column headers and data rows for one table.
type RowSet struct {
	Columns []string
	Rows    []Row
}

// ConvertRequest captures one conversion invocation. JobID, when set, keys
// the journal record instead of a generated ID so schedulers can correlate
// status lookups with their own job identifiers.
type ConvertRequest struct {
	JobID           string
	SourcePath      string
	DestinationPath string
}

// ConvertResult captures a completed conversion.
type ConvertResult struct {
	ID          string
	Tables      int
	Rows        int64
	Destination string
}

// JobState captures conversion progress states.
type JobState string

const (
	StateQueued     JobState = "queued"
	StateListing    JobState = "listing"
	StateRunning    JobState = "running"
	StateFinalizing JobState = "finalizing"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
	StateCanceled   JobState = "canceled"
)

// JobCounts tracks table and row counters for a job.
type JobCounts struct {
	TablesTotal int64
	TablesDone  int64
	Rows        int64
}

// JobRecord captures journal state for a conversion job.
type JobRecord struct {
	ID              string
	SourcePath      string
	DestinationPath string
	State           JobState
	Counts          JobCounts
	Error           string
	CreatedAt       time.Time
	StartedAt       time.Time
	CompletedAt     time.Time
}

// ProgressSink receives conversion progress notifications. Implementations
// must be safe to call from the conversion's background goroutine.
type ProgressSink interface {
	Progress(percent int)
	Finalizing()
	Done()
}

// SourceReader lists and reads tables from an open source database.
type SourceReader interface {
	Tables(ctx context.Context) ([]Table, error)
	ReadTable(ctx context.Context, table Table) (RowSet, error)
	Close() error
}

// WorkbookWriter writes tables into a destination workbook.
//
// Close finalizes the workbook and is the point at which the destination
// becomes durable; it must be called at most once and never after Discard.
// Discard abandons the workbook and removes any partial destination file.
type WorkbookWriter interface {
	WriteTable(ctx context.Context, table Table, rows RowSet) error
	Close() error
	Discard() error
}

// SourceOpener opens a source database by path.
type SourceOpener func(path string) (SourceReader, error)

// WorkbookOpener opens a destination workbook by path.
type WorkbookOpener func(path string) (WorkbookWriter, error)

// ProgressDelta indicates journal counter changes.
type ProgressDelta struct {
	Tables int64
	Rows   int64
}

// Journal persists conversion job state.
type Journal interface {
	Start(ctx context.Context, record JobRecord) (string, error)
	Advance(ctx context.Context, id string, delta ProgressDelta, meta map[string]any) error
	SetState(ctx context.Context, id string, state JobState, meta map[string]any) error
	Fail(ctx context.Context, id string, err error, meta map[string]any) error
	Complete(ctx context.Context, id string, meta map[string]any) error
	Status(ctx context.Context, id string) (JobRecord, error)
	List(ctx context.Context, filter JobFilter) ([]JobRecord, error)
}

// JobFilter filters journal lists.
type JobFilter struct {
	State JobState
	Since time.Time
	Until time.Time
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// ChangeEvent describes lifecycle events.
type ChangeEvent struct {
	Name        string
	JobID       string
	Source      string
	Destination string
	Table       string
	Timestamp   time.Time
	Metadata    map[string]any
}

// ChangeEmitter emits lifecycle events.
type ChangeEmitter interface {
	Emit(ctx context.Context, evt ChangeEvent) error
}
