package journalbun

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goliatone/go-db2xlsx/convert"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Journal stores conversion job records in a Bun-backed database.
type Journal struct {
	DB          *bun.DB
	Now         func() time.Time
	IDGenerator func() string
}

// NewJournal creates a Bun-backed journal.
func NewJournal(db *bun.DB) *Journal {
	return &Journal{DB: db, Now: time.Now, IDGenerator: uuid.NewString}
}

// Open builds a Bun database over the SQLite shim driver and ensures the
// journal table exists.
func Open(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, convert.NewError(convert.KindConnection, fmt.Sprintf("open journal %q", dsn), err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.NewCreateTable().Model((*jobModel)(nil)).IfNotExists().Exec(context.Background()); err != nil {
		_ = db.Close()
		return nil, convert.NewError(convert.KindConnection, "create journal table", err)
	}
	return db, nil
}

// Start creates a new job record.
func (j *Journal) Start(ctx context.Context, record convert.JobRecord) (string, error) {
	if j == nil || j.DB == nil {
		return "", convert.NewError(convert.KindNotImpl, "journal database not configured", nil)
	}
	if record.ID == "" {
		record.ID = j.nextID()
	}
	if record.State == "" {
		record.State = convert.StateQueued
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = j.now()
	}

	model := modelFromRecord(record)
	if _, err := j.DB.NewInsert().Model(&model).Exec(ctx); err != nil {
		return "", err
	}
	return record.ID, nil
}

// Advance updates counters for a job. A "tables_total" meta entry sets the
// progress denominator once the table list is known.
func (j *Journal) Advance(ctx context.Context, id string, delta convert.ProgressDelta, meta map[string]any) error {
	if j == nil || j.DB == nil {
		return convert.NewError(convert.KindNotImpl, "journal database not configured", nil)
	}
	if id == "" {
		return convert.NewError(convert.KindValidation, "job ID is required", nil)
	}

	query := j.DB.NewUpdate().Model((*jobModel)(nil)).
		Set("tables_done = tables_done + ?", delta.Tables).
		Set("row_count = row_count + ?", delta.Rows).
		Where("id = ?", id)
	if total, ok := totalFromMeta(meta); ok {
		query = query.Set("tables_total = ?", total)
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return convert.NewError(convert.KindNotFound, fmt.Sprintf("job %q not found", id), nil)
	}
	return nil
}

// SetState updates the job state.
func (j *Journal) SetState(ctx context.Context, id string, state convert.JobState, meta map[string]any) error {
	_ = meta
	if j == nil || j.DB == nil {
		return convert.NewError(convert.KindNotImpl, "journal database not configured", nil)
	}
	if id == "" {
		return convert.NewError(convert.KindValidation, "job ID is required", nil)
	}

	query := j.DB.NewUpdate().Model((*jobModel)(nil)).
		Set("state = ?", state).
		Where("id = ?", id)
	if state == convert.StateListing || state == convert.StateRunning {
		query = query.Set("started_at = COALESCE(started_at, ?)", j.now())
	}
	if state == convert.StateCompleted || state == convert.StateFailed || state == convert.StateCanceled {
		query = query.Set("completed_at = COALESCE(completed_at, ?)", j.now())
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return convert.NewError(convert.KindNotFound, fmt.Sprintf("job %q not found", id), nil)
	}
	return nil
}

// Fail marks the job failed and records the error text.
func (j *Journal) Fail(ctx context.Context, id string, jobErr error, meta map[string]any) error {
	_ = meta
	if j == nil || j.DB == nil {
		return convert.NewError(convert.KindNotImpl, "journal database not configured", nil)
	}
	if id == "" {
		return convert.NewError(convert.KindValidation, "job ID is required", nil)
	}

	message := ""
	if jobErr != nil {
		message = jobErr.Error()
	}

	res, err := j.DB.NewUpdate().Model((*jobModel)(nil)).
		Set("state = ?", convert.StateFailed).
		Set("error = ?", message).
		Set("completed_at = COALESCE(completed_at, ?)", j.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return convert.NewError(convert.KindNotFound, fmt.Sprintf("job %q not found", id), nil)
	}
	return nil
}

// Complete marks the job completed.
func (j *Journal) Complete(ctx context.Context, id string, meta map[string]any) error {
	_ = meta
	if j == nil || j.DB == nil {
		return convert.NewError(convert.KindNotImpl, "journal database not configured", nil)
	}
	if id == "" {
		return convert.NewError(convert.KindValidation, "job ID is required", nil)
	}

	res, err := j.DB.NewUpdate().Model((*jobModel)(nil)).
		Set("state = ?", convert.StateCompleted).
		Set("completed_at = COALESCE(completed_at, ?)", j.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return convert.NewError(convert.KindNotFound, fmt.Sprintf("job %q not found", id), nil)
	}
	return nil
}

// Status returns a single job record.
func (j *Journal) Status(ctx context.Context, id string) (convert.JobRecord, error) {
	if j == nil || j.DB == nil {
		return convert.JobRecord{}, convert.NewError(convert.KindNotImpl, "journal database not configured", nil)
	}
	if id == "" {
		return convert.JobRecord{}, convert.NewError(convert.KindValidation, "job ID is required", nil)
	}

	model := jobModel{}
	err := j.DB.NewSelect().Model(&model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return convert.JobRecord{}, convert.NewError(convert.KindNotFound, fmt.Sprintf("job %q not found", id), nil)
		}
		return convert.JobRecord{}, err
	}
	return model.toRecord(), nil
}

// List returns job records matching the filter, newest first.
func (j *Journal) List(ctx context.Context, filter convert.JobFilter) ([]convert.JobRecord, error) {
	if j == nil || j.DB == nil {
		return nil, convert.NewError(convert.KindNotImpl, "journal database not configured", nil)
	}

	var models []jobModel
	query := j.DB.NewSelect().Model(&models)
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at <= ?", filter.Until)
	}
	query = query.Order("created_at DESC")

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	records := make([]convert.JobRecord, 0, len(models))
	for _, model := range models {
		records = append(records, model.toRecord())
	}
	return records, nil
}

// Delete removes a job record.
func (j *Journal) Delete(ctx context.Context, id string) error {
	if j == nil || j.DB == nil {
		return convert.NewError(convert.KindNotImpl, "journal database not configured", nil)
	}
	if id == "" {
		return convert.NewError(convert.KindValidation, "job ID is required", nil)
	}

	res, err := j.DB.NewDelete().Model((*jobModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return convert.NewError(convert.KindNotFound, fmt.Sprintf("job %q not found", id), nil)
	}
	return nil
}

func (j *Journal) now() time.Time {
	if j.Now == nil {
		return time.Now()
	}
	return j.Now()
}

func (j *Journal) nextID() string {
	if j.IDGenerator == nil {
		return uuid.NewString()
	}
	return j.IDGenerator()
}

func totalFromMeta(meta map[string]any) (int64, bool) {
	if meta == nil {
		return 0, false
	}
	switch v := meta["tables_total"].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

type jobModel struct {
	bun.BaseModel `bun:"table:convert_jobs,alias:convert_jobs"`

	ID              string    `bun:",pk"`
	SourcePath      string    `bun:"source_path,notnull"`
	DestinationPath string    `bun:"destination_path,notnull"`
	State           string    `bun:",notnull"`
	TablesTotal     int64     `bun:"tables_total"`
	TablesDone      int64     `bun:"tables_done"`
	RowCount        int64     `bun:"row_count"`
	Error           string    `bun:"error"`
	CreatedAt       time.Time `bun:"created_at"`
	StartedAt       time.Time `bun:"started_at,nullzero"`
	CompletedAt     time.Time `bun:"completed_at,nullzero"`
}

func modelFromRecord(record convert.JobRecord) jobModel {
	return jobModel{
		ID:              record.ID,
		SourcePath:      record.SourcePath,
		DestinationPath: record.DestinationPath,
		State:           string(record.State),
		TablesTotal:     record.Counts.TablesTotal,
		TablesDone:      record.Counts.TablesDone,
		RowCount:        record.Counts.Rows,
		Error:           record.Error,
		CreatedAt:       record.CreatedAt,
		StartedAt:       record.StartedAt,
		CompletedAt:     record.CompletedAt,
	}
}

func (m jobModel) toRecord() convert.JobRecord {
	return convert.JobRecord{
		ID:              m.ID,
		SourcePath:      m.SourcePath,
		DestinationPath: m.DestinationPath,
		State:           convert.JobState(m.State),
		Counts: convert.JobCounts{
			TablesTotal: m.TablesTotal,
			TablesDone:  m.TablesDone,
			Rows:        m.RowCount,
		},
		Error:       m.Error,
		CreatedAt:   m.CreatedAt,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}
}
