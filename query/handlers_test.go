package query

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-db2xlsx/convert"
)

type fakeService struct {
	record  convert.JobRecord
	history []convert.JobRecord
	filter  convert.JobFilter
	err     error
}

func (s *fakeService) StartConversion(ctx context.Context, req convert.ConvertRequest) (convert.JobRecord, error) {
	return s.record, s.err
}

func (s *fakeService) CancelConversion(ctx context.Context, jobID string) (convert.JobRecord, error) {
	return s.record, s.err
}

func (s *fakeService) Status(ctx context.Context, jobID string) (convert.JobRecord, error) {
	return s.record, s.err
}

func (s *fakeService) History(ctx context.Context, filter convert.JobFilter) ([]convert.JobRecord, error) {
	s.filter = filter
	return s.history, s.err
}

func TestConversionStatusHandler(t *testing.T) {
	svc := &fakeService{record: convert.JobRecord{ID: "job-1", State: convert.StateCompleted}}
	handler := NewConversionStatusHandler(svc)

	record, err := handler.Query(context.Background(), ConversionStatus{JobID: "job-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if record.ID != "job-1" || record.State != convert.StateCompleted {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestConversionStatusHandlerMissingService(t *testing.T) {
	handler := &ConversionStatusHandler{}
	if _, err := handler.Query(context.Background(), ConversionStatus{JobID: "job-1"}); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestConversionHistoryHandler(t *testing.T) {
	svc := &fakeService{history: []convert.JobRecord{
		{ID: "b", State: convert.StateCompleted},
		{ID: "a", State: convert.StateFailed},
	}}
	handler := NewConversionHistoryHandler(svc)

	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records, err := handler.Query(context.Background(), ConversionHistory{
		Filter: convert.JobFilter{State: convert.StateCompleted, Since: since},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if svc.filter.State != convert.StateCompleted || !svc.filter.Since.Equal(since) {
		t.Fatalf("filter not forwarded: %+v", svc.filter)
	}
}

func TestConversionStatusValidate(t *testing.T) {
	if err := (ConversionStatus{}).Validate(); err == nil {
		t.Fatalf("expected missing job ID error")
	}
	if err := (ConversionStatus{JobID: "job-1"}).Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
