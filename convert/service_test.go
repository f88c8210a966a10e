package convert

import (
	"context"
	"testing"
	"time"
)

type gatedSource struct {
	stubSource
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) ReadTable(ctx context.Context, table Table) (RowSet, error) {
	select {
	case <-s.started:
	default:
		close(s.started)
		<-s.release
	}
	return s.stubSource.ReadTable(ctx, table)
}

func newServiceUnderTest(src SourceReader, wb WorkbookWriter, journal Journal) Service {
	p := NewPipeline(
		func(path string) (SourceReader, error) { return src, nil },
		func(path string) (WorkbookWriter, error) { return wb, nil },
	)
	p.Journal = journal
	return NewService(ServiceConfig{Pipeline: p, Journal: journal})
}

func TestService_StartConversion(t *testing.T) {
	journal := newRecordingJournal()
	svc := newServiceUnderTest(twoTableSource(), &stubWorkbook{}, journal)

	record, err := svc.StartConversion(context.Background(), ConvertRequest{
		SourcePath:      "app.db",
		DestinationPath: "app.xlsx",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if record.ID == "" {
		t.Fatalf("expected a job ID")
	}

	waitForState(t, svc, record.ID, StateCompleted)
}

func TestService_CancelConversion(t *testing.T) {
	src := &gatedSource{
		stubSource: *twoTableSource(),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	journal := newRecordingJournal()
	svc := newServiceUnderTest(src, &stubWorkbook{}, journal)

	record, err := svc.StartConversion(context.Background(), ConvertRequest{
		SourcePath:      "app.db",
		DestinationPath: "app.xlsx",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	<-src.started
	if _, err := svc.CancelConversion(context.Background(), record.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	close(src.release)

	waitForState(t, svc, record.ID, StateCanceled)
}

func TestService_CancelUnknownJob(t *testing.T) {
	svc := newServiceUnderTest(&stubSource{}, &stubWorkbook{}, newRecordingJournal())

	if _, err := svc.CancelConversion(context.Background(), "nope"); err == nil {
		t.Fatalf("expected not found")
	}
	if _, err := svc.CancelConversion(context.Background(), ""); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestService_StatusWithoutJournal(t *testing.T) {
	p := NewPipeline(
		func(path string) (SourceReader, error) { return &stubSource{}, nil },
		func(path string) (WorkbookWriter, error) { return &stubWorkbook{}, nil },
	)
	svc := NewService(ServiceConfig{Pipeline: p})

	if _, err := svc.Status(context.Background(), "job"); err == nil {
		t.Fatalf("expected not implemented without a journal")
	}
	if _, err := svc.History(context.Background(), JobFilter{}); err == nil {
		t.Fatalf("expected not implemented without a journal")
	}
}

func waitForState(t *testing.T, svc Service, jobID string, want JobState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		record, err := svc.Status(context.Background(), jobID)
		if err == nil && record.State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	record, _ := svc.Status(context.Background(), jobID)
	t.Fatalf("job never reached %q, last state %q", want, record.State)
}
