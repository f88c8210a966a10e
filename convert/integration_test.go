package convert_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	xlsxwriter "github.com/goliatone/go-db2xlsx/adapters/xlsx"
	"github.com/goliatone/go-db2xlsx/convert"
	sqlitesource "github.com/goliatone/go-db2xlsx/sources/sqlite"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"
)

func newSourceDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()

	statements := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`,
		`INSERT INTO users (id, name) VALUES (1, 'ana'), (2, 'bob'), (3, 'eve')`,
		`CREATE TABLE logs (id INTEGER PRIMARY KEY, msg TEXT)`,
		`INSERT INTO logs (id, msg) VALUES (1, 'boot'), (2, 'ready')`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return path
}

func TestPipeline_SQLiteToWorkbook(t *testing.T) {
	src := newSourceDB(t)
	dest := filepath.Join(t.TempDir(), "app.xlsx")

	sink := convert.NewChannelSink(16)
	pipeline := convert.NewPipeline(sqlitesource.OpenSource, xlsxwriter.OpenDestination)
	pipeline.Sink = sink

	result, err := pipeline.Run(context.Background(), convert.ConvertRequest{
		SourcePath:      src,
		DestinationPath: dest,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	sink.CloseEvents()

	if result.Tables != 2 {
		t.Fatalf("expected 2 tables, got %d", result.Tables)
	}
	if result.Rows != 5 {
		t.Fatalf("expected 5 rows, got %d", result.Rows)
	}
	if result.Destination != dest {
		t.Fatalf("unexpected destination %q", result.Destination)
	}

	var percents []int
	sawFinalizing := false
	sawDone := false
	for evt := range sink.Events() {
		switch evt.Kind {
		case convert.EventProgress:
			percents = append(percents, evt.Percent)
		case convert.EventFinalizing:
			sawFinalizing = true
		case convert.EventDone:
			sawDone = true
		}
	}
	want := []int{50, 100}
	if len(percents) != len(want) {
		t.Fatalf("expected %v, got %v", want, percents)
	}
	for i, pct := range want {
		if percents[i] != pct {
			t.Fatalf("expected %v, got %v", want, percents)
		}
	}
	if !sawFinalizing || !sawDone {
		t.Fatalf("expected finalizing and done events")
	}

	file, err := excelize.OpenFile(dest)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() {
		_ = file.Close()
	})

	sheets := file.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "users" || sheets[1] != "logs" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	rows, err := file.GetRows("users")
	if err != nil {
		t.Fatalf("read users: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "name" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "ana" || rows[3][1] != "eve" {
		t.Fatalf("unexpected users rows: %v", rows)
	}

	rows, err = file.GetRows("logs")
	if err != nil {
		t.Fatalf("read logs: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
}

func TestPipeline_SourceFailureLeavesNoWorkbook(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.xlsx")

	pipeline := convert.NewPipeline(sqlitesource.OpenSource, xlsxwriter.OpenDestination)
	_, err := pipeline.Run(context.Background(), convert.ConvertRequest{
		SourcePath:      filepath.Join(t.TempDir(), "missing.db"),
		DestinationPath: dest,
	})
	if err == nil {
		t.Fatalf("expected connection error")
	}
	if kind := convert.KindFromError(err); kind != convert.KindConnection {
		t.Fatalf("expected connection kind, got %q", kind)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("expected no workbook at %q", dest)
	}
}

func TestPipeline_BackgroundRoundtrip(t *testing.T) {
	src := newSourceDB(t)
	dest := filepath.Join(t.TempDir(), "app.xlsx")

	pipeline := convert.NewPipeline(sqlitesource.OpenSource, xlsxwriter.OpenDestination)
	handle, err := pipeline.Start(context.Background(), convert.ConvertRequest{
		SourcePath:      src,
		DestinationPath: dest,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if handle.ID() == "" {
		t.Fatalf("expected a job ID")
	}

	result, err := handle.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if result.Tables != 2 || result.Rows != 5 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected workbook at %q: %v", dest, err)
	}
}
