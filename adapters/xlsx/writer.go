package xlsxwriter

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-db2xlsx/convert"
	"github.com/xuri/excelize/v2"
)

const (
	excelMaxRows      = 1048576
	excelMaxCols      = 16384
	maxSheetNameChars = 31
	fallbackSheetName = "Sheet"
)

var invalidSheetChars = strings.NewReplacer(
	"[", "_", "]", "_", ":", "_", "*", "_", "?", "_", "/", "_", "\\", "_",
)

// Workbook writes tables into an XLSX file, one sheet per table.
//
// The destination file is created up front so unwritable paths fail before
// any table is read, but data becomes durable only on Close. Discard removes
// the partial destination file, so failed or canceled conversions leave no
// file behind.
type Workbook struct {
	file     *excelize.File
	out      *os.File
	path     string
	headerID int
	used     map[string]string
	closed   bool
}

// OpenWorkbook creates (or truncates) the destination file at path.
func OpenWorkbook(path string) (*Workbook, error) {
	if path == "" {
		return nil, convert.NewError(convert.KindValidation, "destination path is required", nil)
	}

	out, err := os.Create(path)
	if err != nil {
		return nil, convert.NewError(convert.KindWrite, fmt.Sprintf("create destination %q", path), err)
	}

	file := excelize.NewFile()
	headerID, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return nil, convert.NewError(convert.KindWrite, "workbook header style", err)
	}

	return &Workbook{
		file:     file,
		out:      out,
		path:     path,
		headerID: headerID,
		used:     make(map[string]string),
	}, nil
}

// OpenDestination adapts OpenWorkbook to the pipeline's WorkbookOpener contract.
func OpenDestination(path string) (convert.WorkbookWriter, error) {
	return OpenWorkbook(path)
}

// WriteTable creates one sheet named after the table and writes the header
// row followed by every data row in row-major order.
func (w *Workbook) WriteTable(ctx context.Context, table convert.Table, rows convert.RowSet) error {
	if w == nil || w.file == nil {
		return convert.NewError(convert.KindInternal, "workbook is not open", nil)
	}
	if w.closed {
		return convert.NewError(convert.KindInternal, "workbook already finalized", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rows.Rows)+1 > excelMaxRows {
		return convert.NewError(convert.KindWrite, fmt.Sprintf("table %q exceeds the sheet row limit", table.Name), nil)
	}
	if len(rows.Columns) > excelMaxCols {
		return convert.NewError(convert.KindWrite, fmt.Sprintf("table %q exceeds the sheet column limit", table.Name), nil)
	}

	sheetName, err := w.sheetName(table.Name)
	if err != nil {
		return err
	}

	if _, err := w.file.NewSheet(sheetName); err != nil {
		return convert.NewError(convert.KindWrite, fmt.Sprintf("create sheet %q", sheetName), err)
	}

	stream, err := w.file.NewStreamWriter(sheetName)
	if err != nil {
		return convert.NewError(convert.KindWrite, fmt.Sprintf("stream sheet %q", sheetName), err)
	}

	headers := make([]any, len(rows.Columns))
	for i, col := range rows.Columns {
		headers[i] = excelize.Cell{StyleID: w.headerID, Value: col}
	}
	if err := stream.SetRow("A1", headers); err != nil {
		return convert.NewError(convert.KindWrite, fmt.Sprintf("write header of sheet %q", sheetName), err)
	}

	for i, row := range rows.Rows {
		cells := make([]any, len(row))
		for j, value := range row {
			cells[j] = excelize.Cell{Value: cellValue(value)}
		}
		if err := stream.SetRow(fmt.Sprintf("A%d", i+2), cells); err != nil {
			return convert.NewError(convert.KindWrite, fmt.Sprintf("write row %d of sheet %q", i+1, sheetName), err)
		}
	}

	if err := stream.Flush(); err != nil {
		return convert.NewError(convert.KindWrite, fmt.Sprintf("flush sheet %q", sheetName), err)
	}
	return nil
}

// Close finalizes the workbook and flushes it to the destination path. If no
// table was ever written the default empty sheet remains, so an empty source
// still yields a valid workbook.
func (w *Workbook) Close() error {
	if w == nil || w.file == nil {
		return convert.NewError(convert.KindInternal, "workbook is not open", nil)
	}
	if w.closed {
		return convert.NewError(convert.KindInternal, "workbook already finalized", nil)
	}
	w.closed = true

	w.dropDefaultSheet()

	if _, err := w.file.WriteTo(w.out); err != nil {
		_ = w.out.Close()
		_ = w.file.Close()
		return convert.NewError(convert.KindWrite, fmt.Sprintf("write destination %q", w.path), err)
	}
	if err := w.out.Close(); err != nil {
		_ = w.file.Close()
		return convert.NewError(convert.KindWrite, fmt.Sprintf("close destination %q", w.path), err)
	}
	return w.file.Close()
}

// Discard abandons the workbook and removes the partial destination file.
func (w *Workbook) Discard() error {
	if w == nil || w.file == nil || w.closed {
		return nil
	}
	w.closed = true

	_ = w.file.Close()
	_ = w.out.Close()
	return os.Remove(w.path)
}

// dropDefaultSheet removes the excelize default sheet once real tables
// exist, unless a table claimed its name.
func (w *Workbook) dropDefaultSheet() {
	if len(w.used) == 0 {
		return
	}
	defaultName := w.file.GetSheetName(0)
	if _, taken := w.used[strings.ToLower(defaultName)]; taken {
		return
	}
	_ = w.file.DeleteSheet(defaultName)
}

// sheetName sanitizes a table name to the XLSX sheet constraints. Name
// collisions after truncation get a deterministic numeric suffix.
func (w *Workbook) sheetName(tableName string) (string, error) {
	name := invalidSheetChars.Replace(tableName)
	name = strings.Trim(name, "'")
	if name == "" {
		name = fallbackSheetName
	}
	name = truncateSheetName(name, maxSheetNameChars)

	key := strings.ToLower(name)
	if _, taken := w.used[key]; !taken {
		w.used[key] = tableName
		return name, nil
	}

	for n := 2; n < 1000; n++ {
		suffix := "_" + strconv.Itoa(n)
		candidate := truncateSheetName(name, maxSheetNameChars-len(suffix)) + suffix
		key = strings.ToLower(candidate)
		if _, taken := w.used[key]; !taken {
			w.used[key] = tableName
			return candidate, nil
		}
	}
	return "", convert.NewError(convert.KindSheetConflict, fmt.Sprintf("no sheet name available for table %q", tableName), nil)
}

// truncateSheetName caps a name at limit characters, not bytes, so multibyte
// names never get cut mid-rune. Truncation can expose a trailing apostrophe,
// which sheet names must not end with, so it is trimmed again.
func truncateSheetName(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return strings.TrimRight(string(runes[:limit]), "'")
}

// cellValue maps source scalars to spreadsheet cell values. Nulls become
// empty cells and binary values are written as text.
func cellValue(value any) any {
	switch v := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case bool, int, int32, int64, float32, float64, string:
		return v
	case time.Time:
		return v
	default:
		return fmt.Sprint(v)
	}
}
