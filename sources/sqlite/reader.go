package sqlitesource

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-db2xlsx/convert"
	_ "modernc.org/sqlite"
)

// system catalog objects carry this prefix and are never exported
const reservedPrefix = "sqlite_"

// Reader reads tables from a SQLite database file.
type Reader struct {
	db   *sql.DB
	path string
}

// Open opens the SQLite database at path. It fails if the file does not
// exist or is not a readable database.
func Open(path string) (*Reader, error) {
	if path == "" {
		return nil, convert.NewError(convert.KindValidation, "source path is required", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, convert.NewError(convert.KindConnection, fmt.Sprintf("source %q is not readable", path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, convert.NewError(convert.KindConnection, fmt.Sprintf("open %q", path), err)
	}

	// sql.Open is lazy; probe the catalog so corrupt or non-database files
	// fail here instead of on the first table read.
	if err := db.QueryRow("SELECT count(*) FROM sqlite_master").Scan(new(int)); err != nil {
		_ = db.Close()
		return nil, convert.NewError(convert.KindConnection, fmt.Sprintf("%q is not a valid database", path), err)
	}

	return &Reader{db: db, path: path}, nil
}

// OpenSource adapts Open to the pipeline's SourceOpener contract.
func OpenSource(path string) (convert.SourceReader, error) {
	return Open(path)
}

// Tables returns the user tables in catalog order, excluding objects with
// the engine's reserved prefix. This order drives the export order and the
// progress denominator.
func (r *Reader) Tables(ctx context.Context) ([]convert.Table, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, convert.NewError(convert.KindConnection, "list tables", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tables []convert.Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, convert.NewError(convert.KindConnection, "scan table name", err)
		}
		if strings.HasPrefix(name, reservedPrefix) {
			continue
		}
		tables = append(tables, convert.Table{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, convert.NewError(convert.KindConnection, "list tables", err)
	}
	return tables, nil
}

// ReadTable scans the whole table and returns its header plus data rows in
// result order.
func (r *Reader) ReadTable(ctx context.Context, table convert.Table) (convert.RowSet, error) {
	query := fmt.Sprintf("SELECT * FROM %s", quoteIdentifier(table.Name))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return convert.RowSet{}, convert.NewError(convert.KindTableRead, fmt.Sprintf("read table %q", table.Name), err)
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return convert.RowSet{}, convert.NewError(convert.KindTableRead, fmt.Sprintf("columns of table %q", table.Name), err)
	}

	set := convert.RowSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return convert.RowSet{}, convert.NewError(convert.KindTableRead, fmt.Sprintf("scan row of table %q", table.Name), err)
		}
		set.Rows = append(set.Rows, convert.Row(values))
	}
	if err := rows.Err(); err != nil {
		return convert.RowSet{}, convert.NewError(convert.KindTableRead, fmt.Sprintf("read table %q", table.Name), err)
	}
	return set, nil
}

// Close releases the database connection.
func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// quoteIdentifier quotes a catalog name so tables with spaces or quotes in
// their names still scan.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
