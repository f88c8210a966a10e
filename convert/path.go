package convert

import (
	"path/filepath"
	"strings"
)

var databaseExtensions = map[string]struct{}{
	".db":      {},
	".sqlite":  {},
	".sqlite3": {},
	".db3":     {},
}

// IsDatabasePath reports whether the path carries a recognized database
// file extension.
func IsDatabasePath(path string) bool {
	_, ok := databaseExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DestinationPath derives the workbook path for a source database: a
// recognized database extension is replaced with .xlsx, anything else gets
// .xlsx appended to the unchanged path.
func DestinationPath(source string) string {
	ext := filepath.Ext(source)
	if _, ok := databaseExtensions[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(source, ext) + ".xlsx"
	}
	return source + ".xlsx"
}
