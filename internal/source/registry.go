package source

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// OpenFunc opens a file as a Table.
type OpenFunc func(path string) (Table, error)

// Format describes a registered tabular reader.
type Format struct {
	Name       string   // "csv", "xlsx"
	Extensions []string // lower-case, with the leading dot
	Open       OpenFunc
}

// spreadsheetExtensions are always recognised, even when no spreadsheet
// reader is compiled in, so that asking for one fails loudly instead of
// being parsed as delimited text.
var spreadsheetExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

var (
	formats   = make(map[string]Format) // keyed by extension
	formatsMu sync.RWMutex
)

// Register adds a format for each of its extensions.
// Panics if an extension is already registered.
func Register(f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()

	for _, ext := range f.Extensions {
		ext = strings.ToLower(ext)
		if existing, ok := formats[ext]; ok {
			panic(fmt.Sprintf("extension %s already registered by %s", ext, existing.Name))
		}
		formats[ext] = f
	}
}

// Lookup returns the format for path's extension. Unregistered extensions
// fall back to delimited text, except spreadsheet extensions, which return a
// DependencyUnavailableError when no spreadsheet reader is registered.
func Lookup(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))

	formatsMu.RLock()
	f, ok := formats[ext]
	formatsMu.RUnlock()
	if ok {
		return f, nil
	}

	if isSpreadsheet(path) {
		return Format{}, &DependencyUnavailableError{
			Capability: "spreadsheet (" + ext + ")",
			Hint:       "rebuild without the noxlsx build tag or convert the file to CSV",
		}
	}
	return delimitedFormat, nil
}

// isSpreadsheet reports whether path has a spreadsheet extension.
func isSpreadsheet(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range spreadsheetExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	seen := make(map[string]bool)
	for _, f := range formats {
		seen[f.Name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
