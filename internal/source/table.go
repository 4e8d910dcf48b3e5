// Package source reads tabular sanctions-list files as a sequence of raw rows.
//
// A [Table] hides the file format: delimited text and spreadsheet workbooks
// both surface as a header plus [RawRow] values read one at a time. Formats
// are registered by file extension (see [Register]); any extension without a
// registration is read as comma-separated text.
//
// Tables are not restartable. Open the path again to re-read it, and always
// Close the table, including when iteration stops early.
package source

import (
	"errors"
	"io"
	"strings"
)

// RawRow is a single data row keyed by the source's own column labels.
type RawRow struct {
	// Line is the 1-based row number in the source file (the header is line 1).
	Line    int
	Columns []string
	Values  []string
}

// Cells returns the row's values padded or cut to the header width.
func (r RawRow) Cells() []string {
	out := make([]string, len(r.Columns))
	for i := range r.Columns {
		out[i] = r.cell(i)
	}
	return out
}

func (r RawRow) cell(i int) string {
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// Table is an open, forward-only reader over a tabular file.
type Table interface {
	// Header returns the column labels from the first row.
	Header() []string
	// Next returns the next data row, or io.EOF once the table is exhausted.
	Next() (RawRow, error)
	// Close releases the underlying file. It is safe to call more than once.
	Close() error
}

// Open opens path with the reader registered for its extension.
func Open(path string) (Table, error) {
	format, err := Lookup(path)
	if err != nil {
		return nil, err
	}
	return format.Open(path)
}

// Each opens path and calls fn for every data row in order. The table is
// closed before Each returns, whether iteration finished, fn failed or the
// reader failed.
func Each(path string, fn func(header []string, row RawRow) error) (err error) {
	t, err := Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := t.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	header := t.Header()
	for {
		row, err := t.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(header, row); err != nil {
			return err
		}
	}
}

// cleanHeader trims labels and drops a UTF-8 BOM left on the first one.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}
