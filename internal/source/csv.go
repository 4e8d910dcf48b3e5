package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// delimitedFormat is also the fallback for unregistered extensions.
var delimitedFormat = Format{
	Name:       "csv",
	Extensions: []string{".csv", ".tsv"},
	Open:       OpenDelimited,
}

func init() {
	Register(delimitedFormat)
}

type delimitedTable struct {
	path   string
	file   *os.File
	reader *csv.Reader
	header []string
	line   int
	closed bool
}

// OpenDelimited opens path as delimited text with a header row.
// Tab is the separator for .tsv files, comma otherwise.
func OpenDelimited(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r := csv.NewReader(wrapForParsing(f))
	r.FieldsPerRecord = -1
	r.ReuseRecord = false
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		r.Comma = '\t'
	}

	t := &delimitedTable{path: path, file: f, reader: r}

	header, err := r.Read()
	switch {
	case errors.Is(err, io.EOF):
		// Empty file: no header, no rows.
	case err != nil:
		f.Close()
		return nil, t.malformed(err)
	default:
		t.header = cleanHeader(header)
		t.line = 1
	}
	return t, nil
}

func (t *delimitedTable) Header() []string {
	return t.header
}

func (t *delimitedTable) Next() (RawRow, error) {
	if t.closed || t.header == nil {
		return RawRow{}, io.EOF
	}
	record, err := t.reader.Read()
	if errors.Is(err, io.EOF) {
		return RawRow{}, io.EOF
	}
	if err != nil {
		return RawRow{}, t.malformed(err)
	}
	line, _ := t.reader.FieldPos(0)
	t.line = line
	return RawRow{Line: line, Columns: t.header, Values: record}, nil
}

func (t *delimitedTable) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.file.Close()
}

func (t *delimitedTable) malformed(err error) error {
	line := t.line + 1
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		line = perr.Line
	}
	return &MalformedInputError{Path: t.path, Line: line, Err: err}
}
