//go:build !noxlsx

package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

func init() {
	Register(Format{
		Name:       "xlsx",
		Extensions: spreadsheetExtensions,
		Open:       OpenSpreadsheet,
	})
}

type spreadsheetTable struct {
	path   string
	book   *excelize.File
	rows   *excelize.Rows
	header []string
	line   int
	closed bool
}

// OpenSpreadsheet opens the first sheet of a workbook. The first row is the
// header; every cell is read as its formatted string value.
func OpenSpreadsheet(path string) (Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Err: err}
	}

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		book.Close()
		return nil, &MalformedInputError{Path: path, Err: errors.New("workbook has no sheets")}
	}

	rows, err := book.Rows(sheets[0])
	if err != nil {
		book.Close()
		return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("sheet %q: %w", sheets[0], err)}
	}

	t := &spreadsheetTable{path: path, book: book, rows: rows}
	if rows.Next() {
		header, err := rows.Columns()
		if err != nil {
			t.Close()
			return nil, &MalformedInputError{Path: path, Line: 1, Err: err}
		}
		t.header = cleanHeader(header)
		t.line = 1
	} else if err := rows.Error(); err != nil {
		t.Close()
		return nil, &MalformedInputError{Path: path, Line: 1, Err: err}
	}
	return t, nil
}

func (t *spreadsheetTable) Header() []string {
	return t.header
}

func (t *spreadsheetTable) Next() (RawRow, error) {
	if t.closed || t.header == nil {
		return RawRow{}, io.EOF
	}
	if !t.rows.Next() {
		if err := t.rows.Error(); err != nil {
			return RawRow{}, &MalformedInputError{Path: t.path, Line: t.line + 1, Err: err}
		}
		return RawRow{}, io.EOF
	}
	t.line++
	cells, err := t.rows.Columns()
	if err != nil {
		return RawRow{}, &MalformedInputError{Path: t.path, Line: t.line, Err: err}
	}
	return RawRow{Line: t.line, Columns: t.header, Values: cells}, nil
}

func (t *spreadsheetTable) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	var errs []error
	if t.rows != nil {
		errs = append(errs, t.rows.Close())
	}
	errs = append(errs, t.book.Close())
	return errors.Join(errs...)
}
