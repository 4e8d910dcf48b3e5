package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readAll(t *testing.T, path string) ([]string, []RawRow) {
	t.Helper()
	var header []string
	var rows []RawRow
	err := Each(path, func(h []string, row RawRow) error {
		header = h
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		t.Fatalf("Each(%s) error = %v", path, err)
	}
	return header, rows
}

func TestOpenDelimited(t *testing.T) {
	path := writeFile(t, "sdn.csv", "\ufeffsdnType, name ,program,remarks\nIndividual,Jane Doe,SDGT,Test remark\nEntity,Acme Ltd\n")

	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer tbl.Close()

	wantHeader := []string{"sdnType", "name", "program", "remarks"}
	if diff := cmp.Diff(wantHeader, tbl.Header()); diff != "" {
		t.Errorf("Header() mismatch (-want +got):\n%s", diff)
	}

	first, err := tbl.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if first.Line != 2 {
		t.Errorf("Line = %d, want 2", first.Line)
	}
	if diff := cmp.Diff([]string{"Individual", "Jane Doe", "SDGT", "Test remark"}, first.Values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}

	second, err := tbl.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Entity", "Acme Ltd", "", ""}, second.Cells()); diff != "" {
		t.Errorf("Cells() mismatch (-want +got):\n%s", diff)
	}

	if _, err := tbl.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after last row error = %v, want io.EOF", err)
	}
	if err := tbl.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := tbl.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestOpenDelimited_TSV(t *testing.T) {
	path := writeFile(t, "list.tsv", "name\ttype\nJohn Smith\tindividual\n")
	_, rows := readAll(t, path)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if diff := cmp.Diff([]string{"John Smith", "individual"}, rows[0].Values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenDelimited_UnknownExtensionIsText(t *testing.T) {
	path := writeFile(t, "export.dat", "name\nJohn\n")
	_, rows := readAll(t, path)
	if len(rows) != 1 || rows[0].Cells()[0] != "John" {
		t.Errorf("rows = %+v, want one row named John", rows)
	}
}

func TestOpenDelimited_Empty(t *testing.T) {
	path := writeFile(t, "empty.csv", "")
	header, rows := readAll(t, path)
	if len(header) != 0 || len(rows) != 0 {
		t.Errorf("header=%v rows=%v, want both empty", header, rows)
	}
}

func TestOpenDelimited_Malformed(t *testing.T) {
	path := writeFile(t, "bad.csv", "name,type\n\"Jane \"Doe\",individual\n")

	err := Each(path, func([]string, RawRow) error { return nil })
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("Each() error = %v, want *MalformedInputError", err)
	}
	if malformed.Path != path {
		t.Errorf("Path = %q, want %q", malformed.Path, path)
	}
	if malformed.Line != 2 {
		t.Errorf("Line = %d, want 2", malformed.Line)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open() error = %v, want os.ErrNotExist", err)
	}
}

func TestEach_StopsOnCallbackError(t *testing.T) {
	path := writeFile(t, "sdn.csv", "name\nA\nB\nC\n")
	stop := errors.New("stop")

	seen := 0
	err := Each(path, func([]string, RawRow) error {
		seen++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Each() error = %v, want %v", err, stop)
	}
	if seen != 1 {
		t.Errorf("callback calls = %d, want 1", seen)
	}
}

func TestLookup_SpreadsheetWithoutReader(t *testing.T) {
	formatsMu.Lock()
	saved := formats
	formats = map[string]Format{".csv": delimitedFormat}
	formatsMu.Unlock()
	defer func() {
		formatsMu.Lock()
		formats = saved
		formatsMu.Unlock()
	}()

	_, err := Lookup("list.XLSX")
	var dep *DependencyUnavailableError
	if !errors.As(err, &dep) {
		t.Fatalf("Lookup() error = %v, want *DependencyUnavailableError", err)
	}

	f, err := Lookup("list.txt")
	if err != nil || f.Name != "csv" {
		t.Errorf("Lookup(list.txt) = %q, %v; want csv fallback", f.Name, err)
	}
}

func TestRawRow_Cells(t *testing.T) {
	row := RawRow{Columns: []string{"a", "b", "c"}, Values: []string{"1", "2", "3", "4"}}
	if diff := cmp.Diff([]string{"1", "2", "3"}, row.Cells()); diff != "" {
		t.Errorf("Cells() mismatch (-want +got):\n%s", diff)
	}
	short := RawRow{Columns: []string{"a", "b"}, Values: []string{"1"}}
	if diff := cmp.Diff([]string{"1", ""}, short.Cells()); diff != "" {
		t.Errorf("Cells() mismatch (-want +got):\n%s", diff)
	}
}
