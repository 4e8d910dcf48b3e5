package core

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/JonMunkholm/sanctions/internal/fileutil"
	"github.com/JonMunkholm/sanctions/internal/source"
)

// Columns appended to every screened row.
const (
	MatchNameColumn   = "match_name"
	MatchSchemaColumn = "match_schema"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 16 * 1024 * 1024

// Index is a read-only, file-ordered view over an entity list for name
// screening. It is safe for concurrent readers once built.
type Index struct {
	entries []indexEntry
}

type indexEntry struct {
	key    string
	entity Entity
}

// MatchKey canonicalises a name for containment matching: trimmed,
// NFC-composed and lower-cased.
func MatchKey(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// NewIndex builds an Index over entities, keeping their order.
func NewIndex(entities []Entity) *Index {
	ix := &Index{entries: make([]indexEntry, 0, len(entities))}
	for _, e := range entities {
		ix.entries = append(ix.entries, indexEntry{key: MatchKey(e.Name), entity: e})
	}
	return ix
}

// Len returns the number of indexed entities.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Match returns the first entity, in file order, whose name contains query
// (case-insensitive). A blank query never matches.
func (ix *Index) Match(query string) (Entity, bool) {
	q := MatchKey(query)
	if q == "" {
		return Entity{}, false
	}
	for _, entry := range ix.entries {
		if entry.key != "" && strings.Contains(entry.key, q) {
			return entry.entity, true
		}
	}
	return Entity{}, false
}

// entityLine decodes either output shape.
type entityLine struct {
	ID         string           `json:"id"`
	Schema     Schema           `json:"schema"`
	Name       string           `json:"name"`
	Notes      string           `json:"notes"`
	Properties *GraphProperties `json:"properties"`
}

func (l entityLine) entity() Entity {
	if l.Properties != nil && l.Name == "" {
		return GraphEntity{ID: l.ID, Schema: l.Schema, Properties: *l.Properties}.Flat()
	}
	return Entity{ID: l.ID, Schema: l.Schema, Name: l.Name, Notes: l.Notes}
}

// LoadIndex reads an entity JSONL file written in either shape. Blank lines
// are skipped; a line that is not a JSON object fails the load.
func LoadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open entities %s: %w", path, err)
	}
	defer f.Close()

	entities, err := readEntities(path, f)
	if err != nil {
		return nil, err
	}
	return NewIndex(entities), nil
}

func readEntities(path string, r io.Reader) ([]Entity, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var entities []Entity
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var l entityLine
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			return nil, &source.MalformedInputError{Path: path, Line: line, Err: err}
		}
		entities = append(entities, l.entity())
	}
	if err := scanner.Err(); err != nil {
		return nil, &source.MalformedInputError{Path: path, Line: line + 1, Err: err}
	}
	return entities, nil
}

// ScreenOptions configures a Screen run.
type ScreenOptions struct {
	Input    string // query rows, CSV or spreadsheet
	Entities string // entity JSONL; ignored when Index is set
	Output   string // annotated CSV
	Index    *Index
	Logger   *slog.Logger
}

// ScreenResult summarizes a Screen run.
type ScreenResult struct {
	Rows     int
	Matched  int
	Duration time.Duration
}

// Screen matches the "name" column of every input row against the entity
// index and writes the input rows, in order, with match_name and
// match_schema appended. Matched counts rows that found an entity.
//
// A row with more cells than the header is a MalformedInputError: the extra
// cells have no column to be written under. Short rows are padded.
func Screen(opts ScreenOptions) (ScreenResult, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("op", "screen", "input", opts.Input, "output", opts.Output)

	ix := opts.Index
	if ix == nil {
		loaded, err := LoadIndex(opts.Entities)
		if err != nil {
			return ScreenResult{}, fmt.Errorf("screen %s: %w", opts.Input, err)
		}
		ix = loaded
		logger.Debug("entities loaded", "entities", opts.Entities, "count", ix.Len())
	}

	var result ScreenResult
	err := fileutil.WriteAtomic(opts.Output, func(w io.Writer) error {
		return screenRows(opts.Input, ix, csv.NewWriter(w), &result)
	})
	result.Duration = time.Since(start)
	if err != nil {
		logger.Error("screen failed", "rows", result.Rows, "error", err)
		return result, fmt.Errorf("screen %s: %w", opts.Input, err)
	}

	logger.Info("screen complete",
		"rows", result.Rows,
		"matched", result.Matched,
		"entities", ix.Len(),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func screenRows(input string, ix *Index, out *csv.Writer, result *ScreenResult) error {
	tbl, err := source.Open(input)
	if err != nil {
		return err
	}
	defer tbl.Close()

	header := tbl.Header()
	nameCol := -1
	for i, label := range header {
		if ColumnKey(label) == "name" {
			nameCol = i
			break
		}
	}

	outHeader := append(append([]string{}, header...), MatchNameColumn, MatchSchemaColumn)
	if err := out.Write(outHeader); err != nil {
		return err
	}

	for {
		row, err := tbl.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if len(row.Values) > len(header) {
			return &source.MalformedInputError{
				Path: input,
				Line: row.Line,
				Err:  fmt.Errorf("%d fields, header has %d", len(row.Values), len(header)),
			}
		}
		result.Rows++

		var query string
		if nameCol >= 0 && nameCol < len(row.Values) {
			query = row.Values[nameCol]
		}

		record := row.Cells()
		if hit, ok := ix.Match(query); ok {
			result.Matched++
			record = append(record, hit.Name, string(hit.Schema))
		} else {
			record = append(record, "", "")
		}
		if err := out.Write(record); err != nil {
			return err
		}
	}

	out.Flush()
	return out.Error()
}
