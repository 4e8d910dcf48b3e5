package core

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// maxReportedLines caps how many bad line numbers a ValidationError carries.
const maxReportedLines = 10

// ValidationReport is the outcome of a successful ValidateJSONL.
type ValidationReport struct {
	Path  string
	Total int // valid, non-blank lines
}

// ValidationError reports a JSONL file that failed validation.
type ValidationError struct {
	Path     string
	Total    int   // valid lines
	Bad      int   // lines that are not valid JSON
	BadLines []int // first bad line numbers (1-based)
	MinRows  int
}

func (e *ValidationError) Error() string {
	if e.Bad > 0 {
		lines := make([]string, len(e.BadLines))
		for i, n := range e.BadLines {
			lines[i] = fmt.Sprint(n)
		}
		msg := fmt.Sprintf("bad JSON lines: %d", e.Bad)
		if len(lines) > 0 {
			msg += " (lines " + strings.Join(lines, ", ")
			if e.Bad > len(lines) {
				msg += ", ..."
			}
			msg += ")"
		}
		return msg
	}
	return fmt.Sprintf("too few records: %d < %d", e.Total, e.MinRows)
}

// ValidateJSONL checks that every non-blank line of path is valid JSON and
// that there are at least minRows such lines. Blank lines are ignored.
func ValidateJSONL(path string, minRows int) (ValidationReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return ValidationReport{}, fmt.Errorf("validate %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	verr := &ValidationError{Path: path, MinRows: minRows}
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !json.Valid([]byte(text)) {
			verr.Bad++
			if len(verr.BadLines) < maxReportedLines {
				verr.BadLines = append(verr.BadLines, line)
			}
			continue
		}
		verr.Total++
	}
	if err := scanner.Err(); err != nil {
		return ValidationReport{}, fmt.Errorf("validate %s: read line %d: %w", path, line+1, err)
	}

	if verr.Bad > 0 || verr.Total < minRows {
		return ValidationReport{}, verr
	}
	return ValidationReport{Path: path, Total: verr.Total}, nil
}
