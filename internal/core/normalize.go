package core

// normalize.go maps the inconsistent column layouts of published sanctions
// lists onto four canonical fields.
//
// Every regulator names its columns differently ("sdnType", "Type",
// "Name of Individual or Entity", "Listing Information"...). Column labels are
// reduced to a key with ColumnKey, then each canonical field takes the value
// of the first alias, in priority order, that has a non-blank cell.

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/sanctions/internal/source"
)

// NormalizedRow holds the canonical fields resolved from one raw row.
type NormalizedRow struct {
	Name    string
	SDNType string
	Program string
	Remarks string
}

// Alias lists, highest priority first. Entries are written in ColumnKey form.
var (
	NameAliases = []string{
		"name", "listed_name", "entity_name", "full_name", "individual_name",
		"name_of_individual_or_entity",
	}
	SDNTypeAliases = []string{
		"sdntype", "type", "entity_type", "individual",
	}
	ProgramAliases = []string{
		"program", "regime", "listing_program", "sanctions_regime", "committees",
	}
	RemarksAliases = []string{
		"remarks", "comments", "reason", "additional_information",
		"listing_information",
	}
)

// separatorRun matches the spacing that varies between exports of the same
// column: "Listing Information", "listing_information", "Listing-Information".
var separatorRun = regexp.MustCompile(`[\s_\-]+`)

// ColumnKey reduces a column label to its lookup key: cell artifacts removed,
// trimmed, lower-cased, and each run of spaces, underscores or hyphens
// collapsed to a single underscore.
func ColumnKey(label string) string {
	key := strings.ToLower(CleanCell(label))
	key = separatorRun.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// CleanCell removes common spreadsheet-export artifacts from a cell:
// surrounding whitespace, a UTF-8 BOM, the Excel text-formula wrapper
// (="...") and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// KeyedRow is a raw row indexed by ColumnKey. When two labels reduce to the
// same key, lookups see the first non-blank value among them.
type KeyedRow map[string]string

// KeyRow builds the ColumnKey index for a raw row.
func KeyRow(row source.RawRow) KeyedRow {
	keyed := make(KeyedRow, len(row.Columns))
	for i, col := range row.Columns {
		key := ColumnKey(col)
		if key == "" {
			continue
		}
		if existing, ok := keyed[key]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		var v string
		if i < len(row.Values) {
			v = row.Values[i]
		}
		keyed[key] = v
	}
	return keyed
}

// First returns the trimmed value of the first alias with a non-blank cell.
func (k KeyedRow) First(aliases []string) string {
	for _, alias := range aliases {
		if v := strings.TrimSpace(k[alias]); v != "" {
			return v
		}
	}
	return ""
}

// Normalize resolves the canonical fields of a raw row. Fields without a
// populated alias are "".
func Normalize(row source.RawRow) NormalizedRow {
	keyed := KeyRow(row)
	return NormalizedRow{
		Name:    keyed.First(NameAliases),
		SDNType: keyed.First(SDNTypeAliases),
		Program: keyed.First(ProgramAliases),
		Remarks: keyed.First(RemarksAliases),
	}
}
