// Package dataset loads violation tables from CSV files and SQLite
// databases and splits them for training.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/happyhackingspace/accessguru/features"
)

// DefaultTable is the SQLite table read when none is named.
const DefaultTable = "violations"

// ErrBadScore is returned for a score cell that is not an integer.
var ErrBadScore = errors.New("bad violation score")

// Load reads a corpus from path. Files ending in .db, .sqlite or .sqlite3
// are read as SQLite databases, anything else as CSV.
func Load(ctx context.Context, path, table string) (*features.Corpus, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(ctx, path, table)
	}
	return LoadCSV(path)
}

// fromRows builds a corpus from a header and string cells. Unknown columns
// are ignored and missing cells read as empty strings.
func fromRows(header []string, rows [][]string) (*features.Corpus, error) {
	pos := make(map[string]int, len(header))
	var present []string
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := pos[name]; dup {
			continue
		}
		pos[name] = i
		present = append(present, name)
	}
	cell := func(row []string, col string) string {
		i, ok := pos[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]features.ViolationRecord, len(rows))
	for n, row := range rows {
		rec := features.ViolationRecord{
			HTML:              cell(row, features.ColHTML),
			SupplementaryInfo: cell(row, features.ColSupplementary),
			ViolationName:     cell(row, features.ColViolationName),
			ViolationCategory: cell(row, features.ColViolationCategory),
			WCAGReference:     cell(row, features.ColWCAG),
			DomainCategory:    cell(row, features.ColDomain),
			ViolationImpact:   cell(row, features.ColImpact),
			URL:               cell(row, features.ColURL),
		}
		if _, ok := pos[features.ColScore]; ok {
			score, err := ParseScore(cell(row, features.ColScore))
			if err != nil {
				return nil, fmt.Errorf("dataset: row %d: %w", n, err)
			}
			rec.Score = score
		}
		records[n] = rec
	}
	return features.NewCorpus(records, present...), nil
}

// ParseScore parses an integral score. "4" and "4.0" are both accepted.
func ParseScore(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadScore, s)
	}
	return int(f), nil
}
