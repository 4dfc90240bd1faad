package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/happyhackingspace/accessguru/features"
)

// LoadCSV reads a comma separated table with a header row.
func LoadCSV(path string) (*features.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads a comma separated table with a header row from r.
func ReadCSV(r io.Reader) (*features.Corpus, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return fromRows(header, rows)
}
