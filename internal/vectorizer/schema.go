package vectorizer

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingFeature is returned when a row lacks a column of the schema.
var ErrMissingFeature = errors.New("missing feature")

// Schema converts named feature rows into dense vectors with a fixed,
// persisted column order.
type Schema struct {
	FeatureNames []string       `json:"feature_names"`
	FeatureIndex map[string]int `json:"-"`
}

// NewSchema creates a schema with the given column order.
func NewSchema(names []string) (*Schema, error) {
	if len(names) == 0 {
		return nil, errors.New("schema has no features")
	}
	s := &Schema{
		FeatureNames: make([]string, len(names)),
		FeatureIndex: make(map[string]int, len(names)),
	}
	copy(s.FeatureNames, names)
	for i, name := range names {
		if _, dup := s.FeatureIndex[name]; dup {
			return nil, fmt.Errorf("duplicate feature %q", name)
		}
		s.FeatureIndex[name] = i
	}
	return s, nil
}

// Dim returns the number of columns.
func (s *Schema) Dim() int {
	return len(s.FeatureNames)
}

// Transform returns the schema columns of row in order. Unknown (NaN)
// values become 0. Columns of row outside the schema are ignored; a schema
// column absent from row is an error.
func (s *Schema) Transform(row map[string]float64) ([]float64, error) {
	vec := make([]float64, len(s.FeatureNames))
	for i, name := range s.FeatureNames {
		v, ok := row[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingFeature, name)
		}
		if math.IsNaN(v) {
			v = 0
		}
		vec[i] = v
	}
	return vec, nil
}

// TransformAll transforms every row.
func (s *Schema) TransformAll(rows []map[string]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		vec, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

