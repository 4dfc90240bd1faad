package gbt

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
)

// Model is a trained multi-class booster. Trees[r][k] is the tree added to
// the margin of class k in round r.
type Model struct {
	NumClasses  int      `json:"num_classes"`
	NumFeatures int      `json:"num_features"`
	Trees       [][]Tree `json:"trees"`
}

// Margins returns the raw per-class scores of x.
func (m *Model) Margins(x []float64) ([]float64, error) {
	if len(x) != m.NumFeatures {
		return nil, fmt.Errorf("gbt: got %d features, model expects %d", len(x), m.NumFeatures)
	}
	margins := make([]float64, m.NumClasses)
	for _, round := range m.Trees {
		for k := range round {
			margins[k] += round[k].Predict(x)
		}
	}
	return margins, nil
}

// PredictProba returns the class probability distribution of x.
func (m *Model) PredictProba(x []float64) ([]float64, error) {
	margins, err := m.Margins(x)
	if err != nil {
		return nil, err
	}
	return softmax(margins), nil
}

// Predict returns the most probable class of x. Ties go to the lower class.
func (m *Model) Predict(x []float64) (int, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(proba), nil
}

// PredictAll predicts every row of X.
func (m *Model) PredictAll(X [][]float64) ([]int, error) {
	out := make([]int, len(X))
	for i, x := range X {
		c, err := m.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// Validate checks the model's shape and tree structure.
func (m *Model) Validate() error {
	if m.NumClasses < 2 || m.NumFeatures < 1 {
		return fmt.Errorf("gbt: bad model shape: %d classes, %d features", m.NumClasses, m.NumFeatures)
	}
	for r, round := range m.Trees {
		if len(round) != m.NumClasses {
			return fmt.Errorf("gbt: round %d has %d trees, want %d", r, len(round), m.NumClasses)
		}
		for k := range round {
			if err := round[k].validate(m.NumFeatures); err != nil {
				return fmt.Errorf("gbt: round %d class %d: %w", r, k, err)
			}
		}
	}
	return nil
}

func softmax(margins []float64) []float64 {
	lse := floats.LogSumExp(margins)
	p := make([]float64, len(margins))
	for k, v := range margins {
		p[k] = math.Exp(v - lse)
	}
	return p
}

// LogLoss returns the mean negative log-likelihood of the true classes.
func LogLoss(proba [][]float64, y []int) float64 {
	const eps = 1e-15
	var sum float64
	for i, p := range proba {
		sum -= math.Log(max(p[y[i]], eps))
	}
	return sum / float64(len(proba))
}

// SaveModel serializes the model to JSON.
func SaveModel(model *Model, path string) error {
	data, err := MarshalModel(model)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadModel deserializes and validates a model from JSON.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalModel(data)
}

// MarshalModel serializes the model to JSON bytes.
func MarshalModel(model *Model) ([]byte, error) {
	return json.Marshal(model)
}

// UnmarshalModel deserializes and validates a model from JSON bytes.
func UnmarshalModel(data []byte) (*Model, error) {
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("gbt: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &model, nil
}
