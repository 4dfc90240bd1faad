// Package gbt implements multi-class gradient-boosted decision trees with a
// softmax objective and histogram split finding.
package gbt

import (
	"errors"
	"fmt"
	"math"
)

// ErrInput is returned for training data the booster cannot fit.
var ErrInput = errors.New("invalid training data")

// Config holds boosting hyperparameters.
type Config struct {
	Rounds         int     `yaml:"rounds" json:"rounds"`
	LearningRate   float64 `yaml:"learning_rate" json:"learning_rate"`
	MaxDepth       int     `yaml:"max_depth" json:"max_depth"`
	MaxBins        int     `yaml:"max_bins" json:"max_bins"`
	Lambda         float64 `yaml:"lambda" json:"lambda"`                     // L2 penalty on leaf values
	Gamma          float64 `yaml:"gamma" json:"gamma"`                       // minimum split gain
	MinChildWeight float64 `yaml:"min_child_weight" json:"min_child_weight"` // minimum hessian sum per child
	Subsample      float64 `yaml:"subsample" json:"subsample"`
	Seed           uint64  `yaml:"seed" json:"seed"`
	Workers        int     `yaml:"workers" json:"workers"`
}

// DefaultConfig returns 150 rounds of depth-6 trees at learning rate 0.1.
func DefaultConfig() Config {
	return Config{
		Rounds:         150,
		LearningRate:   0.1,
		MaxDepth:       6,
		MaxBins:        256,
		Lambda:         1,
		MinChildWeight: 1,
		Subsample:      1,
		Seed:           42,
	}
}

// Validate checks that every hyperparameter is in range.
func (c Config) Validate() error {
	switch {
	case c.Rounds <= 0:
		return fmt.Errorf("gbt: rounds must be positive, got %d", c.Rounds)
	case !(c.LearningRate > 0):
		return fmt.Errorf("gbt: learning rate must be positive, got %v", c.LearningRate)
	case c.MaxDepth <= 0:
		return fmt.Errorf("gbt: max depth must be positive, got %d", c.MaxDepth)
	case c.MaxBins < 2 || c.MaxBins > math.MaxUint16:
		return fmt.Errorf("gbt: max bins must be in [2, %d], got %d", math.MaxUint16, c.MaxBins)
	case c.Lambda < 0 || c.Gamma < 0 || c.MinChildWeight < 0:
		return fmt.Errorf("gbt: lambda, gamma and min child weight must not be negative")
	case !(c.Subsample > 0 && c.Subsample <= 1):
		return fmt.Errorf("gbt: subsample must be in (0, 1], got %v", c.Subsample)
	}
	return nil
}
