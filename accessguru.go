// Package accessguru predicts the severity score of accessibility
// violations.
//
// It provides a training pipeline (feature extraction, class balancing and
// gradient-boosted trees) and a Scorer that reloads the trained artifacts.
//
//	s, _ := accessguru.Load("models")
//	p, _ := s.Score(features.ViolationRecord{HTML: `<img src="a.png">`})
//	fmt.Println(p.Score) // 4
//	fmt.Println(p.Proba) // map[2:0.02 3:0.11 4:0.81 5:0.06]
package accessguru

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/happyhackingspace/accessguru/artifact"
	"github.com/happyhackingspace/accessguru/features"
	"github.com/happyhackingspace/accessguru/internal/textutil"
	"github.com/happyhackingspace/accessguru/internal/vectorizer"
	"github.com/happyhackingspace/accessguru/severity"
)

// DefaultModelDir is the bundle directory New searches for.
const DefaultModelDir = "models"

// Scorer wraps a trained model and the metadata needed to featurize records.
type Scorer struct {
	bundle *artifact.Bundle
	schema *vectorizer.Schema
	scores severity.ScoreMap
	enc    features.Encoders
	policy vectorizer.UnseenPolicy
}

// Prediction holds the scored result for a single record.
type Prediction struct {
	Score int             `json:"score"`
	Class int             `json:"class"`
	Proba map[int]float64 `json:"probabilities"`
}

// New loads the DefaultModelDir bundle of the working directory or of the
// nearest parent that has one. The search stops at a directory holding go.mod.
func New() (*Scorer, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	dir, ok := findBundle(wd)
	if !ok {
		return nil, fmt.Errorf("accessguru: no %s bundle in %s or its parents", DefaultModelDir, wd)
	}
	return Load(dir)
}

func findBundle(from string) (string, bool) {
	for dir := from; ; dir = filepath.Dir(dir) {
		bundle := filepath.Join(dir, DefaultModelDir)
		if exists(filepath.Join(bundle, artifact.ModelFile)) {
			return bundle, true
		}
		if exists(filepath.Join(dir, "go.mod")) || filepath.Dir(dir) == dir {
			return "", false
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load loads a trained scorer from a bundle directory.
func Load(dir string) (*Scorer, error) {
	b, err := artifact.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	return newScorer(b)
}

func newScorer(b *artifact.Bundle) (*Scorer, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	schema, err := vectorizer.NewSchema(b.Metadata.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	scores, err := b.Metadata.ScoreMap()
	if err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	enc, err := b.Metadata.Encoders()
	if err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	policy, err := vectorizer.ParseUnseenPolicy(b.Metadata.UnseenPolicy)
	if err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	return &Scorer{bundle: b, schema: schema, scores: scores, enc: enc, policy: policy}, nil
}

// Save writes the scorer's bundle into dir.
func (s *Scorer) Save(dir string) error {
	if s.bundle == nil {
		return fmt.Errorf("accessguru: scorer not initialized")
	}
	if err := artifact.Save(dir, s.bundle); err != nil {
		return fmt.Errorf("accessguru: %w", err)
	}
	return nil
}

// Metadata returns the bundle metadata.
func (s *Scorer) Metadata() artifact.Metadata {
	return s.bundle.Metadata
}

// FeatureNames returns the model's feature order.
func (s *Scorer) FeatureNames() []string {
	return append([]string(nil), s.schema.FeatureNames...)
}

// FeatureVector builds the model input for a record.
func (s *Scorer) FeatureVector(rec features.ViolationRecord) ([]float64, error) {
	return s.vector(features.Extract(rec))
}

func (s *Scorer) vector(ex features.Extracted) ([]float64, error) {
	if err := s.enc.Encode(ex, s.policy); err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	x, err := s.schema.Transform(ex.Row)
	if err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	return x, nil
}

// Score predicts the severity score of a record.
func (s *Scorer) Score(rec features.ViolationRecord) (*Prediction, error) {
	return s.predict(features.Extract(rec))
}

// ScoreAll scores every record. Feature extraction runs on up to workers
// goroutines; zero means one per CPU.
func (s *Scorer) ScoreAll(ctx context.Context, records []features.ViolationRecord, workers int) ([]Prediction, error) {
	rows, err := features.ExtractAll(ctx, records, workers)
	if err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	out := make([]Prediction, len(rows))
	for i, ex := range rows {
		p, err := s.predict(ex)
		if err != nil {
			return nil, fmt.Errorf("accessguru: record %d (%s): %w", i, textutil.Excerpt(records[i].HTML, 40), err)
		}
		out[i] = *p
	}
	return out, nil
}

func (s *Scorer) predict(ex features.Extracted) (*Prediction, error) {
	x, err := s.vector(ex)
	if err != nil {
		return nil, err
	}
	proba, err := s.bundle.Model.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("accessguru: %w", err)
	}
	p := &Prediction{Proba: make(map[int]float64, len(proba))}
	for class, v := range proba {
		score, err := s.scores.Inverse(class)
		if err != nil {
			return nil, fmt.Errorf("accessguru: %w", err)
		}
		p.Proba[score] = v
		if v > proba[p.Class] {
			p.Class = class
		}
	}
	p.Score, _ = s.scores.Inverse(p.Class)
	return p, nil
}
