// Package artifact persists a trained model together with everything needed
// to rebuild its feature vectors.
//
// A bundle directory holds three files:
//
//	gbt_model.json        the booster
//	model_artifacts.gob   the metadata, read back by Load
//	model_artifacts.json  the same metadata for inspection
package artifact

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/happyhackingspace/accessguru/features"
	"github.com/happyhackingspace/accessguru/gbt"
	"github.com/happyhackingspace/accessguru/internal/vectorizer"
	"github.com/happyhackingspace/accessguru/severity"
)

// File names inside a bundle directory.
const (
	ModelFile        = "gbt_model.json"
	MetadataFile     = "model_artifacts.gob"
	MetadataJSONFile = "model_artifacts.json"
)

// ErrInvalid is returned when a bundle is internally inconsistent.
var ErrInvalid = errors.New("invalid artifact bundle")

// Metadata describes how feature vectors and classes were built at training time.
type Metadata struct {
	FeatureNames     []string    `json:"feature_names"`
	ScoreMapping     map[int]int `json:"score_mapping"`
	ReverseMapping   map[int]int `json:"reverse_mapping"`
	ViolationClasses []string    `json:"le_violation_classes"`
	TagClasses       []string    `json:"le_tag_classes"`
	DomainClasses    []string    `json:"le_domain_classes"`
	UnseenPolicy     string      `json:"unseen_policy"`
	RunID            string      `json:"run_id"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Bundle is a model with its metadata.
type Bundle struct {
	Metadata Metadata
	Model    *gbt.Model
}

// Validate checks that the metadata agrees with itself and with the model.
func (b *Bundle) Validate() error {
	if b.Model == nil {
		return fmt.Errorf("artifact: %w: no model", ErrInvalid)
	}
	if err := b.Model.Validate(); err != nil {
		return fmt.Errorf("artifact: %w: %w", ErrInvalid, err)
	}
	md := b.Metadata
	if _, err := vectorizer.NewSchema(md.FeatureNames); err != nil {
		return fmt.Errorf("artifact: %w: %w", ErrInvalid, err)
	}
	if len(md.FeatureNames) != b.Model.NumFeatures {
		return fmt.Errorf("artifact: %w: %d feature names for a %d feature model",
			ErrInvalid, len(md.FeatureNames), b.Model.NumFeatures)
	}
	sm, err := md.ScoreMap()
	if err != nil {
		return err
	}
	if b.Model.NumClasses > sm.Len() {
		return fmt.Errorf("artifact: %w: %d scores for a %d class model", ErrInvalid, sm.Len(), b.Model.NumClasses)
	}
	if _, err := md.Encoders(); err != nil {
		return err
	}
	if _, err := vectorizer.ParseUnseenPolicy(md.UnseenPolicy); err != nil {
		return fmt.Errorf("artifact: %w: %w", ErrInvalid, err)
	}
	return nil
}

// ScoreMap rebuilds the score mapping and checks it against the stored reverse.
func (md Metadata) ScoreMap() (severity.ScoreMap, error) {
	sm, err := severity.NewScoreMap(md.ScoreMapping)
	if err != nil {
		return severity.ScoreMap{}, fmt.Errorf("artifact: %w: %w", ErrInvalid, err)
	}
	if !maps.Equal(sm.Reverse(), md.ReverseMapping) {
		return severity.ScoreMap{}, fmt.Errorf("artifact: %w: reverse mapping does not invert score mapping", ErrInvalid)
	}
	return sm, nil
}

// Encoders restores the categorical vocabularies.
func (md Metadata) Encoders() (features.Encoders, error) {
	var enc features.Encoders
	var err error
	for _, field := range []struct {
		name    string
		classes []string
		dst     *vectorizer.Vocabulary
	}{
		{"violation", md.ViolationClasses, &enc.Violation},
		{"tag", md.TagClasses, &enc.Tag},
		{"domain", md.DomainClasses, &enc.Domain},
	} {
		if *field.dst, err = vectorizer.NewVocabulary(field.classes); err != nil {
			return features.Encoders{}, fmt.Errorf("artifact: %w: %s classes: %w", ErrInvalid, field.name, err)
		}
	}
	return enc, nil
}

// Save validates the bundle and writes it into dir, creating dir if needed.
func Save(dir string, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if err := gbt.SaveModel(b.Model, filepath.Join(dir, ModelFile)); err != nil {
		return fmt.Errorf("artifact: save model: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b.Metadata); err != nil {
		return fmt.Errorf("artifact: encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}

	data, err := json.MarshalIndent(b.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataJSONFile), data, 0644); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	return nil
}

// Load reads and validates the bundle in dir.
func Load(dir string) (*Bundle, error) {
	model, err := gbt.LoadModel(filepath.Join(dir, ModelFile))
	if err != nil {
		return nil, fmt.Errorf("artifact: load model: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	var md Metadata
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&md); err != nil {
		return nil, fmt.Errorf("artifact: decode metadata: %w", err)
	}
	b := &Bundle{Metadata: md, Model: model}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
