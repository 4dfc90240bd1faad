package accessguru

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/happyhackingspace/accessguru/artifact"
	"github.com/happyhackingspace/accessguru/balance"
	"github.com/happyhackingspace/accessguru/features"
	"github.com/happyhackingspace/accessguru/gbt"
	"github.com/happyhackingspace/accessguru/internal/dataset"
	"github.com/happyhackingspace/accessguru/internal/vectorizer"
	"github.com/happyhackingspace/accessguru/severity"
)

// TrainConfig holds configuration for training. Boost.Seed and
// Boost.Workers are replaced by Seed and Workers.
type TrainConfig struct {
	TestSize     float64    `yaml:"test_size"`
	Seed         uint64     `yaml:"seed"`
	Workers      int        `yaml:"workers"`
	KNeighbors   int        `yaml:"k_neighbors"`
	Features     []string   `yaml:"features"`
	UnseenPolicy string     `yaml:"unseen_policy"`
	Boost        gbt.Config `yaml:"boost"`
}

// DefaultTrainConfig returns a 0.2 test split, seed 42, 5 SMOTE neighbours
// and the default booster.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		TestSize:     0.2,
		Seed:         42,
		KNeighbors:   balance.DefaultK,
		Features:     slices.Clone(features.DefaultFeatureNames),
		UnseenPolicy: string(vectorizer.UnseenBucket),
		Boost:        gbt.DefaultConfig(),
	}
}

// Validate checks every setting.
func (c *TrainConfig) Validate() error {
	if !(c.TestSize > 0 && c.TestSize < 1) {
		return fmt.Errorf("accessguru: test size must be in (0, 1), got %v", c.TestSize)
	}
	if c.KNeighbors < 1 {
		return fmt.Errorf("accessguru: k neighbours must be at least 1, got %d", c.KNeighbors)
	}
	if c.Workers < 0 {
		return fmt.Errorf("accessguru: workers must not be negative, got %d", c.Workers)
	}
	if len(c.Features) == 0 {
		return fmt.Errorf("accessguru: no candidate features")
	}
	if _, err := features.Available(c.Features, func(string) bool { return true }); err != nil {
		return fmt.Errorf("accessguru: %w", err)
	}
	if _, err := vectorizer.ParseUnseenPolicy(c.UnseenPolicy); err != nil {
		return fmt.Errorf("accessguru: %w", err)
	}
	if err := c.Boost.Validate(); err != nil {
		return fmt.Errorf("accessguru: %w", err)
	}
	return nil
}

// TrainReport summarizes a training run.
type TrainReport struct {
	RunID        string      `json:"run_id"`
	Features     []string    `json:"features"`
	Records      int         `json:"records"`
	TrainRows    int         `json:"train_rows"`
	TestRows     int         `json:"test_rows"`
	TrainCounts  map[int]int `json:"train_counts"`
	SMOTECounts  map[int]int `json:"smote_counts"`
	TestCounts   map[int]int `json:"test_counts"`
	TestAccuracy float64     `json:"test_accuracy"`
	Test         *Metrics    `json:"test"`
	Duration     string      `json:"duration"`
}

// ErrNoScores is returned when the training corpus has no score column.
var ErrNoScores = errors.New("corpus has no " + features.ColScore + " column")

// Train fits a scorer on a labelled corpus. Records are featurized, the
// categorical vocabularies are fitted on the whole corpus, the rows are
// split stratified by score, the training part is balanced with SMOTE and
// the booster is fitted on it. The held-out part is scored for the report.
func Train(ctx context.Context, corpus *features.Corpus, config *TrainConfig) (*Scorer, *TrainReport, error) {
	cfg := DefaultTrainConfig()
	if config != nil {
		cfg = *config
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if corpus == nil || corpus.Len() == 0 {
		return nil, nil, fmt.Errorf("accessguru: empty corpus")
	}
	if !corpus.HasColumn(features.ColScore) {
		return nil, nil, fmt.Errorf("accessguru: %w", ErrNoScores)
	}
	start := time.Now()
	policy, _ := vectorizer.ParseUnseenPolicy(cfg.UnseenPolicy)

	scores := severity.DefaultScoreMap()
	labels, err := scores.ForwardAll(corpus.Scores())
	if err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}
	numClasses, err := countClasses(labels)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Extracting features", "records", corpus.Len())
	rows, err := features.ExtractAll(ctx, corpus.Records, cfg.Workers)
	if err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}
	enc := features.FitEncoders(rows)
	if err := enc.EncodeAll(rows, policy); err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}

	names, err := features.Available(cfg.Features, corpus.HasColumn)
	if err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("accessguru: none of the candidate features can be built from the corpus columns")
	}
	schema, err := vectorizer.NewSchema(names)
	if err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}
	X, err := schema.TransformAll(features.Maps(rows))
	if err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}
	slog.Debug("Feature matrix", "rows", len(X), "features", names)

	trainIdx, testIdx, err := dataset.StratifiedSplit(labels, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}
	trainX, trainY := take(X, trainIdx), take(labels, trainIdx)
	testX, testY := take(X, testIdx), take(labels, testIdx)

	slog.Info("Applying SMOTE", "rows", len(trainX), "k", cfg.KNeighbors)
	smote := balance.SMOTE{K: cfg.KNeighbors, Seed: cfg.Seed}
	balX, balY, err := smote.Resample(trainX, trainY)
	if err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}

	boost := cfg.Boost
	boost.Seed = cfg.Seed
	boost.Workers = cfg.Workers
	slog.Info("Training model", "rows", len(balX), "features", len(names), "classes", numClasses, "rounds", boost.Rounds)
	model, err := gbt.Train(ctx, balX, balY, numClasses, boost)
	if err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}

	bundle := &artifact.Bundle{
		Metadata: artifact.Metadata{
			FeatureNames:     names,
			ScoreMapping:     scores.Mapping(),
			ReverseMapping:   scores.Reverse(),
			ViolationClasses: enc.Violation.Classes(),
			TagClasses:       enc.Tag.Classes(),
			DomainClasses:    enc.Domain.Classes(),
			UnseenPolicy:     string(policy),
			RunID:            uuid.NewString(),
			CreatedAt:        time.Now().UTC(),
		},
		Model: model,
	}
	scorer, err := newScorer(bundle)
	if err != nil {
		return nil, nil, err
	}

	pred, err := model.PredictAll(testX)
	if err != nil {
		return nil, nil, fmt.Errorf("accessguru: %w", err)
	}
	metrics, err := scorer.metrics(testY, pred)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Test accuracy", "accuracy", fmt.Sprintf("%.4f", metrics.Accuracy), "test_rows", len(testIdx))

	report := &TrainReport{
		RunID:        bundle.Metadata.RunID,
		Features:     names,
		Records:      corpus.Len(),
		TrainRows:    len(balX),
		TestRows:     len(testIdx),
		TrainCounts:  balance.Counts(trainY),
		SMOTECounts:  balance.Counts(balY),
		TestCounts:   balance.Counts(testY),
		TestAccuracy: metrics.Accuracy,
		Test:         metrics,
		Duration:     time.Since(start).Round(time.Millisecond).String(),
	}
	return scorer, report, nil
}

// countClasses returns the number of distinct labels and checks that they
// are exactly 0..n-1, so every class index can be mapped back to a score.
func countClasses(labels []int) (int, error) {
	seen := make(map[int]bool)
	top := 0
	for _, label := range labels {
		seen[label] = true
		top = max(top, label)
	}
	if top >= len(seen) {
		return 0, fmt.Errorf("accessguru: scores do not cover a contiguous class range: %d classes, highest index %d", len(seen), top)
	}
	if len(seen) < 2 {
		return 0, fmt.Errorf("accessguru: need at least 2 distinct scores, got %d", len(seen))
	}
	return len(seen), nil
}

func take[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
