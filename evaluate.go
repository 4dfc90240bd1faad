package accessguru

import (
	"context"
	"fmt"
	"slices"

	"github.com/happyhackingspace/accessguru/features"
	"github.com/happyhackingspace/accessguru/severity"
)

// Metrics holds classification quality on the original score scale.
// Confusion[i][j] counts rows with true score Scores[i] predicted as Scores[j].
type Metrics struct {
	Scores    []int     `json:"scores"`
	Correct   int       `json:"correct"`
	Total     int       `json:"total"`
	Accuracy  float64   `json:"accuracy"`
	Confusion [][]int   `json:"confusion"`
	Precision []float64 `json:"precision"`
	Recall    []float64 `json:"recall"`
	F1        []float64 `json:"f1"`
	Support   []int     `json:"support"`
	MacroF1   float64   `json:"macro_f1"`
}

// NewMetrics compares true and predicted scores. Every score must be one
// of scores. Macro F1 averages over the scores that occur in either list.
func NewMetrics(truth, pred, scores []int) (*Metrics, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("accessguru: %d true scores, %d predictions", len(truth), len(pred))
	}
	scores = slices.Clone(scores)
	slices.Sort(scores)
	pos := make(map[int]int, len(scores))
	for i, s := range scores {
		pos[s] = i
	}
	n := len(scores)
	m := &Metrics{
		Scores:    scores,
		Total:     len(truth),
		Confusion: make([][]int, n),
		Precision: make([]float64, n),
		Recall:    make([]float64, n),
		F1:        make([]float64, n),
		Support:   make([]int, n),
	}
	for i := range m.Confusion {
		m.Confusion[i] = make([]int, n)
	}
	for i := range truth {
		t, ok := pos[truth[i]]
		if !ok {
			return nil, fmt.Errorf("accessguru: %w: true score %d", severity.ErrUnknownScore, truth[i])
		}
		p, ok := pos[pred[i]]
		if !ok {
			return nil, fmt.Errorf("accessguru: %w: predicted score %d", severity.ErrUnknownScore, pred[i])
		}
		m.Confusion[t][p]++
		if t == p {
			m.Correct++
		}
	}
	if m.Total > 0 {
		m.Accuracy = float64(m.Correct) / float64(m.Total)
	}

	present := 0
	for i := range n {
		tp := m.Confusion[i][i]
		predicted := 0
		for j := range n {
			m.Support[i] += m.Confusion[i][j]
			predicted += m.Confusion[j][i]
		}
		if predicted > 0 {
			m.Precision[i] = float64(tp) / float64(predicted)
		}
		if m.Support[i] > 0 {
			m.Recall[i] = float64(tp) / float64(m.Support[i])
		}
		if p, r := m.Precision[i], m.Recall[i]; p+r > 0 {
			m.F1[i] = 2 * p * r / (p + r)
		}
		if m.Support[i] > 0 || predicted > 0 {
			present++
			m.MacroF1 += m.F1[i]
		}
	}
	if present > 0 {
		m.MacroF1 /= float64(present)
	}
	return m, nil
}

// metrics maps class indices back to scores before comparing them.
func (s *Scorer) metrics(truthClasses, predClasses []int) (*Metrics, error) {
	truth := make([]int, len(truthClasses))
	pred := make([]int, len(predClasses))
	for i, c := range truthClasses {
		score, err := s.scores.Inverse(c)
		if err != nil {
			return nil, fmt.Errorf("accessguru: %w", err)
		}
		truth[i] = score
	}
	for i, c := range predClasses {
		score, err := s.scores.Inverse(c)
		if err != nil {
			return nil, fmt.Errorf("accessguru: %w", err)
		}
		pred[i] = score
	}
	return NewMetrics(truth, pred, s.scores.Scores())
}

// Evaluate scores a labelled corpus with a trained scorer.
func Evaluate(ctx context.Context, s *Scorer, corpus *features.Corpus, workers int) (*Metrics, error) {
	if !corpus.HasColumn(features.ColScore) {
		return nil, fmt.Errorf("accessguru: %w", ErrNoScores)
	}
	preds, err := s.ScoreAll(ctx, corpus.Records, workers)
	if err != nil {
		return nil, err
	}
	pred := make([]int, len(preds))
	for i, p := range preds {
		pred[i] = p.Score
	}
	return NewMetrics(corpus.Scores(), pred, s.scores.Scores())
}
