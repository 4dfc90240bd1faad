// Package severity maps violation scores to dense class indices and back.
package severity

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScore is returned for a score or class index outside the map.
var ErrUnknownScore = errors.New("unknown score")

// ScoreMap is a bijection between violation scores and the class indices
// 0..n-1 used by the model.
type ScoreMap struct {
	forward map[int]int
	reverse map[int]int
}

// DefaultScoreMap returns the map for the dataset's score range {2,3,4,5}.
func DefaultScoreMap() ScoreMap {
	m, _ := NewScoreMap(map[int]int{2: 0, 3: 1, 4: 2, 5: 3})
	return m
}

// NewScoreMap builds a ScoreMap from its forward mapping. The values must
// be exactly 0..len(forward)-1.
func NewScoreMap(forward map[int]int) (ScoreMap, error) {
	if len(forward) == 0 {
		return ScoreMap{}, errors.New("empty score mapping")
	}
	m := ScoreMap{
		forward: make(map[int]int, len(forward)),
		reverse: make(map[int]int, len(forward)),
	}
	for score, class := range forward {
		if class < 0 || class >= len(forward) {
			return ScoreMap{}, fmt.Errorf("score %d maps to class %d outside 0..%d", score, class, len(forward)-1)
		}
		if prev, dup := m.reverse[class]; dup {
			return ScoreMap{}, fmt.Errorf("scores %d and %d both map to class %d", prev, score, class)
		}
		m.forward[score] = class
		m.reverse[class] = score
	}
	return m, nil
}

// Forward returns the class index for a score.
func (m ScoreMap) Forward(score int) (int, error) {
	class, ok := m.forward[score]
	if !ok {
		return 0, fmt.Errorf("%w: %d (want one of %v)", ErrUnknownScore, score, m.Scores())
	}
	return class, nil
}

// Inverse returns the score for a class index.
func (m ScoreMap) Inverse(class int) (int, error) {
	score, ok := m.reverse[class]
	if !ok {
		return 0, fmt.Errorf("%w: class %d", ErrUnknownScore, class)
	}
	return score, nil
}

// ForwardAll maps every score, failing on the first one outside the map.
func (m ScoreMap) ForwardAll(scores []int) ([]int, error) {
	classes := make([]int, len(scores))
	for i, s := range scores {
		c, err := m.Forward(s)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		classes[i] = c
	}
	return classes, nil
}

// Len returns the number of classes.
func (m ScoreMap) Len() int {
	return len(m.forward)
}

// Scores returns the mapped scores in ascending order.
func (m ScoreMap) Scores() []int {
	scores := make([]int, 0, len(m.forward))
	for s := range m.forward {
		scores = append(scores, s)
	}
	sort.Ints(scores)
	return scores
}

// Mapping returns a copy of the score to class mapping.
func (m ScoreMap) Mapping() map[int]int {
	return copyMap(m.forward)
}

// Reverse returns a copy of the class to score mapping.
func (m ScoreMap) Reverse() map[int]int {
	return copyMap(m.reverse)
}

func copyMap(src map[int]int) map[int]int {
	dst := make(map[int]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
