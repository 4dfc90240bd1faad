// Package vectorizer turns extracted feature rows into dense model inputs.
package vectorizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownCategory is returned when a value absent from a fitted
// vocabulary is looked up under the UnseenError policy.
var ErrUnknownCategory = errors.New("unknown category")

// UnseenPolicy decides what a lookup of an unseen value returns.
type UnseenPolicy string

const (
	// UnseenBucket maps every unseen value to the reserved id Len().
	UnseenBucket UnseenPolicy = "bucket"
	// UnseenError fails the lookup with ErrUnknownCategory.
	UnseenError UnseenPolicy = "error"
)

// ParseUnseenPolicy parses a policy name. The empty string selects UnseenBucket.
func ParseUnseenPolicy(s string) (UnseenPolicy, error) {
	switch UnseenPolicy(s) {
	case "", UnseenBucket:
		return UnseenBucket, nil
	case UnseenError:
		return UnseenError, nil
	}
	return "", fmt.Errorf("unknown unseen policy %q (want %q or %q)", s, UnseenBucket, UnseenError)
}

// Vocabulary is a fitted string to integer mapping for one categorical field.
// Ids are positions in the sorted list of distinct values. A Vocabulary is
// never modified after it is built.
type Vocabulary struct {
	classes []string
	index   map[string]int
}

// FitVocabulary builds a vocabulary from every distinct value in values.
func FitVocabulary(values []string) Vocabulary {
	seen := make(map[string]bool, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	sort.Strings(classes)
	return newVocabulary(classes)
}

// NewVocabulary restores a vocabulary from its persisted class list, which
// must be sorted and free of duplicates.
func NewVocabulary(classes []string) (Vocabulary, error) {
	for i := 1; i < len(classes); i++ {
		if classes[i-1] >= classes[i] {
			return Vocabulary{}, fmt.Errorf("vocabulary classes not sorted and unique at %d: %q, %q", i, classes[i-1], classes[i])
		}
	}
	cp := make([]string, len(classes))
	copy(cp, classes)
	return newVocabulary(cp), nil
}

func newVocabulary(classes []string) Vocabulary {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return Vocabulary{classes: classes, index: index}
}

// Classes returns a copy of the ordered class list.
func (v Vocabulary) Classes() []string {
	cp := make([]string, len(v.classes))
	copy(cp, v.classes)
	return cp
}

// Len returns the number of classes.
func (v Vocabulary) Len() int {
	return len(v.classes)
}

// Lookup returns the id of value.
func (v Vocabulary) Lookup(value string, policy UnseenPolicy) (int, error) {
	if id, ok := v.index[value]; ok {
		return id, nil
	}
	if policy == UnseenError {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, value)
	}
	return len(v.classes), nil
}

// Transform looks up every value in order.
func (v Vocabulary) Transform(values []string, policy UnseenPolicy) ([]int, error) {
	ids := make([]int, len(values))
	for i, value := range values {
		id, err := v.Lookup(value, policy)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// MarshalJSON encodes the vocabulary as its class list.
func (v Vocabulary) MarshalJSON() ([]byte, error) {
	if v.classes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.classes)
}

// UnmarshalJSON decodes a class list written by MarshalJSON.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return err
	}
	restored, err := NewVocabulary(classes)
	if err != nil {
		return err
	}
	*v = restored
	return nil
}
