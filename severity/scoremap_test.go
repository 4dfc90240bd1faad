package severity

import (
	"errors"
	"reflect"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	m := DefaultScoreMap()
	for _, score := range []int{2, 3, 4, 5} {
		class, err := m.Forward(score)
		if err != nil {
			t.Fatalf("Forward(%d): %v", score, err)
		}
		back, err := m.Inverse(class)
		if err != nil {
			t.Fatalf("Inverse(%d): %v", class, err)
		}
		if back != score {
			t.Errorf("Inverse(Forward(%d)) = %d", score, back)
		}
	}
}

func TestForwardValues(t *testing.T) {
	m := DefaultScoreMap()
	want := map[int]int{2: 0, 3: 1, 4: 2, 5: 3}
	if got := m.Mapping(); !reflect.DeepEqual(got, want) {
		t.Errorf("Mapping = %v, want %v", got, want)
	}
	if got := m.Reverse(); !reflect.DeepEqual(got, map[int]int{0: 2, 1: 3, 2: 4, 3: 5}) {
		t.Errorf("Reverse = %v", got)
	}
}

func TestForwardRejects(t *testing.T) {
	m := DefaultScoreMap()
	for _, score := range []int{-1, 0, 1, 6, 100} {
		if _, err := m.Forward(score); !errors.Is(err, ErrUnknownScore) {
			t.Errorf("Forward(%d) err = %v, want ErrUnknownScore", score, err)
		}
	}
	if _, err := m.Inverse(4); !errors.Is(err, ErrUnknownScore) {
		t.Errorf("Inverse(4) err = %v", err)
	}
}

func TestForwardAll(t *testing.T) {
	m := DefaultScoreMap()
	got, err := m.ForwardAll([]int{5, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{3, 0, 1}) {
		t.Errorf("ForwardAll = %v", got)
	}
	if _, err := m.ForwardAll([]int{2, 7}); !errors.Is(err, ErrUnknownScore) {
		t.Errorf("err = %v, want ErrUnknownScore", err)
	}
}

func TestNewScoreMapValidates(t *testing.T) {
	bad := []map[int]int{
		{},
		{2: 0, 3: 0},
		{2: 0, 3: 2},
		{2: -1},
	}
	for _, fwd := range bad {
		if _, err := NewScoreMap(fwd); err == nil {
			t.Errorf("NewScoreMap(%v): expected error", fwd)
		}
	}
}

func TestMappingIsCopy(t *testing.T) {
	m := DefaultScoreMap()
	fwd := m.Mapping()
	fwd[2] = 3
	if c, _ := m.Forward(2); c != 0 {
		t.Errorf("Forward(2) = %d after mutating copy", c)
	}
}
