package gbt

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"
)

func threeClusters() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for c := range 3 {
		for j := range 15 {
			X = append(X, []float64{float64(c*10 + j%5), float64(j)})
			y = append(y, c)
		}
	}
	return X, y
}

func testConfig() Config {
	config := DefaultConfig()
	config.Rounds = 20
	return config
}

func TestTrainSeparable(t *testing.T) {
	var X [][]float64
	var y []int
	for i := range 40 {
		X = append(X, []float64{float64(i)})
		label := 0
		if i >= 20 {
			label = 1
		}
		y = append(y, label)
	}
	model, err := Train(context.Background(), X, y, 2, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	got, err := model.PredictAll(X)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, y) {
		t.Errorf("PredictAll = %v, want %v", got, y)
	}
	if len(model.Trees) != 20 || len(model.Trees[0]) != 2 {
		t.Errorf("trees shape = %d x %d, want 20 x 2", len(model.Trees), len(model.Trees[0]))
	}
}

func TestTrainMultiClass(t *testing.T) {
	X, y := threeClusters()
	model, err := Train(context.Background(), X, y, 3, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	proba := make([][]float64, len(X))
	for i, x := range X {
		p, err := model.PredictProba(x)
		if err != nil {
			t.Fatal(err)
		}
		sum := p[0] + p[1] + p[2]
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("row %d: probabilities sum to %v", i, sum)
		}
		if c, _ := model.Predict(x); c != y[i] {
			t.Errorf("row %d: Predict = %d, want %d", i, c, y[i])
		}
		proba[i] = p
	}
	if loss := LogLoss(proba, y); loss >= math.Log(3) {
		t.Errorf("LogLoss = %v, want below the uniform %v", loss, math.Log(3))
	}
}

func TestTrainDeterministic(t *testing.T) {
	X, y := threeClusters()
	config := testConfig()
	config.Subsample = 0.8
	config.Workers = 1
	a, err := Train(context.Background(), X, y, 3, config)
	if err != nil {
		t.Fatal(err)
	}
	config.Workers = 4
	b, err := Train(context.Background(), X, y, 3, config)
	if err != nil {
		t.Fatal(err)
	}
	aj, _ := MarshalModel(a)
	bj, _ := MarshalModel(b)
	if !bytes.Equal(aj, bj) {
		t.Error("identical input produced different models")
	}
}

func TestTrainConstantFeatures(t *testing.T) {
	X := [][]float64{{1}, {1}, {1}, {1}}
	y := []int{0, 0, 0, 1}
	model, err := Train(context.Background(), X, y, 2, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, round := range model.Trees {
		for _, tree := range round {
			if len(tree.Nodes) != 1 || !tree.Nodes[0].Leaf() {
				t.Fatalf("tree = %+v, want a single leaf", tree)
			}
		}
	}
	if c, _ := model.Predict([]float64{1}); c != 0 {
		t.Errorf("Predict = %d, want majority class 0", c)
	}
}

func TestTrainRejectsInput(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		X          [][]float64
		y          []int
		numClasses int
	}{
		{"empty", nil, nil, 2},
		{"length mismatch", [][]float64{{1}}, []int{0, 1}, 2},
		{"one class", [][]float64{{1}, {2}}, []int{0, 0}, 1},
		{"label out of range", [][]float64{{1}, {2}}, []int{0, 2}, 2},
		{"ragged", [][]float64{{1}, {2, 3}}, []int{0, 1}, 2},
	}
	for _, tt := range tests {
		if _, err := Train(ctx, tt.X, tt.y, tt.numClasses, testConfig()); !errors.Is(err, ErrInput) {
			t.Errorf("%s: err = %v, want ErrInput", tt.name, err)
		}
	}
}

func TestTrainCancelled(t *testing.T) {
	X, y := threeClusters()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Train(ctx, X, y, 3, testConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	mutations := []func(*Config){
		func(c *Config) { c.Rounds = 0 },
		func(c *Config) { c.LearningRate = 0 },
		func(c *Config) { c.MaxDepth = 0 },
		func(c *Config) { c.MaxBins = 1 },
		func(c *Config) { c.Lambda = -1 },
		func(c *Config) { c.Subsample = 1.5 },
		func(c *Config) { c.Subsample = 0 },
	}
	for i, mutate := range mutations {
		config := DefaultConfig()
		mutate(&config)
		if err := config.Validate(); err == nil {
			t.Errorf("mutation %d: Validate() = nil, want error", i)
		}
	}
}

func TestCutPoints(t *testing.T) {
	got := cutPoints([]float64{3, 1, 2, 1, 3}, 4)
	if want := []float64{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("cutPoints = %v, want %v", got, want)
	}

	col := make([]float64, 100)
	for i := range col {
		col[i] = float64(99 - i)
	}
	cuts := cutPoints(col, 8)
	if len(cuts) > 8 {
		t.Errorf("len(cuts) = %d, want at most 8", len(cuts))
	}
	for i := 1; i < len(cuts); i++ {
		if cuts[i] <= cuts[i-1] {
			t.Fatalf("cuts not strictly ascending: %v", cuts)
		}
	}
	if cuts[len(cuts)-1] != 99 {
		t.Errorf("last cut = %v, want the maximum 99", cuts[len(cuts)-1])
	}
}

func TestTreePredict(t *testing.T) {
	tree := Tree{Nodes: []Node{
		{Feature: 1, Threshold: 2.5, Left: 1, Right: 2},
		{Feature: -1, Value: -1},
		{Feature: -1, Value: 1},
	}}
	tests := []struct {
		x    []float64
		want float64
	}{
		{[]float64{0, 2.5}, -1},
		{[]float64{0, 2.6}, 1},
		{[]float64{9, -3}, -1},
	}
	for _, tt := range tests {
		if got := tree.Predict(tt.x); got != tt.want {
			t.Errorf("Predict(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestModelRoundTrip(t *testing.T) {
	X, y := threeClusters()
	model, err := Train(context.Background(), X, y, 3, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "gbt_model.json")
	if err := SaveModel(model, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, model) {
		t.Error("loaded model differs from saved model")
	}
	if _, err := loaded.Predict([]float64{1}); err == nil {
		t.Error("Predict with wrong width: err = nil")
	}
}

func TestMarginsSumTrees(t *testing.T) {
	leaf := func(v float64) Tree { return Tree{Nodes: []Node{{Feature: -1, Value: v}}} }
	model := &Model{
		NumClasses:  2,
		NumFeatures: 1,
		Trees: [][]Tree{
			{leaf(0.5), leaf(-0.25)},
			{leaf(0.25), leaf(0.5)},
		},
	}
	got, err := model.Margins([]float64{0})
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{0.75, 0.25}; !reflect.DeepEqual(got, want) {
		t.Errorf("Margins = %v, want %v", got, want)
	}
	data, err := MarshalModel(model)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte("base_score")) {
		t.Errorf("model JSON carries a base score: %s", data)
	}
}

func TestUnmarshalModelValidates(t *testing.T) {
	tests := []string{
		`{`,
		`{"num_classes":1,"num_features":1,"trees":[]}`,
		`{"num_classes":2,"num_features":1,"trees":[[{"nodes":[{"feature":-1}]}]]}`,
		`{"num_classes":2,"num_features":1,"trees":[[{"nodes":[{"feature":0,"left":0,"right":0}]},{"nodes":[{"feature":-1}]}]]}`,
		`{"num_classes":2,"num_features":1,"trees":[[{"nodes":[{"feature":3,"left":1,"right":2},{"feature":-1},{"feature":-1}]},{"nodes":[{"feature":-1}]}]]}`,
	}
	for _, data := range tests {
		if _, err := UnmarshalModel([]byte(data)); err == nil {
			t.Errorf("UnmarshalModel(%s) = nil error", data)
		}
	}
}
