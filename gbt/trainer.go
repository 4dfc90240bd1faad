package gbt

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	minHessian = 1e-16
	gainEps    = 1e-10
)

// Train fits a booster on X with labels y in [0, numClasses). Each round
// adds one tree per class, built in parallel on the softmax gradients.
// Identical input and config give an identical model.
func Train(ctx context.Context, X [][]float64, y []int, numClasses int, config Config) (*Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := checkInput(X, y, numClasses); err != nil {
		return nil, err
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	n := len(X)
	model := &Model{
		NumClasses:  numClasses,
		NumFeatures: len(X[0]),
		Trees:       make([][]Tree, 0, config.Rounds),
	}
	b := &builder{binner: newBinner(X, config.MaxBins), config: config}
	rng := rand.New(rand.NewPCG(config.Seed, config.Seed))

	margins := make([][]float64, n)
	for i := range margins {
		margins[i] = make([]float64, numClasses)
	}
	proba := make([][]float64, n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	for round := range config.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("gbt: %w", err)
		}
		for i := range margins {
			proba[i] = softmax(margins[i])
		}
		if round%10 == 0 {
			slog.Debug("Boosting round", "round", round, "mlogloss", LogLoss(proba, y))
		}

		rows := all
		if config.Subsample < 1 {
			rows = sample(rng, n, config.Subsample)
		}

		trees := make([]Tree, numClasses)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for k := range numClasses {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				grad := make([]float64, n)
				hess := make([]float64, n)
				for _, i := range rows {
					p := proba[i][k]
					target := 0.0
					if y[i] == k {
						target = 1
					}
					grad[i] = p - target
					hess[i] = max(2*p*(1-p), minHessian)
				}
				trees[k] = b.build(rows, grad, hess)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("gbt: %w", err)
		}

		for i, x := range X {
			for k := range trees {
				margins[i][k] += trees[k].Predict(x)
			}
		}
		model.Trees = append(model.Trees, trees)
	}

	for i := range margins {
		proba[i] = softmax(margins[i])
	}
	slog.Debug("Boosting finished", "rounds", config.Rounds, "mlogloss", LogLoss(proba, y))
	return model, nil
}

func checkInput(X [][]float64, y []int, numClasses int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("gbt: %w: %d rows, %d labels", ErrInput, len(X), len(y))
	}
	if numClasses < 2 {
		return fmt.Errorf("gbt: %w: need at least 2 classes, got %d", ErrInput, numClasses)
	}
	dim := len(X[0])
	if dim == 0 {
		return fmt.Errorf("gbt: %w: no features", ErrInput)
	}
	for i, row := range X {
		if len(row) != dim {
			return fmt.Errorf("gbt: %w: row %d has %d features, want %d", ErrInput, i, len(row), dim)
		}
	}
	for i, label := range y {
		if label < 0 || label >= numClasses {
			return fmt.Errorf("gbt: %w: row %d label %d outside [0, %d)", ErrInput, i, label, numClasses)
		}
	}
	return nil
}

// sample draws each row with probability rate, keeping at least one row.
func sample(rng *rand.Rand, n int, rate float64) []int {
	rows := make([]int, 0, int(float64(n)*rate)+1)
	for i := range n {
		if rng.Float64() < rate {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, rng.IntN(n))
	}
	return rows
}

type builder struct {
	*binner
	config Config
}

type split struct {
	feature int
	bin     int
	gain    float64
}

// build grows one tree depth-first over rows. It only reads shared state,
// so trees for different classes can be built concurrently.
func (b *builder) build(rows []int, grad, hess []float64) Tree {
	var t Tree
	b.grow(&t, rows, grad, hess, 0)
	return t
}

func (b *builder) grow(t *Tree, rows []int, grad, hess []float64, depth int) int {
	var G, H float64
	for _, i := range rows {
		G += grad[i]
		H += hess[i]
	}
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: -1, Value: b.leafValue(G, H)})

	if depth >= b.config.MaxDepth || H < 2*b.config.MinChildWeight || len(rows) < 2 {
		return id
	}
	best, ok := b.bestSplit(rows, grad, hess, G, H)
	if !ok {
		return id
	}

	col := b.bins[best.feature]
	var left, right []int
	for _, i := range rows {
		if int(col[i]) <= best.bin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(t, left, grad, hess, depth+1)
	r := b.grow(t, right, grad, hess, depth+1)
	t.Nodes[id] = Node{
		Feature:   best.feature,
		Threshold: b.cuts[best.feature][best.bin],
		Left:      l,
		Right:     r,
	}
	return id
}

// bestSplit scans the gradient histogram of every feature. The first split
// with the highest gain wins, in feature then bin order.
func (b *builder) bestSplit(rows []int, grad, hess []float64, G, H float64) (split, bool) {
	lambda := b.config.Lambda
	minChild := b.config.MinChildWeight
	parent := G * G / (H + lambda)
	best := split{gain: b.config.Gamma + gainEps}
	found := false

	for f, cuts := range b.cuts {
		if len(cuts) < 2 {
			continue
		}
		gh := make([]float64, len(cuts))
		hh := make([]float64, len(cuts))
		col := b.bins[f]
		for _, i := range rows {
			gh[col[i]] += grad[i]
			hh[col[i]] += hess[i]
		}
		var GL, HL float64
		for bin := 0; bin < len(cuts)-1; bin++ {
			GL += gh[bin]
			HL += hh[bin]
			GR, HR := G-GL, H-HL
			if HL < minChild || HR < minChild {
				continue
			}
			gain := GL*GL/(HL+lambda) + GR*GR/(HR+lambda) - parent
			if gain > best.gain {
				best = split{feature: f, bin: bin, gain: gain}
				found = true
			}
		}
	}
	return best, found
}

func (b *builder) leafValue(G, H float64) float64 {
	return -G / (H + b.config.Lambda) * b.config.LearningRate
}
