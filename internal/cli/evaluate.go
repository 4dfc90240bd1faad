package cli

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/accessguru"
	"github.com/happyhackingspace/accessguru/internal/config"
	"github.com/happyhackingspace/accessguru/internal/dataset"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var input, table, modelDir string

	cmd := &cobra.Command{
		Use:     "evaluate",
		Short:   "Evaluate a trained model on a labelled violations table",
		Example: `  accessguru evaluate --input data/holdout.csv --model-dir models`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(func(cfg *config.Config) {
				if cmd.Flags().Changed("input") {
					cfg.Input = input
				}
				if cmd.Flags().Changed("table") {
					cfg.Table = table
				}
				if cmd.Flags().Changed("model-dir") {
					cfg.ModelDir = modelDir
				}
			})
			if err != nil {
				return err
			}

			s, err := loadScorer(cfg.ModelDir)
			if err != nil {
				return err
			}
			corpus, err := dataset.Load(cmd.Context(), cfg.Input, cfg.Table)
			if err != nil {
				return err
			}
			slog.Info("Evaluating", "input", cfg.Input, "records", corpus.Len())
			start := time.Now()
			m, err := accessguru.Evaluate(cmd.Context(), s, corpus, cfg.Train.Workers)
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))
			printMetrics(m)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Labelled violations table")
	cmd.Flags().StringVar(&table, "table", dataset.DefaultTable, "SQLite table name")
	cmd.Flags().StringVar(&modelDir, "model-dir", accessguru.DefaultModelDir, "Trained model directory")
	return cmd
}

func printMetrics(m *accessguru.Metrics) {
	fmt.Printf("Test Accuracy: %.4f (%d/%d)\n", m.Accuracy, m.Correct, m.Total)
	fmt.Printf("Macro F1: %.1f%%\n", m.MacroF1*100)
	classes := make([]string, len(m.Scores))
	for i, s := range m.Scores {
		classes[i] = strconv.Itoa(s)
	}
	printConfusionMatrix(m.Confusion, classes)
	printClassReport(m, classes)
}

func printClassReport(m *accessguru.Metrics, classes []string) {
	fmt.Printf("\nPer-class metrics:\n")
	fmt.Printf("%8s  %6s  %6s  %6s  %7s\n", "score", "prec", "recall", "f1", "support")
	for i, cls := range classes {
		fmt.Printf("%8s  %5.1f%%  %5.1f%%  %5.1f%%  %7d\n",
			cls, m.Precision[i]*100, m.Recall[i]*100, m.F1[i]*100, m.Support[i])
	}
}

func printConfusionMatrix(confusion [][]int, classes []string) {
	if len(confusion) == 0 {
		return
	}

	totals := make([]int, len(classes))
	for i, row := range confusion {
		for _, v := range row {
			totals[i] += v
		}
	}
	order := make([]int, len(classes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return totals[order[a]] > totals[order[b]]
	})

	fmt.Printf("\nConfusion matrix (rows=true, cols=predicted):\n")
	fmt.Printf("%8s", "")
	for _, j := range order {
		fmt.Printf(" %5s", classes[j])
	}
	fmt.Printf("  total  acc%%\n")

	for _, i := range order {
		fmt.Printf("%8s", classes[i])
		correct := confusion[i][i]
		for _, j := range order {
			count := confusion[i][j]
			if count == 0 {
				fmt.Printf("   %5s", ".")
			} else {
				fmt.Printf("   %3d", count)
			}
		}
		acc := 0.0
		if totals[i] > 0 {
			acc = float64(correct) / float64(totals[i]) * 100
		}
		fmt.Printf("  %5d %5.1f\n", totals[i], acc)
	}
}
