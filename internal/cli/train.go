package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/accessguru"
	"github.com/happyhackingspace/accessguru/internal/config"
	"github.com/happyhackingspace/accessguru/internal/dataset"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var (
		input, table string
		seed         uint64
		workers      int
		rounds       int
		featureNames []string
		policy       string
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "train [model-dir]",
		Short: "Train a severity model on a labelled violations table",
		Args:  cobra.MaximumNArgs(1),
		Example: `  accessguru train models --input data/violations.csv
  accessguru train --input data/violations.db --table violations -v
  accessguru train --features tag_enc,snippet_len,url_depth --rounds 300`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(func(cfg *config.Config) {
				flags := cmd.Flags()
				if len(args) == 1 {
					cfg.ModelDir = args[0]
				}
				if flags.Changed("input") {
					cfg.Input = input
				}
				if flags.Changed("table") {
					cfg.Table = table
				}
				if flags.Changed("seed") {
					cfg.Train.Seed = seed
				}
				if flags.Changed("workers") {
					cfg.Train.Workers = workers
				}
				if flags.Changed("rounds") {
					cfg.Train.Boost.Rounds = rounds
				}
				if flags.Changed("features") {
					cfg.Train.Features = featureNames
				}
				if flags.Changed("unseen-policy") {
					cfg.Train.UnseenPolicy = policy
				}
			})
			if err != nil {
				return err
			}

			slog.Info("Loading dataset", "input", cfg.Input)
			corpus, err := dataset.Load(cmd.Context(), cfg.Input, cfg.Table)
			if err != nil {
				return err
			}
			s, report, err := accessguru.Train(cmd.Context(), corpus, &cfg.Train)
			if err != nil {
				return err
			}
			slog.Debug("Training completed", "duration", report.Duration)
			if err := s.Save(cfg.ModelDir); err != nil {
				return err
			}
			slog.Info("Model saved", "dir", cfg.ModelDir, "run_id", report.RunID)

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			fmt.Printf("Available features: %d\n", len(report.Features))
			fmt.Printf("Training samples: %d\n", report.TrainRows)
			fmt.Printf("Test samples: %d\n", report.TestRows)
			printMetrics(report.Test)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Violations table (.csv, or .db/.sqlite for SQLite)")
	cmd.Flags().StringVar(&table, "table", dataset.DefaultTable, "SQLite table name")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "Seed for the split, SMOTE and boosting")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (0 = one per CPU)")
	cmd.Flags().IntVar(&rounds, "rounds", 150, "Boosting rounds")
	cmd.Flags().StringSliceVar(&featureNames, "features", nil, "Candidate feature names, in model order")
	cmd.Flags().StringVar(&policy, "unseen-policy", "bucket", "Unseen category handling at scoring time: bucket or error")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the training report as JSON")
	return cmd
}
