package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/accessguru"
	"github.com/happyhackingspace/accessguru/features"
	"github.com/happyhackingspace/accessguru/internal/config"
	"github.com/happyhackingspace/accessguru/internal/dataset"
)

type scoredRow struct {
	Row int `json:"row"`
	accessguru.Prediction
}

func (c *CLI) newScoreCommand() *cobra.Command {
	var modelDir, table string
	var rec features.ViolationRecord

	cmd := &cobra.Command{
		Use:   "score [table]",
		Short: "Score violations from a table, stdin, or flags",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # Score every row of a CSV file
  accessguru score data/new.csv

  # Score a SQLite table
  accessguru score data/scan.db --table violations

  # Pipe CSV from stdin
  cat data/new.csv | accessguru score

  # Score a single violation
  accessguru score --html '<img src="logo.png">' --violation image-alt --impact critical

  # Use a custom model directory
  accessguru score data/new.csv --model-dir out/models`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(func(cfg *config.Config) {
				if cmd.Flags().Changed("model-dir") {
					cfg.ModelDir = modelDir
				}
			})
			if err != nil {
				return err
			}

			start := time.Now()
			s, err := loadScorer(cfg.ModelDir)
			if err != nil {
				return err
			}
			slog.Debug("Model loaded", "dir", cfg.ModelDir, "duration", time.Since(start))

			if cmd.Flags().Changed("html") {
				p, err := s.Score(rec)
				if err != nil {
					return err
				}
				output, _ := json.MarshalIndent(p, "", "  ")
				fmt.Println(string(output))
				return nil
			}

			var corpus *features.Corpus
			switch {
			case len(args) == 1:
				corpus, err = dataset.Load(cmd.Context(), args[0], table)
			case !isStdinTerminal():
				corpus, err = readFromStdin(os.Stdin)
			default:
				return cmd.Help()
			}
			if err != nil {
				return err
			}

			start = time.Now()
			preds, err := s.ScoreAll(cmd.Context(), corpus.Records, cfg.Train.Workers)
			if err != nil {
				return err
			}
			slog.Debug("Scoring completed", "records", len(preds), "duration", time.Since(start))

			enc := json.NewEncoder(os.Stdout)
			for i, p := range preds {
				if err := enc.Encode(scoredRow{Row: i, Prediction: p}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelDir, "model-dir", accessguru.DefaultModelDir, "Trained model directory")
	cmd.Flags().StringVar(&table, "table", dataset.DefaultTable, "SQLite table name")
	cmd.Flags().StringVar(&rec.HTML, "html", "", "Affected HTML of a single violation")
	cmd.Flags().StringVar(&rec.SupplementaryInfo, "supp", "", "Supplementary information of a single violation")
	cmd.Flags().StringVar(&rec.ViolationName, "violation", "", "Violation name")
	cmd.Flags().StringVar(&rec.WCAGReference, "wcag", "", "WCAG reference")
	cmd.Flags().StringVar(&rec.DomainCategory, "domain", "", "Domain category")
	cmd.Flags().StringVar(&rec.ViolationImpact, "impact", "", "Violation impact")
	cmd.Flags().StringVar(&rec.URL, "url", "", "Page URL")
	return cmd
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func readFromStdin(r io.Reader) (*features.Corpus, error) {
	slog.Debug("Reading from stdin")
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	content := strings.TrimSpace(string(body))
	if content == "" {
		return nil, fmt.Errorf("stdin is empty")
	}
	return dataset.ReadCSV(strings.NewReader(content))
}
