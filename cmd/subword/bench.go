package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-subword/internal/bench"
	"github.com/example/go-subword/internal/config"
	"github.com/example/go-subword/internal/corpus"
	"github.com/example/go-subword/internal/text"
)

func newBenchCmd() *cobra.Command {
	var (
		input         string
		runs          int
		format        string
		maxChars      int
		minThroughput float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark encode throughput of the saved vocabulary",
		Long: `Bench encodes --text, or the corpus split into sentence chunks of at most
--max-chars characters, once per run and reports tokens per second.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return errors.New("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return errors.New("--format must be 'table' or 'json'")
			}

			inputs, err := benchInputs(cfg, input, maxChars)
			if err != nil {
				return err
			}

			tok, err := openVocab()
			if err != nil {
				return err
			}

			results, err := bench.Run(tok, inputs, bench.Options{Runs: runs})
			if err != nil {
				return err
			}

			stats := bench.Summarize(results)

			switch format {
			case "json":
				if err := bench.FormatJSON(results, stats, cmd.OutOrStdout()); err != nil {
					return err
				}
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckThroughputThreshold(stats.MeanThroughput, minThroughput)
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to encode on each run (default: the corpus)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().IntVar(&maxChars, "max-chars", 400, "Maximum characters per corpus chunk (0 = one chunk)")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0,
		"Exit non-zero if mean tokens/s falls below this value (0 = disabled)")

	return cmd
}

// benchInputs returns the explicit text as a single input, or the corpus
// split into sentence chunks.
func benchInputs(cfg config.Config, input string, maxChars int) ([]string, error) {
	if strings.TrimSpace(input) != "" {
		return []string{input}, nil
	}

	joined, _, err := corpus.Load(cfg.Corpus.Root, cfg.Corpus.Includes, cfg.Corpus.Excludes)
	if err != nil {
		return nil, fmt.Errorf("bench corpus: %w", err)
	}

	return text.Chunk(joined, maxChars), nil
}
