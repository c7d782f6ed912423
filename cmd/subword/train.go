package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/example/go-subword/internal/config"
	"github.com/example/go-subword/internal/corpus"
	"github.com/example/go-subword/internal/engine"
	"github.com/example/go-subword/internal/tokenizer"
)

func newTrainCmd() *cobra.Command {
	var (
		storeName  string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the configured tokenizer on the corpus files",
		Long: `Train reads every file under corpus.root matched by corpus.includes and
not matched by corpus.excludes, trains the configured tokenizer kind and saves
the vocabulary to paths.vocab_path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			text, files, err := corpus.Load(cfg.Corpus.Root, cfg.Corpus.Includes, cfg.Corpus.Excludes)
			if err != nil {
				return err
			}

			logger := slog.Default().With("kind", cfg.Tokenizer.Kind)
			logger.Info("corpus loaded", "files", len(files), "bytes", len(text))

			obs := tokenizer.Observer{Logger: logger}

			var bar *progressbar.ProgressBar
			if !noProgress {
				bar = newTrainBar(cmd, cfg.Tokenizer)
				obs.Progress = func(done, total int) {
					if bar.GetMax() != total {
						bar.ChangeMax(total)
					}
					_ = bar.Set(done)
				}
			}

			tok, err := engine.New(cfg.Tokenizer, obs)
			if err != nil {
				return err
			}

			start := time.Now()
			if err := tok.Train(text); err != nil {
				return fmt.Errorf("train: %w", err)
			}

			if bar != nil {
				_ = bar.Finish()
			}

			if err := tok.Save(cfg.Paths.VocabPath); err != nil {
				return err
			}

			logger.Info("vocabulary saved",
				"path", cfg.Paths.VocabPath,
				"vocab_size", tok.VocabSize(),
				"duration_ms", time.Since(start).Milliseconds(),
			)

			if storeName != "" {
				if err := putInStore(storeName, tok); err != nil {
					return err
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "trained %s: %d tokens from %d files -> %s\n",
				cfg.Tokenizer.Kind, tok.VocabSize(), len(files), cfg.Paths.VocabPath)

			return nil
		},
	}

	cmd.Flags().StringVar(&storeName, "store-name", "", "Also store the trained vocabulary under this name")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

// trainUnits returns the progress total and unit for the configured kind.
func trainUnits(t config.TokenizerConfig) (int, string) {
	if kind, err := config.NormalizeKind(t.Kind); err == nil && kind == string(tokenizer.KindUnigram) {
		return t.EMIterations, "EM rounds"
	}

	return t.NumMerges, "merges"
}

func newTrainBar(cmd *cobra.Command, t config.TokenizerConfig) *progressbar.ProgressBar {
	total, unit := trainUnits(t)

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionSetDescription("[cyan]Training[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)
}
