package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-subword/internal/corpus"
	"github.com/example/go-subword/internal/doctor"
	"github.com/example/go-subword/internal/engine"
	"github.com/example/go-subword/internal/store"
	"github.com/example/go-subword/internal/tokenizer"
)

// doctorSamples cover ASCII, punctuation and CJK input.
var doctorSamples = []string{
	"the quick brown fox",
	"Hello, world!",
	"東京は日本の首都です。",
}

func newDoctorCmd() *cobra.Command {
	var skipStore bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration, corpus, saved vocabulary and store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "kind: %s\n", cfg.Tokenizer.Kind)

			dcfg := doctor.Config{
				Settings: cfg.Validate,
				CorpusFiles: func() (int, error) {
					files, err := corpus.NewWalker(cfg.Corpus.Includes, cfg.Corpus.Excludes).Walk(cfg.Corpus.Root)
					return len(files), err
				},
				VocabPath: cfg.Paths.VocabPath,
				OpenVocab: func(path string) (tokenizer.Tokenizer, error) {
					return engine.Open(path, cfg.Tokenizer)
				},
				Samples: doctorSamples,
			}

			if !skipStore {
				dcfg.StoreEntries = func() (int, error) {
					s, err := store.Open(cfg.Paths.StorePath, time.Second)
					if err != nil {
						return 0, err
					}

					entries, err := s.List()

					return len(entries), errors.Join(err, s.Close())
				}
			}

			result := doctor.Run(dcfg, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipStore, "skip-store", false, "Skip the tokenizer store check")

	return cmd
}
