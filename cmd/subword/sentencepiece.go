package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-subword/internal/engine"
	"github.com/example/go-subword/internal/tokenizer"
	"github.com/example/go-subword/internal/tokenizer/unigram"
)

func newExportSentencePieceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-sentencepiece OUT",
		Short: "Write the saved unigram vocabulary as a SentencePiece model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := openVocab()
			if err != nil {
				return err
			}

			uni, ok := tok.(*unigram.Tokenizer)
			if !ok {
				return fmt.Errorf("export-sentencepiece needs a %s vocabulary, %s holds another kind",
					tokenizer.KindUnigram, activeCfg.Paths.VocabPath)
			}

			if err := uni.ExportSentencePiece(args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d pieces to %s\n", uni.VocabSize(), args[0])

			return nil
		},
	}
}

func newImportSentencePieceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-sentencepiece IN",
		Short: "Convert a SentencePiece unigram model into a saved vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			settings := cfg.Tokenizer
			settings.Kind = string(tokenizer.KindUnigram)

			tok, err := engine.New(settings, tokenizer.Observer{})
			if err != nil {
				return err
			}

			uni := tok.(*unigram.Tokenizer)
			if err := uni.ImportSentencePiece(args[0]); err != nil {
				return err
			}

			if err := uni.Save(cfg.Paths.VocabPath); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d pieces from %s -> %s\n",
				uni.VocabSize(), args[0], cfg.Paths.VocabPath)

			return nil
		},
	}
}
