package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-subword/internal/tokenizer"
	"github.com/example/go-subword/internal/tokenizer/bytebpe"
	"github.com/example/go-subword/internal/vocab"
)

// inputText joins args, or reads stdin when no args are given.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	return strings.TrimRight(string(data), "\r\n"), nil
}

// displayToken renders raw byte tokens through the byte-level codec so they
// print as valid UTF-8.
func displayToken(tok tokenizer.Tokenizer, s string) string {
	if _, ok := tok.(*bytebpe.Tokenizer); ok {
		return vocab.ByteLevel.EncodeToken(s)
	}

	return s
}

func newTokenizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize [TEXT...]",
		Short: "Split text into tokens, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := openVocab()
			if err != nil {
				return err
			}

			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}

			tokens, err := tok.Tokenize(text)
			if err != nil {
				return err
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, t := range tokens {
				_, _ = fmt.Fprintln(w, displayToken(tok, t))
			}

			return w.Flush()
		},
	}
}

func newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [TEXT...]",
		Short: "Encode text into token ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := openVocab()
			if err != nil {
				return err
			}

			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}

			ids, err := tok.Encode(text)
			if err != nil {
				return err
			}

			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = strconv.Itoa(id)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))

			return err
		},
	}
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode ID...",
		Short: "Decode token ids back into text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				for _, field := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
					id, err := strconv.Atoi(field)
					if err != nil {
						return fmt.Errorf("invalid id %q: %w", field, err)
					}
					ids = append(ids, id)
				}
			}

			tok, err := openVocab()
			if err != nil {
				return err
			}

			text, err := tok.Decode(ids)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)

			return err
		},
	}
}
