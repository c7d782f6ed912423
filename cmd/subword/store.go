package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-subword/internal/engine"
	"github.com/example/go-subword/internal/store"
	"github.com/example/go-subword/internal/tokenizer"
	"github.com/example/go-subword/internal/vocab"
)

const storeLockTimeout = 2 * time.Second

func withStore(fn func(*store.Store) error) (err error) {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Paths.StorePath, storeLockTimeout)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	return fn(s)
}

func putInStore(name string, tok tokenizer.Tokenizer) error {
	doc, err := tok.Snapshot()
	if err != nil {
		return err
	}

	return withStore(func(s *store.Store) error {
		return s.Put(name, doc)
	})
}

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage named vocabularies in the tokenizer store",
	}

	cmd.AddCommand(
		newStoreListCmd(),
		newStorePutCmd(),
		newStoreGetCmd(),
		newStoreDeleteCmd(),
	)

	return cmd
}

func newStoreListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored vocabularies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(func(s *store.Store) error {
				entries, err := s.List()
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "NAME\tKIND\tVOCAB\tMERGES\tPIECES\tSAVED")

				for _, e := range entries {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
						e.Name, e.Kind, e.VocabSize, e.Merges, e.Pieces, e.SavedAt.Format(time.RFC3339))
				}

				return tw.Flush()
			})
		},
	}
}

func newStorePutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put NAME",
		Short: "Store the saved vocabulary under NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := openVocab()
			if err != nil {
				return err
			}

			if err := putInStore(args[0], tok); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stored %s as %q\n", activeCfg.Paths.VocabPath, args[0])

			return nil
		},
	}
}

func newStoreGetCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Write the vocabulary stored under NAME to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = activeCfg.Paths.VocabPath
			}

			return withStore(func(s *store.Store) error {
				doc, err := s.Get(args[0])
				if err != nil {
					return err
				}

				// Restoring first rejects documents no engine can load.
				if _, err := engine.FromDocument(doc, activeCfg.Tokenizer); err != nil {
					return fmt.Errorf("stored %q: %w", args[0], err)
				}

				if err := vocab.WriteFile(out, doc); err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %q to %s\n", args[0], out)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output path (default paths.vocab_path)")

	return cmd
}

func newStoreDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove the vocabulary stored under NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.Store) error {
				if err := s.Delete(args[0]); err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", args[0])

				return nil
			})
		},
	}
}
