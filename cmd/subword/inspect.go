package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/go-subword/internal/engine"
)

type inspectReport struct {
	Path string             `yaml:"path"`
	Desc engine.Description `yaml:",inline"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the kind, size and rule counts of the saved vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := openVocab()
			if err != nil {
				return err
			}

			desc, err := engine.Describe(tok)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)

			if err := enc.Encode(inspectReport{Path: activeCfg.Paths.VocabPath, Desc: desc}); err != nil {
				return err
			}

			return enc.Close()
		},
	}
}
