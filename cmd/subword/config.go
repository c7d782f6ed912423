package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(newConfigDumpCmd())

	return cmd
}

func newConfigDumpCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the merged configuration as YAML, or write it to --out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if out == "" {
				return cfg.Dump(cmd.OutOrStdout())
			}

			if err := cfg.Save(out); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)

			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the configuration to this file instead of stdout")

	return cmd
}
