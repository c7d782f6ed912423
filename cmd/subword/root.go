package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-subword/internal/config"
	"github.com/example/go-subword/internal/engine"
	"github.com/example/go-subword/internal/logging"
	"github.com/example/go-subword/internal/tokenizer"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "subword",
		Short:         "Train and apply subword tokenizers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newTokenizeCmd())
	cmd.AddCommand(newEncodeCmd())
	cmd.AddCommand(newDecodeCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newStoreCmd())
	cmd.AddCommand(newExportSentencePieceCmd())
	cmd.AddCommand(newImportSentencePieceCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	if _, err := logging.Setup(os.Stderr, levelStr); err != nil {
		slog.Warn("invalid log level, using info", "level", levelStr)
	}
}

func requireConfig() (config.Config, error) {
	if activeCfg.Paths.VocabPath == "" {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

// openVocab loads the saved vocabulary named by the active config.
func openVocab() (tokenizer.Tokenizer, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, err
	}

	return engine.Open(cfg.Paths.VocabPath, cfg.Tokenizer)
}
