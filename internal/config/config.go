package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/example/go-subword/internal/tokenizer"
)

type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"     yaml:"paths"`
	Corpus    CorpusConfig    `mapstructure:"corpus"    yaml:"corpus"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer" yaml:"tokenizer"`
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level"`
}

type PathsConfig struct {
	VocabPath string `mapstructure:"vocab_path" yaml:"vocab_path"`
	StorePath string `mapstructure:"store_path" yaml:"store_path"`
}

type CorpusConfig struct {
	Root     string   `mapstructure:"root"     yaml:"root"`
	Includes []string `mapstructure:"includes" yaml:"includes"`
	Excludes []string `mapstructure:"excludes" yaml:"excludes"`
}

type TokenizerConfig struct {
	Kind           string `mapstructure:"kind"             yaml:"kind"`
	NumMerges      int    `mapstructure:"num_merges"       yaml:"num_merges"`
	MinFreq        int    `mapstructure:"min_freq"         yaml:"min_freq"`
	Strategy       string `mapstructure:"strategy"         yaml:"strategy"`
	VocabSize      int    `mapstructure:"vocab_size"       yaml:"vocab_size"`
	MaxPieceLength int    `mapstructure:"max_piece_length" yaml:"max_piece_length"`
	PruningFactor  int    `mapstructure:"pruning_factor"   yaml:"pruning_factor"`
	EMIterations   int    `mapstructure:"em_iterations"    yaml:"em_iterations"`
	UnknownPolicy  string `mapstructure:"unknown_policy"   yaml:"unknown_policy"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			VocabPath: "vocab.json",
			StorePath: "subword.db",
		},
		Corpus: CorpusConfig{
			Root:     ".",
			Includes: []string{"**/*.txt"},
			Excludes: []string{},
		},
		Tokenizer: TokenizerConfig{
			Kind:           string(tokenizer.KindWordBPE),
			NumMerges:      10,
			MinFreq:        2,
			Strategy:       "scan",
			VocabSize:      8000,
			MaxPieceLength: 6,
			PruningFactor:  2,
			EMIterations:   5,
			UnknownPolicy:  "substitute",
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-vocab-path", defaults.Paths.VocabPath, "Path to the vocabulary document")
	fs.String("paths-store-path", defaults.Paths.StorePath, "Path to the bbolt tokenizer store")
	fs.String("corpus-root", defaults.Corpus.Root, "Directory searched for corpus files")
	fs.StringSlice("corpus-includes", defaults.Corpus.Includes, "Doublestar patterns selecting corpus files")
	fs.StringSlice("corpus-excludes", defaults.Corpus.Excludes, "Doublestar patterns excluded from the corpus")
	fs.String("tokenizer-kind", defaults.Tokenizer.Kind, "Tokenizer engine (word-bpe|byte-bpe|unigram)")
	fs.Int("tokenizer-num-merges", defaults.Tokenizer.NumMerges, "Maximum number of BPE merges")
	fs.Int("tokenizer-min-freq", defaults.Tokenizer.MinFreq, "Stop BPE training below this pair frequency")
	fs.String("tokenizer-strategy", defaults.Tokenizer.Strategy, "BPE pair counting strategy (scan|heap)")
	fs.Int("tokenizer-vocab-size", defaults.Tokenizer.VocabSize, "Target Unigram vocabulary size")
	fs.Int("tokenizer-max-piece-length", defaults.Tokenizer.MaxPieceLength, "Longest Unigram piece in characters")
	fs.Int("tokenizer-pruning-factor", defaults.Tokenizer.PruningFactor, "Unigram seed size as a multiple of the vocabulary size")
	fs.Int("tokenizer-em-iterations", defaults.Tokenizer.EMIterations, "Number of Unigram EM rounds")
	fs.String("tokenizer-unknown-policy", defaults.Tokenizer.UnknownPolicy, "Unknown token handling (substitute|fail)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("SUBWORD")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("subword")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	kind, err := NormalizeKind(cfg.Tokenizer.Kind)
	if err != nil {
		return Config{}, err
	}
	cfg.Tokenizer.Kind = kind

	return cfg, nil
}

// Validate rejects settings no engine can train with.
func (c Config) Validate() error {
	if _, err := NormalizeKind(c.Tokenizer.Kind); err != nil {
		return err
	}

	t := c.Tokenizer

	var errs []error
	if t.NumMerges < 0 {
		errs = append(errs, fmt.Errorf("tokenizer.num_merges must be >= 0, got %d", t.NumMerges))
	}
	if t.MinFreq < 1 {
		errs = append(errs, fmt.Errorf("tokenizer.min_freq must be >= 1, got %d", t.MinFreq))
	}
	if t.VocabSize < 1 {
		errs = append(errs, fmt.Errorf("tokenizer.vocab_size must be >= 1, got %d", t.VocabSize))
	}
	if t.MaxPieceLength < 1 {
		errs = append(errs, fmt.Errorf("tokenizer.max_piece_length must be >= 1, got %d", t.MaxPieceLength))
	}
	if t.PruningFactor < 1 {
		errs = append(errs, fmt.Errorf("tokenizer.pruning_factor must be >= 1, got %d", t.PruningFactor))
	}
	if t.EMIterations < 0 {
		errs = append(errs, fmt.Errorf("tokenizer.em_iterations must be >= 0, got %d", t.EMIterations))
	}
	if c.Paths.VocabPath == "" {
		errs = append(errs, errors.New("paths.vocab_path must not be empty"))
	}

	return errors.Join(errs...)
}

// Dump writes the configuration as YAML to w.
func (c Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return enc.Close()
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}

	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.vocab_path", c.Paths.VocabPath)
	v.SetDefault("paths.store_path", c.Paths.StorePath)
	v.SetDefault("corpus.root", c.Corpus.Root)
	v.SetDefault("corpus.includes", c.Corpus.Includes)
	v.SetDefault("corpus.excludes", c.Corpus.Excludes)
	v.SetDefault("tokenizer.kind", c.Tokenizer.Kind)
	v.SetDefault("tokenizer.num_merges", c.Tokenizer.NumMerges)
	v.SetDefault("tokenizer.min_freq", c.Tokenizer.MinFreq)
	v.SetDefault("tokenizer.strategy", c.Tokenizer.Strategy)
	v.SetDefault("tokenizer.vocab_size", c.Tokenizer.VocabSize)
	v.SetDefault("tokenizer.max_piece_length", c.Tokenizer.MaxPieceLength)
	v.SetDefault("tokenizer.pruning_factor", c.Tokenizer.PruningFactor)
	v.SetDefault("tokenizer.em_iterations", c.Tokenizer.EMIterations)
	v.SetDefault("tokenizer.unknown_policy", c.Tokenizer.UnknownPolicy)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps config keys to their dashed flag names. Binding by key,
// rather than aliasing, keeps nested config file values visible to Unmarshal.
var flagKeys = map[string]string{
	"paths.vocab_path":           "paths-vocab-path",
	"paths.store_path":           "paths-store-path",
	"corpus.root":                "corpus-root",
	"corpus.includes":            "corpus-includes",
	"corpus.excludes":            "corpus-excludes",
	"tokenizer.kind":             "tokenizer-kind",
	"tokenizer.num_merges":       "tokenizer-num-merges",
	"tokenizer.min_freq":         "tokenizer-min-freq",
	"tokenizer.strategy":         "tokenizer-strategy",
	"tokenizer.vocab_size":       "tokenizer-vocab-size",
	"tokenizer.max_piece_length": "tokenizer-max-piece-length",
	"tokenizer.pruning_factor":   "tokenizer-pruning-factor",
	"tokenizer.em_iterations":    "tokenizer-em-iterations",
	"tokenizer.unknown_policy":   "tokenizer-unknown-policy",
	"log_level":                  "log-level",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}

	return nil
}
