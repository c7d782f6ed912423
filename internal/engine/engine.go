// Package engine builds tokenizer engines from configuration and reopens
// persisted documents with the engine that wrote them.
package engine

import (
	"fmt"

	"github.com/example/go-subword/internal/bpe"
	"github.com/example/go-subword/internal/config"
	"github.com/example/go-subword/internal/tokenizer"
	"github.com/example/go-subword/internal/tokenizer/bytebpe"
	"github.com/example/go-subword/internal/tokenizer/unigram"
	"github.com/example/go-subword/internal/tokenizer/wordbpe"
	"github.com/example/go-subword/internal/vocab"
)

// New returns an untrained engine of the configured kind.
func New(cfg config.TokenizerConfig, obs tokenizer.Observer) (tokenizer.Tokenizer, error) {
	kind, err := config.NormalizeKind(cfg.Kind)
	if err != nil {
		return nil, err
	}

	return build(tokenizer.Kind(kind), cfg, obs)
}

func build(kind tokenizer.Kind, cfg config.TokenizerConfig, obs tokenizer.Observer) (tokenizer.Tokenizer, error) {
	policy, err := vocab.ParsePolicy(cfg.UnknownPolicy)
	if err != nil {
		return nil, err
	}

	switch kind {
	case tokenizer.KindWordBPE, tokenizer.KindByteBPE:
		strategy, err := bpe.ParseStrategy(cfg.Strategy)
		if err != nil {
			return nil, err
		}

		if kind == tokenizer.KindByteBPE {
			return bytebpe.New(bytebpe.Options{
				NumMerges:     cfg.NumMerges,
				MinFreq:       cfg.MinFreq,
				Strategy:      strategy,
				UnknownPolicy: policy,
				Observer:      obs,
			}), nil
		}

		return wordbpe.New(wordbpe.Options{
			NumMerges:     cfg.NumMerges,
			MinFreq:       cfg.MinFreq,
			Strategy:      strategy,
			UnknownPolicy: policy,
			Observer:      obs,
		}), nil
	case tokenizer.KindUnigram:
		return unigram.New(unigram.Options{
			VocabSize:      cfg.VocabSize,
			MaxPieceLength: cfg.MaxPieceLength,
			PruningFactor:  cfg.PruningFactor,
			EMIterations:   cfg.EMIterations,
			UnknownPolicy:  policy,
			Observer:       obs,
		}), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer kind %q", kind)
	}
}

// FromDocument restores doc into a new engine of the kind recorded in it.
// Documents without a kind fall back to the kind configured in cfg.
func FromDocument(doc *vocab.Document, cfg config.TokenizerConfig) (tokenizer.Tokenizer, error) {
	raw := doc.Kind
	if raw == "" {
		normalized, err := config.NormalizeKind(cfg.Kind)
		if err != nil {
			return nil, err
		}
		raw = normalized
	}

	kind, err := tokenizer.ParseKind(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vocab.ErrMalformedVocab, err)
	}

	tok, err := build(kind, cfg, tokenizer.Observer{})
	if err != nil {
		return nil, err
	}

	if err := tok.Restore(doc); err != nil {
		return nil, err
	}

	return tok, nil
}

// Open loads the document at path with the engine that wrote it.
func Open(path string, cfg config.TokenizerConfig) (tokenizer.Tokenizer, error) {
	doc, err := vocab.ReadFile(path)
	if err != nil {
		return nil, err
	}

	tok, err := FromDocument(doc, cfg)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}

	return tok, nil
}

// Description summarizes a restored engine for inspection output.
type Description struct {
	Kind      tokenizer.Kind `json:"kind"       yaml:"kind"`
	VocabSize int            `json:"vocab_size" yaml:"vocab_size"`
	Merges    int            `json:"merges"     yaml:"merges"`
	Pieces    int            `json:"pieces"     yaml:"pieces"`
}

// Describe reports the kind, vocabulary size and rule counts of tok.
func Describe(tok tokenizer.Tokenizer) (Description, error) {
	doc, err := tok.Snapshot()
	if err != nil {
		return Description{}, err
	}

	return Description{
		Kind:      tokenizer.Kind(doc.Kind),
		VocabSize: tok.VocabSize(),
		Merges:    len(doc.Merges),
		Pieces:    len(doc.Pieces),
	}, nil
}
