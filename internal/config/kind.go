package config

import (
	"strings"

	"github.com/example/go-subword/internal/tokenizer"
)

// NormalizeKind maps a configured tokenizer kind, or one of its short
// aliases, to the canonical engine name. Empty selects word-bpe.
func NormalizeKind(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "word", "bpe":
		return string(tokenizer.KindWordBPE), nil
	case "byte", "bytes":
		return string(tokenizer.KindByteBPE), nil
	case "sentencepiece", "sp":
		return string(tokenizer.KindUnigram), nil
	}

	kind, err := tokenizer.ParseKind(raw)
	if err != nil {
		return "", err
	}

	return string(kind), nil
}
