// Package tokenizer defines the contract shared by the word-level BPE,
// byte-level BPE and Unigram engines. Consumers depend only on Tokenizer;
// the engines live in sub-packages and share no mutable state.
package tokenizer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/go-subword/internal/vocab"
)

var (
	// ErrUntrained is returned when an engine that needs a trained model is
	// used before Train, Load or Restore succeeded.
	ErrUntrained = errors.New("tokenizer is not trained")
	// ErrEmptyCorpus is returned when training input holds no usable words
	// or sentences.
	ErrEmptyCorpus = errors.New("corpus has no usable text")
	// ErrUnknownToken is returned by Encode/Decode under the Fail policy.
	ErrUnknownToken = vocab.ErrUnknownToken
	// ErrMalformedVocab is returned when a persisted document is invalid.
	ErrMalformedVocab = vocab.ErrMalformedVocab
)

// EndOfWord marks a word boundary inside a BPE token sequence.
const EndOfWord = "<eow>"

// SplitAtEndOfWord cuts word at every literal EndOfWord and drops empty
// parts. The BPE engines treat the marker in input text as a word boundary,
// so only the last token of a word can end with it.
func SplitAtEndOfWord(word string) []string {
	if !strings.Contains(word, EndOfWord) {
		return []string{word}
	}

	var parts []string
	for _, p := range strings.Split(word, EndOfWord) {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return parts
}

// Tokenizer is implemented by every engine.
//
// Train replaces the whole trained state on success and leaves it untouched
// on failure. Tokenize is a pure function of the trained state and its input.
type Tokenizer interface {
	Train(corpus string) error
	Tokenize(text string) ([]string, error)
	Detokenize(tokens []string) string
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
	VocabSize() int

	// Snapshot returns the persisted form of the trained state.
	Snapshot() (*vocab.Document, error)
	// Restore replaces the trained state with doc.
	Restore(doc *vocab.Document) error
	Save(path string) error
	Load(path string) error
}

// Kind names an engine in config and in persisted documents.
type Kind string

const (
	KindWordBPE Kind = "word-bpe"
	KindByteBPE Kind = "byte-bpe"
	KindUnigram Kind = "unigram"
)

// Kinds lists every supported engine.
func Kinds() []Kind { return []Kind{KindWordBPE, KindByteBPE, KindUnigram} }

// ParseKind converts a config value into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}

	return "", fmt.Errorf("unknown tokenizer kind %q (want word-bpe|byte-bpe|unigram)", s)
}

// Observer receives training diagnostics. The zero value discards everything;
// no engine depends on it for correctness.
type Observer struct {
	Logger *slog.Logger
	// Progress is called with the number of completed steps (merges or EM
	// rounds) and the planned total.
	Progress func(done, total int)
}

// Log returns the configured logger or a discarding one.
func (o Observer) Log() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return o.Logger
}

// Report forwards progress when a callback is set.
func (o Observer) Report(done, total int) {
	if o.Progress != nil {
		o.Progress(done, total)
	}
}
