// Package bytebpe implements byte-pair encoding over raw bytes. Every input
// byte sequence is representable, whatever its encoding.
package bytebpe

import (
	"bytes"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/example/go-subword/internal/bpe"
	"github.com/example/go-subword/internal/tokenizer"
	"github.com/example/go-subword/internal/vocab"
)

// Options configures training and the unknown-token policy.
type Options struct {
	NumMerges     int
	MinFreq       int
	Strategy      bpe.Strategy
	UnknownPolicy vocab.UnknownPolicy
	Observer      tokenizer.Observer
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		NumMerges: 10,
		MinFreq:   2,
		Strategy:  bpe.StrategyScan,
	}
}

type state struct {
	merges []bpe.Merge
	vocab  *vocab.Vocabulary
}

// Tokenizer is a byte-level BPE engine. Tokens are byte strings that need
// not be valid UTF-8; the end-of-word marker is the byte string "<eow>".
type Tokenizer struct {
	opts  Options
	state atomic.Pointer[state]
}

var _ tokenizer.Tokenizer = (*Tokenizer)(nil)

// New returns an untrained tokenizer whose vocabulary already holds every
// single byte.
func New(opts Options) *Tokenizer {
	t := &Tokenizer{opts: opts}
	t.state.Store(&state{vocab: buildVocab(bpe.Result{}, opts.UnknownPolicy)})

	return t
}

// Train learns merge rules from corpus and rebuilds the vocabulary.
func (t *Tokenizer) Train(corpus string) error {
	words := splitWords([]byte(corpus))
	if len(words) == 0 {
		return tokenizer.ErrEmptyCorpus
	}

	c := bpe.NewCorpus()
	for _, w := range words {
		c.Add(wordTokens(w), 1)
	}

	tr := bpe.Trainer{
		NumMerges: t.opts.NumMerges,
		MinFreq:   t.opts.MinFreq,
		Strategy:  t.opts.Strategy,
		Logger:    t.opts.Observer.Log().With("tokenizer", string(tokenizer.KindByteBPE)),
		Progress:  t.opts.Observer.Progress,
		Format:    vocab.ByteLevel.EncodeToken,
	}
	res := tr.Train(c)

	t.state.Store(&state{merges: res.Merges, vocab: buildVocab(res, t.opts.UnknownPolicy)})

	return nil
}

// buildVocab lays out ids as: unknown token, the 256 single bytes, <eow>,
// tokens first seen in the final words, then unused merge results.
func buildVocab(res bpe.Result, policy vocab.UnknownPolicy) *vocab.Vocabulary {
	tokens := make([]string, 0, 256+1)
	for b := 0; b < 256; b++ {
		tokens = append(tokens, string([]byte{byte(b)}))
	}

	tokens = append(tokens, tokenizer.EndOfWord)

	for _, w := range res.Words {
		tokens = append(tokens, w.Tokens...)
	}

	for _, m := range res.Merges {
		tokens = append(tokens, m.Replacement)
	}

	return vocab.New(tokens, policy)
}

func isASCIISpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return false
}

// splitWords cuts b into runs of non-whitespace bytes. Only ASCII
// whitespace separates words, so multi-byte sequences are never inspected.
// A literal <eow> separates words like whitespace does.
func splitWords(b []byte) [][]byte {
	var words [][]byte

	emit := func(w []byte) {
		for _, part := range bytes.Split(w, []byte(tokenizer.EndOfWord)) {
			if len(part) > 0 {
				words = append(words, part)
			}
		}
	}

	start := -1
	for i, c := range b {
		if isASCIISpace(c) {
			if start >= 0 {
				emit(b[start:i])
				start = -1
			}
			continue
		}

		if start < 0 {
			start = i
		}
	}

	if start >= 0 {
		emit(b[start:])
	}

	return words
}

func wordTokens(word []byte) []string {
	tokens := make([]string, 0, len(word)+1)
	for _, b := range word {
		tokens = append(tokens, string([]byte{b}))
	}

	return append(tokens, tokenizer.EndOfWord)
}

// Tokenize splits text into whitespace-delimited byte runs and applies every
// merge rule in training order to each of them.
func (t *Tokenizer) Tokenize(s string) ([]string, error) {
	st := t.state.Load()

	var out []string
	for _, w := range splitWords([]byte(s)) {
		out = append(out, bpe.ApplyAll(wordTokens(w), st.merges)...)
	}

	return out, nil
}

// DetokenizeBytes reassembles the raw bytes of tokens: a token ending in
// <eow> closes a word and words are separated by a single space.
func (t *Tokenizer) DetokenizeBytes(tokens []string) []byte {
	var out, word []byte

	flush := func() {
		if len(word) == 0 {
			return
		}

		if len(out) > 0 {
			out = append(out, ' ')
		}

		out = append(out, word...)
		word = word[:0]
	}

	for _, tok := range tokens {
		head, closes := strings.CutSuffix(tok, tokenizer.EndOfWord)
		word = append(word, head...)

		if closes {
			flush()
		}
	}

	flush()

	return out
}

// Detokenize decodes the reassembled bytes as UTF-8. Invalid sequences, for
// instance a character cut in half by a token boundary, become U+FFFD.
func (t *Tokenizer) Detokenize(tokens []string) string {
	raw := t.DetokenizeBytes(tokens)
	return string(bytes.ToValidUTF8(raw, []byte("\uFFFD")))
}

// Encode tokenizes text and maps the tokens to ids.
func (t *Tokenizer) Encode(s string) ([]int, error) {
	tokens, err := t.Tokenize(s)
	if err != nil {
		return nil, err
	}

	return t.state.Load().vocab.IDs(tokens)
}

// Decode maps ids to tokens and detokenizes them.
func (t *Tokenizer) Decode(ids []int) (string, error) {
	tokens, err := t.state.Load().vocab.Tokens(ids)
	if err != nil {
		return "", err
	}

	return t.Detokenize(tokens), nil
}

// VocabSize returns the number of ids, the unknown token included.
func (t *Tokenizer) VocabSize() int { return t.state.Load().vocab.Size() }

// Merges returns a copy of the learned rules in application order.
func (t *Tokenizer) Merges() []bpe.Merge {
	return append([]bpe.Merge(nil), t.state.Load().merges...)
}

// Vocabulary returns the current vocabulary.
func (t *Tokenizer) Vocabulary() *vocab.Vocabulary { return t.state.Load().vocab }

// Snapshot returns the persisted form of the trained state with every token
// passed through the byte-level codec.
func (t *Tokenizer) Snapshot() (*vocab.Document, error) {
	st := t.state.Load()

	doc := &vocab.Document{
		Kind:      string(tokenizer.KindByteBPE),
		TokenToID: st.vocab.Mapping(),
		Merges:    bpe.Entries(st.merges),
	}

	return doc.Encode(vocab.ByteLevel), nil
}

// Restore replaces the trained state with doc.
func (t *Tokenizer) Restore(doc *vocab.Document) error {
	if err := doc.Validate(string(tokenizer.KindByteBPE), true, false); err != nil {
		return err
	}

	decoded, err := doc.Decode(vocab.ByteLevel)
	if err != nil {
		return err
	}

	v, err := vocab.FromMapping(decoded.TokenToID, t.opts.UnknownPolicy)
	if err != nil {
		return err
	}

	t.state.Store(&state{merges: bpe.FromEntries(decoded.Merges), vocab: v})

	return nil
}

// Save writes the vocabulary and merge rules to path.
func (t *Tokenizer) Save(path string) error {
	doc, err := t.Snapshot()
	if err != nil {
		return err
	}

	return vocab.WriteFile(path, doc)
}

// Load replaces the trained state with the document at path.
func (t *Tokenizer) Load(path string) error {
	doc, err := vocab.ReadFile(path)
	if err != nil {
		return err
	}

	if err := t.Restore(doc); err != nil {
		return fmt.Errorf("load %q: %w", path, err)
	}

	return nil
}
