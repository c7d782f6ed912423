// Package wordbpe implements character-level byte-pair encoding over
// whitespace-delimited words, with every CJK character treated as a word of
// its own.
package wordbpe

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/example/go-subword/internal/bpe"
	"github.com/example/go-subword/internal/text"
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

// Tokenizer is a word-level BPE engine. Reads are safe while Train, Load or
// Restore swap in a new state.
type Tokenizer struct {
	opts  Options
	state atomic.Pointer[state]
}

var _ tokenizer.Tokenizer = (*Tokenizer)(nil)

// New returns an untrained tokenizer. Until it is trained every word is
// tokenized into its characters and encodes to the unknown id.
func New(opts Options) *Tokenizer {
	t := &Tokenizer{opts: opts}
	t.state.Store(&state{vocab: vocab.New(nil, opts.UnknownPolicy)})

	return t
}

// Train learns merge rules from corpus and rebuilds the vocabulary.
func (t *Tokenizer) Train(corpus string) error {
	words := splitWords(corpus)
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
		Logger:    t.opts.Observer.Log().With("tokenizer", string(tokenizer.KindWordBPE)),
		Progress:  t.opts.Observer.Progress,
	}
	res := tr.Train(c)

	t.state.Store(&state{merges: res.Merges, vocab: buildVocab(res, t.opts.UnknownPolicy)})

	return nil
}

// buildVocab assigns ids in first-seen order over the final words, then
// adds <eow> and any merge result that no longer occurs in the corpus.
func buildVocab(res bpe.Result, policy vocab.UnknownPolicy) *vocab.Vocabulary {
	var tokens []string
	for _, w := range res.Words {
		tokens = append(tokens, w.Tokens...)
	}

	tokens = append(tokens, tokenizer.EndOfWord)

	for _, m := range res.Merges {
		tokens = append(tokens, m.Replacement)
	}

	return vocab.New(tokens, policy)
}

// splitWords pre-segments s around CJK characters and whitespace. A literal
// <eow> in the text separates words like whitespace does.
func splitWords(s string) []string {
	var words []string
	for _, w := range text.SplitWords(s) {
		words = append(words, tokenizer.SplitAtEndOfWord(w)...)
	}

	return words
}

func wordTokens(word string) []string {
	tokens := make([]string, 0, len(word)+1)
	for _, r := range word {
		tokens = append(tokens, string(r))
	}

	return append(tokens, tokenizer.EndOfWord)
}

// Tokenize splits text into words and applies every merge rule in training
// order to each of them.
func (t *Tokenizer) Tokenize(s string) ([]string, error) {
	st := t.state.Load()

	var out []string
	for _, w := range splitWords(s) {
		out = append(out, bpe.ApplyAll(wordTokens(w), st.merges)...)
	}

	return out, nil
}

// Detokenize joins tokens back into text: a token ending in <eow> closes a
// word, words are separated by one space and the spaces around CJK
// characters are removed again.
func (t *Tokenizer) Detokenize(tokens []string) string {
	var words []string
	var buf strings.Builder

	for _, tok := range tokens {
		head, closes := strings.CutSuffix(tok, tokenizer.EndOfWord)
		buf.WriteString(head)

		if !closes || buf.Len() == 0 {
			continue
		}

		words = append(words, buf.String())
		buf.Reset()
	}

	if buf.Len() > 0 {
		words = append(words, buf.String())
	}

	return strings.TrimSpace(text.CollapseCJKSpaces(strings.Join(words, " ")))
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

// Snapshot returns the persisted form of the trained state.
func (t *Tokenizer) Snapshot() (*vocab.Document, error) {
	st := t.state.Load()

	doc := &vocab.Document{
		Kind:      string(tokenizer.KindWordBPE),
		TokenToID: st.vocab.Mapping(),
		Merges:    bpe.Entries(st.merges),
	}

	return doc.Encode(vocab.Identity), nil
}

// Restore replaces the trained state with doc.
func (t *Tokenizer) Restore(doc *vocab.Document) error {
	if err := doc.Validate(string(tokenizer.KindWordBPE), true, false); err != nil {
		return err
	}

	decoded, err := doc.Decode(vocab.Identity)
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
