// Package unigram implements a SentencePiece-style Unigram segmenter. Training
// seeds a large candidate piece set and alternates Viterbi segmentation with
// frequency-based pruning; inference re-runs the Viterbi pass with the final
// scores.
package unigram

import (
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/example/go-subword/internal/tokenizer"
	"github.com/example/go-subword/internal/vocab"
)

// Options configures training and the unknown-token policy.
type Options struct {
	VocabSize      int
	MaxPieceLength int
	PruningFactor  int
	EMIterations   int
	UnknownPolicy  vocab.UnknownPolicy
	Observer       tokenizer.Observer
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		VocabSize:      8000,
		MaxPieceLength: 6,
		PruningFactor:  2,
		EMIterations:   5,
	}
}

// Piece is a vocabulary entry. Score is -log of its estimated probability,
// so lower is better. Base pieces are single characters and survive pruning.
type Piece struct {
	Text  string
	Score float64
	Base  bool
}

type model struct {
	pieces []Piece
	trie   *trie
	maxLen int
	vocab  *vocab.Vocabulary
}

func newModel(pieces []Piece, maxLen int, policy vocab.UnknownPolicy) *model {
	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
		maxLen = max(maxLen, utf8.RuneCountInString(p.Text))
	}

	return &model{
		pieces: pieces,
		trie:   newTrie(pieces),
		maxLen: maxLen,
		vocab:  vocab.New(texts, policy),
	}
}

func (m *model) segment(sentence string) []string {
	runes := []rune(sentence)
	spans := viterbi(runes, m.pieces, m.trie, m.maxLen)

	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = string(runes[sp.start:sp.end])
	}

	return out
}

// Tokenizer is a Unigram engine. It must be trained, loaded or restored
// before Tokenize, Encode or Decode can be used.
type Tokenizer struct {
	opts  Options
	model atomic.Pointer[model]
}

var _ tokenizer.Tokenizer = (*Tokenizer)(nil)

// New returns an untrained tokenizer.
func New(opts Options) *Tokenizer {
	return &Tokenizer{opts: opts}
}

// Train normalizes corpus line by line, seeds the candidate pieces and runs
// the configured number of EM rounds.
func (t *Tokenizer) Train(corpus string) error {
	sentences := Sentences(corpus)
	if len(sentences) == 0 {
		return tokenizer.ErrEmptyCorpus
	}

	if t.opts.MaxPieceLength < 1 {
		return fmt.Errorf("max piece length must be positive, got %d", t.opts.MaxPieceLength)
	}

	runes := make([][]rune, len(sentences))
	for i, s := range sentences {
		runes[i] = []rune(s)
	}

	log := t.opts.Observer.Log().With("tokenizer", string(tokenizer.KindUnigram))

	pieces := seed(runes, t.opts.MaxPieceLength, t.opts.VocabSize*t.opts.PruningFactor)
	log.Debug("seeded candidate pieces", "sentences", len(sentences), "pieces", len(pieces))

	for round := 1; round <= t.opts.EMIterations; round++ {
		pieces = emRound(runes, pieces, t.opts.MaxPieceLength, t.opts.VocabSize)

		log.Debug("em round", "round", round, "pieces", len(pieces))
		t.opts.Observer.Report(round, t.opts.EMIterations)
	}

	m := newModel(pieces, t.opts.MaxPieceLength, t.opts.UnknownPolicy)
	t.model.Store(m)

	log.Info("unigram training finished",
		"sentences", len(sentences),
		"pieces", len(pieces),
		"vocab_size", m.vocab.Size(),
		"em_iterations", t.opts.EMIterations,
	)

	return nil
}

func (t *Tokenizer) trained() (*model, error) {
	m := t.model.Load()
	if m == nil {
		return nil, tokenizer.ErrUntrained
	}

	return m, nil
}

// Tokenize segments every line of text into pieces.
func (t *Tokenizer) Tokenize(s string) ([]string, error) {
	m, err := t.trained()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, sentence := range Sentences(s) {
		out = append(out, m.segment(sentence)...)
	}

	return out, nil
}

// Detokenize concatenates pieces and turns boundary markers back into spaces.
func (t *Tokenizer) Detokenize(tokens []string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.Join(tokens, ""), Boundary, " "))
}

// Encode tokenizes text and maps the pieces to ids. Fallback characters that
// are not pieces are unknown tokens.
func (t *Tokenizer) Encode(s string) ([]int, error) {
	m, err := t.trained()
	if err != nil {
		return nil, err
	}

	tokens, err := t.Tokenize(s)
	if err != nil {
		return nil, err
	}

	return m.vocab.IDs(tokens)
}

// Decode maps ids to pieces and detokenizes them.
func (t *Tokenizer) Decode(ids []int) (string, error) {
	m, err := t.trained()
	if err != nil {
		return "", err
	}

	tokens, err := m.vocab.Tokens(ids)
	if err != nil {
		return "", err
	}

	return t.Detokenize(tokens), nil
}

// VocabSize returns the number of ids, or 0 before training.
func (t *Tokenizer) VocabSize() int {
	m := t.model.Load()
	if m == nil {
		return 0
	}

	return m.vocab.Size()
}

// Pieces returns a copy of the trained pieces in id order, starting at id 1.
func (t *Tokenizer) Pieces() []Piece {
	m := t.model.Load()
	if m == nil {
		return nil
	}

	return append([]Piece(nil), m.pieces...)
}

// Vocabulary returns the current vocabulary, or nil before training.
func (t *Tokenizer) Vocabulary() *vocab.Vocabulary {
	m := t.model.Load()
	if m == nil {
		return nil
	}

	return m.vocab
}

// Snapshot returns the persisted form of the trained pieces.
func (t *Tokenizer) Snapshot() (*vocab.Document, error) {
	m, err := t.trained()
	if err != nil {
		return nil, err
	}

	doc := &vocab.Document{
		Kind:           string(tokenizer.KindUnigram),
		TokenToID:      m.vocab.Mapping(),
		Merges:         []vocab.MergeEntry{},
		Pieces:         make([]vocab.PieceEntry, len(m.pieces)),
		MaxPieceLength: m.maxLen,
	}
	for i, p := range m.pieces {
		doc.Pieces[i] = vocab.PieceEntry{Piece: p.Text, Score: p.Score, Base: p.Base}
	}

	return doc, nil
}

// Restore replaces the trained pieces with doc. Every piece must own an id
// in token_to_id.
func (t *Tokenizer) Restore(doc *vocab.Document) error {
	if err := doc.Validate(string(tokenizer.KindUnigram), false, true); err != nil {
		return err
	}

	v, err := vocab.FromMapping(doc.TokenToID, t.opts.UnknownPolicy)
	if err != nil {
		return err
	}

	pieces := make([]Piece, len(doc.Pieces))
	for i, e := range doc.Pieces {
		if e.Piece == "" {
			return fmt.Errorf("%w: empty piece at index %d", vocab.ErrMalformedVocab, i)
		}

		if !v.Contains(e.Piece) {
			return fmt.Errorf("%w: piece %q has no id", vocab.ErrMalformedVocab, e.Piece)
		}

		pieces[i] = Piece{Text: e.Piece, Score: e.Score, Base: e.Base}
	}

	m := newModel(pieces, doc.MaxPieceLength, t.opts.UnknownPolicy)
	m.vocab = v
	t.model.Store(m)

	return nil
}

// Save writes the trained pieces to path.
func (t *Tokenizer) Save(path string) error {
	doc, err := t.Snapshot()
	if err != nil {
		return err
	}

	return vocab.WriteFile(path, doc)
}

// Load replaces the trained pieces with the document at path.
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
