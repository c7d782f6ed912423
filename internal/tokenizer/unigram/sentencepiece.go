package unigram

import (
	"errors"
	"fmt"
	"os"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"

	"github.com/example/go-subword/internal/vocab"
)

// ErrEmptyPath is returned when a SentencePiece model path is empty.
var ErrEmptyPath = errors.New("sentencepiece model path must not be empty")

// MarshalSentencePiece renders the trained pieces as a SentencePiece
// ModelProto. Piece ids match Encode: id 0 is the unknown piece and scores
// are stored as log-probabilities.
func (t *Tokenizer) MarshalSentencePiece() ([]byte, error) {
	m, err := t.trained()
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(m.pieces))
	for _, p := range m.pieces {
		scores[p.Text] = p.Score
	}

	ordered := m.vocab.Ordered()
	model := &gosp.ModelProto{Pieces: make([]*gosp.ModelProto_SentencePiece, len(ordered))}

	for id, tok := range ordered {
		sp := &gosp.ModelProto_SentencePiece{
			Piece: proto.String(tok),
			Score: proto.Float32(float32(-scores[tok])),
			Type:  gosp.ModelProto_SentencePiece_NORMAL.Enum(),
		}

		if id == vocab.UnknownID {
			sp.Score = proto.Float32(0)
			sp.Type = gosp.ModelProto_SentencePiece_UNKNOWN.Enum()
		}

		model.Pieces[id] = sp
	}

	data, err := proto.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("marshal sentencepiece model: %w", err)
	}

	return data, nil
}

// ExportSentencePiece writes the trained pieces as a SentencePiece model file.
func (t *Tokenizer) ExportSentencePiece(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	data, err := t.MarshalSentencePiece()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sentencepiece model %q: %w", path, err)
	}

	return nil
}

// UnmarshalSentencePiece replaces the trained pieces with the NORMAL and
// USER_DEFINED pieces of a SentencePiece ModelProto. Control and unknown
// pieces are skipped; ids are reassigned after the unknown token.
func (t *Tokenizer) UnmarshalSentencePiece(data []byte) error {
	if len(data) == 0 {
		return errors.New("sentencepiece model data must not be empty")
	}

	var model gosp.ModelProto
	if err := proto.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("unmarshal sentencepiece model: %w", err)
	}

	var pieces []Piece
	seen := make(map[string]bool)

	for _, sp := range model.GetPieces() {
		switch sp.GetType() {
		case gosp.ModelProto_SentencePiece_NORMAL, gosp.ModelProto_SentencePiece_USER_DEFINED:
		default:
			continue
		}

		text := sp.GetPiece()
		if text == "" || text == vocab.UnknownToken || seen[text] {
			continue
		}

		seen[text] = true
		pieces = append(pieces, Piece{
			Text:  text,
			Score: -float64(sp.GetScore()),
			Base:  len([]rune(text)) == 1,
		})
	}

	if len(pieces) == 0 {
		return fmt.Errorf("%w: sentencepiece model has no usable pieces", vocab.ErrMalformedVocab)
	}

	t.model.Store(newModel(pieces, 0, t.opts.UnknownPolicy))

	return nil
}

// ImportSentencePiece loads a SentencePiece model file as the trained state.
func (t *Tokenizer) ImportSentencePiece(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sentencepiece model %q: %w", path, err)
	}

	if err := t.UnmarshalSentencePiece(data); err != nil {
		return fmt.Errorf("import %q: %w", path, err)
	}

	return nil
}
