package vocab

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Document is the persisted form of a trained tokenizer. Merges is ordered:
// its order is the application order and must survive a round trip.
//
// A nil Merges or Pieces slice means the field was absent from the file;
// an empty slice means it was present and empty.
type Document struct {
	Kind           string         `json:"kind,omitempty"`
	TokenToID      map[string]int `json:"token_to_id"`
	Merges         []MergeEntry   `json:"merges"`
	Pieces         []PieceEntry   `json:"pieces,omitempty"`
	MaxPieceLength int            `json:"max_piece_length,omitempty"`
}

// MergeEntry is one persisted merge rule.
type MergeEntry struct {
	Pair        [2]string `json:"pair"`
	Replacement string    `json:"replacement"`
}

// PieceEntry is one persisted Unigram piece.
type PieceEntry struct {
	Piece string  `json:"piece"`
	Score float64 `json:"score"`
	Base  bool    `json:"base,omitempty"`
}

// Encode returns a copy of d with every token passed through codec.EncodeToken.
func (d *Document) Encode(codec TokenCodec) *Document {
	out := &Document{Kind: d.Kind, MaxPieceLength: d.MaxPieceLength}

	if d.TokenToID != nil {
		out.TokenToID = make(map[string]int, len(d.TokenToID))
		for tok, id := range d.TokenToID {
			out.TokenToID[codec.EncodeToken(tok)] = id
		}
	}

	if d.Merges != nil {
		out.Merges = make([]MergeEntry, len(d.Merges))
		for i, m := range d.Merges {
			out.Merges[i] = MergeEntry{
				Pair:        [2]string{codec.EncodeToken(m.Pair[0]), codec.EncodeToken(m.Pair[1])},
				Replacement: codec.EncodeToken(m.Replacement),
			}
		}
	}

	if d.Pieces != nil {
		out.Pieces = make([]PieceEntry, len(d.Pieces))
		for i, p := range d.Pieces {
			out.Pieces[i] = PieceEntry{Piece: codec.EncodeToken(p.Piece), Score: p.Score, Base: p.Base}
		}
	}

	return out
}

// Decode is the inverse of Encode.
func (d *Document) Decode(codec TokenCodec) (*Document, error) {
	out := &Document{Kind: d.Kind, MaxPieceLength: d.MaxPieceLength}

	if d.TokenToID != nil {
		out.TokenToID = make(map[string]int, len(d.TokenToID))
		for s, id := range d.TokenToID {
			tok, err := codec.DecodeToken(s)
			if err != nil {
				return nil, err
			}

			if _, dup := out.TokenToID[tok]; dup {
				return nil, fmt.Errorf("%w: duplicate token %q", ErrMalformedVocab, s)
			}

			out.TokenToID[tok] = id
		}
	}

	if d.Merges != nil {
		out.Merges = make([]MergeEntry, len(d.Merges))
		for i, m := range d.Merges {
			var entry MergeEntry
			var err error

			for j := range m.Pair {
				if entry.Pair[j], err = codec.DecodeToken(m.Pair[j]); err != nil {
					return nil, err
				}
			}

			if entry.Replacement, err = codec.DecodeToken(m.Replacement); err != nil {
				return nil, err
			}

			out.Merges[i] = entry
		}
	}

	if d.Pieces != nil {
		out.Pieces = make([]PieceEntry, len(d.Pieces))
		for i, p := range d.Pieces {
			piece, err := codec.DecodeToken(p.Piece)
			if err != nil {
				return nil, err
			}

			out.Pieces[i] = PieceEntry{Piece: piece, Score: p.Score, Base: p.Base}
		}
	}

	return out, nil
}

// Validate checks the fields a document of the given kind must carry.
// BPE kinds need merges, unigram needs pieces; every kind needs token_to_id.
func (d *Document) Validate(kind string, needMerges, needPieces bool) error {
	if d.Kind != "" && d.Kind != kind {
		return fmt.Errorf("%w: document kind %q, want %q", ErrMalformedVocab, d.Kind, kind)
	}

	if d.TokenToID == nil {
		return fmt.Errorf("%w: missing token_to_id", ErrMalformedVocab)
	}

	if needMerges && d.Merges == nil {
		return fmt.Errorf("%w: missing merges", ErrMalformedVocab)
	}

	if needPieces && len(d.Pieces) == 0 {
		return fmt.Errorf("%w: missing pieces", ErrMalformedVocab)
	}

	return nil
}

// Marshal renders d as indented JSON without HTML escaping, so tokens such as
// "<eow>" stay readable.
func Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode vocab document: %w", err)
	}

	return buf.Bytes(), nil
}

// Unmarshal parses a document. Syntax errors are reported as ErrMalformedVocab.
func Unmarshal(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedVocab, err)
	}

	return &d, nil
}

// WriteFile saves d to path. The file is always closed; a close failure is
// reported alongside any write failure.
func WriteFile(path string, d *Document) (err error) {
	data, err := Marshal(d)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vocab %q: %w", path, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close vocab %q: %w", path, cerr))
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write vocab %q: %w", path, err)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write vocab %q: %w", path, err)
	}

	return nil
}

// ReadFile loads a document from path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab %q: %w", path, err)
	}
	defer func() { _ = f.Close() }() // read-only; close error carries no data loss

	var d Document

	dec := json.NewDecoder(bufio.NewReader(f))
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: decode %q: %w", ErrMalformedVocab, path, err)
	}

	return &d, nil
}
