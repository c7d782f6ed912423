// Package vocab holds the token <-> id bijection shared by every tokenizer
// engine, together with the JSON document used to persist it.
package vocab

import (
	"errors"
	"fmt"
	"strings"
)

// UnknownToken is the reserved token that always owns id 0.
const UnknownToken = "<|unk|>"

// UnknownID is the id of UnknownToken.
const UnknownID = 0

var (
	// ErrUnknownToken is returned when a token or id is absent from the
	// vocabulary and the instance uses the Fail policy.
	ErrUnknownToken = errors.New("unknown token")
	// ErrMalformedVocab is returned when a persisted vocabulary is missing
	// required fields or violates the id invariants.
	ErrMalformedVocab = errors.New("malformed vocabulary")
)

// UnknownPolicy controls what happens when encode/decode meets a token or id
// the vocabulary does not know.
type UnknownPolicy int

const (
	// Substitute maps unknown tokens to UnknownID and unknown ids to UnknownToken.
	Substitute UnknownPolicy = iota
	// Fail surfaces ErrUnknownToken to the caller.
	Fail
)

// String returns the config spelling of the policy.
func (p UnknownPolicy) String() string {
	if p == Fail {
		return "fail"
	}

	return "substitute"
}

// ParsePolicy converts a config value into an UnknownPolicy.
func ParsePolicy(s string) (UnknownPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substitute":
		return Substitute, nil
	case "fail":
		return Fail, nil
	default:
		return Substitute, fmt.Errorf("unknown token policy %q (want substitute|fail)", s)
	}
}

// Vocabulary is an immutable bijection between tokens and the dense id range
// [0, Size()). Id 0 is always UnknownToken.
type Vocabulary struct {
	tokenToID map[string]int
	idToToken []string
	policy    UnknownPolicy
}

// New builds a vocabulary from tokens in first-seen order. UnknownToken is
// placed at id 0 and duplicates are ignored.
func New(tokens []string, policy UnknownPolicy) *Vocabulary {
	v := &Vocabulary{
		tokenToID: make(map[string]int, len(tokens)+1),
		idToToken: make([]string, 0, len(tokens)+1),
		policy:    policy,
	}
	v.add(UnknownToken)

	for _, tok := range tokens {
		v.add(tok)
	}

	return v
}

// FromMapping validates a persisted token_to_id mapping and builds a
// vocabulary from it. Ids must be dense, unique and start with UnknownToken.
func FromMapping(mapping map[string]int, policy UnknownPolicy) (*Vocabulary, error) {
	if mapping == nil {
		return nil, fmt.Errorf("%w: token_to_id is missing", ErrMalformedVocab)
	}

	idToToken := make([]string, len(mapping))
	seen := make([]bool, len(mapping))

	for tok, id := range mapping {
		if id < 0 || id >= len(mapping) {
			return nil, fmt.Errorf("%w: token id out of range: %d", ErrMalformedVocab, id)
		}

		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate token id %d", ErrMalformedVocab, id)
		}

		seen[id] = true
		idToToken[id] = tok
	}

	if len(idToToken) == 0 || idToToken[UnknownID] != UnknownToken {
		return nil, fmt.Errorf("%w: %q must own id %d", ErrMalformedVocab, UnknownToken, UnknownID)
	}

	tokenToID := make(map[string]int, len(mapping))
	for tok, id := range mapping {
		tokenToID[tok] = id
	}

	return &Vocabulary{tokenToID: tokenToID, idToToken: idToToken, policy: policy}, nil
}

func (v *Vocabulary) add(tok string) {
	if _, ok := v.tokenToID[tok]; ok {
		return
	}

	v.tokenToID[tok] = len(v.idToToken)
	v.idToToken = append(v.idToToken, tok)
}

// Size returns the number of tokens, UnknownToken included.
func (v *Vocabulary) Size() int { return len(v.idToToken) }

// Policy returns the unknown-token policy of this vocabulary.
func (v *Vocabulary) Policy() UnknownPolicy { return v.policy }

// WithPolicy returns a copy of v that applies policy. The token tables are shared.
func (v *Vocabulary) WithPolicy(policy UnknownPolicy) *Vocabulary {
	return &Vocabulary{tokenToID: v.tokenToID, idToToken: v.idToToken, policy: policy}
}

// Contains reports whether tok has an id.
func (v *Vocabulary) Contains(tok string) bool {
	_, ok := v.tokenToID[tok]
	return ok
}

// ID returns the id of tok.
func (v *Vocabulary) ID(tok string) (int, error) {
	if id, ok := v.tokenToID[tok]; ok {
		return id, nil
	}

	if v.policy == Fail {
		return 0, fmt.Errorf("%w: %q", ErrUnknownToken, tok)
	}

	return UnknownID, nil
}

// Token returns the token that owns id.
func (v *Vocabulary) Token(id int) (string, error) {
	if id >= 0 && id < len(v.idToToken) {
		return v.idToToken[id], nil
	}

	if v.policy == Fail {
		return "", fmt.Errorf("%w: id %d", ErrUnknownToken, id)
	}

	return UnknownToken, nil
}

// IDs maps a token sequence to ids.
func (v *Vocabulary) IDs(tokens []string) ([]int, error) {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		id, err := v.ID(tok)
		if err != nil {
			return nil, err
		}

		ids[i] = id
	}

	return ids, nil
}

// Tokens maps an id sequence to tokens.
func (v *Vocabulary) Tokens(ids []int) ([]string, error) {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tok, err := v.Token(id)
		if err != nil {
			return nil, err
		}

		tokens[i] = tok
	}

	return tokens, nil
}

// Ordered returns every token in id order.
func (v *Vocabulary) Ordered() []string {
	return append([]string(nil), v.idToToken...)
}

// Mapping returns a fresh token -> id map.
func (v *Vocabulary) Mapping() map[string]int {
	m := make(map[string]int, len(v.tokenToID))
	for tok, id := range v.tokenToID {
		m[tok] = id
	}

	return m
}
