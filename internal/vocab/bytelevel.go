package vocab

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TokenCodec converts tokens to and from the form stored in a Document.
type TokenCodec interface {
	EncodeToken(tok string) string
	DecodeToken(s string) (string, error)
}

// Identity stores tokens verbatim. It is used by engines whose tokens are
// always valid UTF-8.
var Identity TokenCodec = identityCodec{}

type identityCodec struct{}

func (identityCodec) EncodeToken(tok string) string        { return tok }
func (identityCodec) DecodeToken(s string) (string, error) { return s, nil }

// ByteLevel stores raw-byte tokens using the GPT-2 byte -> rune table, so every
// byte value becomes a printable rune and the JSON stays valid UTF-8.
var ByteLevel TokenCodec = newByteLevelCodec()

type byteLevelCodec struct {
	encoder [256]rune
	decoder map[rune]byte
}

// newByteLevelCodec replays the GPT-2 assignment: printable Latin-1 bytes map
// to themselves, the remaining bytes take stand-ins from 256 upward.
func newByteLevelCodec() *byteLevelCodec {
	var bs []int
	for b := 33; b <= 126; b++ {
		bs = append(bs, b)
	}
	for b := 161; b <= 172; b++ {
		bs = append(bs, b)
	}
	for b := 174; b <= 255; b++ {
		bs = append(bs, b)
	}

	printable := make(map[int]bool, len(bs))
	for _, b := range bs {
		printable[b] = true
	}

	c := &byteLevelCodec{decoder: make(map[rune]byte, 256)}
	next := 256
	for b := 0; b < 256; b++ {
		r := rune(b)
		if !printable[b] {
			r = rune(next)
			next++
		}

		c.encoder[b] = r
		c.decoder[r] = byte(b)
	}

	return c
}

func (c *byteLevelCodec) EncodeToken(tok string) string {
	var sb strings.Builder
	sb.Grow(len(tok) * 2)

	for i := 0; i < len(tok); i++ {
		sb.WriteRune(c.encoder[tok[i]])
	}

	return sb.String()
}

// DecodeToken walks the runes of s; a rune from the table stands for one raw
// byte, anything else is taken literally as its UTF-8 bytes.
func (c *byteLevelCodec) DecodeToken(s string) (string, error) {
	out := make([]byte, 0, len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			return "", fmt.Errorf("%w: invalid utf8 in token string at %q", ErrMalformedVocab, s)
		}

		if b, ok := c.decoder[r]; ok {
			out = append(out, b)
		} else {
			out = utf8.AppendRune(out, r)
		}

		s = s[size:]
	}

	return string(out), nil
}
