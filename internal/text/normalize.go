// Package text holds the text handling shared by the tokenizer engines and
// the corpus loader: line-ending normalization and CJK-aware segmentation.
package text

import (
	"errors"
	"strings"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

const byteOrderMark = "\ufeff"

// Normalize prepares raw corpus text for training. It drops a leading byte
// order mark, rewrites line endings to \n, trims surrounding whitespace and
// rejects input with nothing left.
func Normalize(s string) (string, error) {
	s = strings.TrimPrefix(s, byteOrderMark)
	s = NormalizeNewlines(s)
	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

// NormalizeNewlines rewrites CRLF and bare CR to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Lines splits s into lines after newline normalization. Empty lines are kept;
// callers decide whether they matter.
func Lines(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(NormalizeNewlines(s), "\n")
}
