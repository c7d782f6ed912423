package text

import (
	"strings"
	"unicode/utf8"
)

// Chunk splits text into sample inputs at sentence boundaries, grouping
// consecutive sentences while each chunk stays within maxRunes characters.
// Newlines and the terminators . ! ? 。 ！ ？ end a sentence. Sentences
// longer than maxRunes are kept whole. If maxRunes is 0 all sentences form
// one chunk. Empty input yields no chunks.
func Chunk(text string, maxRunes int) []string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	if maxRunes <= 0 {
		return []string{strings.Join(sentences, " ")}
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)

	for _, s := range sentences {
		n := utf8.RuneCountInString(s)

		if size > 0 && size+1+n > maxRunes {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}

		if size > 0 {
			current.WriteByte(' ')
			size++
		}

		current.WriteString(s)
		size += n
	}

	if size > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// Sentences splits text after each sentence terminator and at every line
// break, keeping the terminator attached. Empty segments are dropped.
func Sentences(text string) []string {
	var sentences []string

	emit := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	start := 0

	for i, r := range text {
		switch r {
		case '.', '!', '?', '。', '！', '？':
			end := i + utf8.RuneLen(r)
			emit(text[start:end])
			start = end
		case '\n', '\r':
			emit(text[start:i])
			start = i + 1
		}
	}

	emit(text[start:])

	return sentences
}
