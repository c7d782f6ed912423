package text

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxRunes int
		want     []string
	}{
		{
			name:     "single sentence no split needed",
			text:     "Hello world.",
			maxRunes: 100,
			want:     []string{"Hello world."},
		},
		{
			name:     "two sentences within limit",
			text:     "Hello. World.",
			maxRunes: 100,
			want:     []string{"Hello. World."},
		},
		{
			name:     "two sentences exceeding limit",
			text:     "Hello. World.",
			maxRunes: 8,
			want:     []string{"Hello.", "World."},
		},
		{
			name:     "mixed sentence terminators",
			text:     "First. Second! Third?",
			maxRunes: 10,
			want:     []string{"First.", "Second!", "Third?"},
		},
		{
			name:     "fullwidth terminators counted in characters",
			text:     "仲尼居，曾子侍。汝知之乎？",
			maxRunes: 8,
			want:     []string{"仲尼居，曾子侍。", "汝知之乎？"},
		},
		{
			name:     "newlines end sentences",
			text:     "low lower\nnewest widest\r\n",
			maxRunes: 12,
			want:     []string{"low lower", "newest widest"},
		},
		{
			name:     "groups consecutive sentences within limit",
			text:     "A. B. C. D.",
			maxRunes: 6,
			want:     []string{"A. B.", "C. D."},
		},
		{
			name:     "zero limit joins sentences",
			text:     "First.\nSecond.  Third.",
			maxRunes: 0,
			want:     []string{"First. Second. Third."},
		},
		{
			name:     "long sentence stays intact",
			text:     "This is a very long sentence.",
			maxRunes: 5,
			want:     []string{"This is a very long sentence."},
		},
		{
			name:     "whitespace only",
			text:     " \n\t ",
			maxRunes: 10,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.maxRunes)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Chunk(%q, %d) = %q; want %q", tt.text, tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestChunk_RespectsLimitForShortSentences(t *testing.T) {
	text := "One. Two. Three! Four? Five. 六。七。"

	for _, c := range Chunk(text, 10) {
		if strings.TrimSpace(c) == "" {
			t.Error("empty chunk")
		}

		if n := utf8.RuneCountInString(c); n > 10 {
			t.Errorf("chunk %q has %d characters; want <= 10", c, n)
		}
	}
}
