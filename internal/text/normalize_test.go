package text

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "corpus line unchanged", input: "low lower newest", want: "low lower newest"},
		{name: "trims file edges", input: "\n\n  the fox \t\n", want: "the fox"},
		{name: "windows corpus file", input: "one\r\ntwo\r\n", want: "one\ntwo"},
		{name: "classic mac line endings", input: "one\rtwo", want: "one\ntwo"},
		{name: "drops byte order mark", input: "\ufeff東京\r\n", want: "東京"},
		{name: "keeps blank lines between paragraphs", input: "a\r\n\r\nb", want: "a\n\nb"},
		{name: "keeps internal spacing", input: "子曰：  學而時習之", want: "子曰：  學而時習之"},
		{name: "empty file", input: "", wantErr: ErrEmptyText},
		{name: "blank file", input: " \r\n\t\n ", wantErr: ErrEmptyText},
		{name: "only byte order mark", input: "\ufeff\n", wantErr: ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLines(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"single", []string{"single"}},
		{"a\r\nb\rc\nd", []string{"a", "b", "c", "d"}},
		{"a\r\nb\rc\n", []string{"a", "b", "c", ""}},
		{"a\n\nb\n", []string{"a", "", "b", ""}},
	}

	for _, tt := range tests {
		if got := Lines(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Lines(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
