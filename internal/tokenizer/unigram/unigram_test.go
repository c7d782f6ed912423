package unigram

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/example/go-subword/internal/testutil"
	"github.com/example/go-subword/internal/text"
	"github.com/example/go-subword/internal/tokenizer"
	"github.com/example/go-subword/internal/vocab"
)

func smallOptions() Options {
	opts := DefaultOptions()
	opts.VocabSize = 60
	return opts
}

func trainedOn(t *testing.T, corpus string, opts Options) *Tokenizer {
	t.Helper()

	tok := New(opts)
	if err := tok.Train(corpus); err != nil {
		t.Fatalf("Train: %v", err)
	}

	return tok
}

// ---------------------------------------------------------------------------
// Normalization
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "▁hello▁world"},
		{"  hello \t  world  ", "▁hello▁world"},
		{"\uff48\uff45\uff4c\uff4c\uff4f", "▁hello"},
		{"a\u200bb", "▁ab"},
		{"東京\u3000タワー", "▁東京▁タワー"},
		{"▁already▁normalized", "▁already▁normalized"},
		{" \t ", ""},
		{"", ""},
	}

	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestSentences_DropsEmptyLines(t *testing.T) {
	got := Sentences("one\r\n\n  \ntwo three\n")
	want := []string{"▁one", "▁two▁three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sentences = %q; want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Viterbi
// ---------------------------------------------------------------------------

func TestViterbi_PrefersLowerTotalScore(t *testing.T) {
	pieces := []Piece{
		{Text: "a", Score: 1, Base: true},
		{Text: "b", Score: 1, Base: true},
		{Text: "ab", Score: 1.5},
	}

	spans := viterbi([]rune("abab"), pieces, newTrie(pieces), 2)
	if len(spans) != 2 || spans[0].piece != 2 || spans[1].piece != 2 {
		t.Errorf("spans = %+v; want two ab pieces", spans)
	}
}

func TestViterbi_TieKeepsLongestPiece(t *testing.T) {
	pieces := []Piece{
		{Text: "a", Score: 1, Base: true},
		{Text: "b", Score: 1, Base: true},
		{Text: "ab", Score: 2},
	}

	spans := viterbi([]rune("ab"), pieces, newTrie(pieces), 2)
	if len(spans) != 1 || spans[0].piece != 2 {
		t.Errorf("spans = %+v; want single ab piece on tie", spans)
	}
}

func TestViterbi_FallsBackToSingleCharacters(t *testing.T) {
	pieces := []Piece{{Text: "a", Score: 1, Base: true}}

	spans := viterbi([]rune("axya"), pieces, newTrie(pieces), 1)
	if len(spans) != 4 {
		t.Fatalf("spans = %+v; want 4", spans)
	}
	if spans[1].piece != -1 || spans[2].piece != -1 {
		t.Errorf("unknown characters should be fallback spans: %+v", spans)
	}
	if spans[0].piece != 0 || spans[3].piece != 0 {
		t.Errorf("known characters should use the piece: %+v", spans)
	}
}

// ---------------------------------------------------------------------------
// Training
// ---------------------------------------------------------------------------

func TestTokenize_CoversEverySentence(t *testing.T) {
	corpus := testutil.MixedCorpus + testutil.CJKCorpus
	tok := trainedOn(t, corpus, smallOptions())

	for _, line := range text.Lines(corpus) {
		sentence := Normalize(line)
		if sentence == "" {
			continue
		}

		pieces, err := tok.Tokenize(line)
		if err != nil {
			t.Fatalf("Tokenize: %v", err)
		}

		if joined := strings.Join(pieces, ""); joined != sentence {
			t.Errorf("pieces %q join to %q; want %q", pieces, joined, sentence)
		}

		want := strings.TrimSpace(strings.ReplaceAll(sentence, Boundary, " "))
		if got := tok.Detokenize(pieces); got != want {
			t.Errorf("Detokenize = %q; want %q", got, want)
		}
	}
}

func TestTokenize_UnseenCharactersStillCovered(t *testing.T) {
	tok := trainedOn(t, testutil.MixedCorpus, smallOptions())

	pieces, err := tok.Tokenize("the zebra ☃")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := strings.Join(pieces, ""); got != "▁the▁zebra▁☃" {
		t.Errorf("joined = %q", got)
	}

	ids, err := tok.Encode("☃")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if ids[len(ids)-1] != vocab.UnknownID {
		t.Errorf("ids = %v; want unknown id for snowman", ids)
	}
}

func TestTrain_KeepsBasePiecesAndVocabLimit(t *testing.T) {
	opts := smallOptions()
	tok := trainedOn(t, testutil.MixedCorpus, opts)

	chars := make(map[string]bool)
	for _, s := range Sentences(testutil.MixedCorpus) {
		for _, r := range s {
			chars[string(r)] = true
		}
	}

	pieces := tok.Pieces()
	base := 0
	for _, p := range pieces {
		if p.Base {
			base++
			delete(chars, p.Text)
		}
	}

	if len(chars) != 0 {
		t.Errorf("characters missing from base pieces: %v", chars)
	}
	if len(pieces) > max(opts.VocabSize, base) {
		t.Errorf("pieces = %d; want <= %d", len(pieces), max(opts.VocabSize, base))
	}
	if tok.VocabSize() != len(pieces)+1 {
		t.Errorf("VocabSize = %d; want pieces+1 = %d", tok.VocabSize(), len(pieces)+1)
	}
}

func TestTrain_ScoresAreNegativeLogProbabilities(t *testing.T) {
	tok := trainedOn(t, testutil.MixedCorpus, smallOptions())

	sum := 0.0
	for _, p := range tok.Pieces() {
		if p.Score < 0 || math.IsInf(p.Score, 0) || math.IsNaN(p.Score) {
			t.Fatalf("piece %q has score %v", p.Text, p.Score)
		}
		sum += math.Exp(-p.Score)
	}

	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %v; want 1", sum)
	}
}

func TestTrain_ReportsProgress(t *testing.T) {
	opts := smallOptions()
	opts.EMIterations = 3

	var calls []int
	opts.Observer.Progress = func(done, total int) {
		if total != 3 {
			t.Errorf("total = %d; want 3", total)
		}
		calls = append(calls, done)
	}

	trainedOn(t, testutil.MixedCorpus, opts)

	if !reflect.DeepEqual(calls, []int{1, 2, 3}) {
		t.Errorf("progress calls = %v", calls)
	}
}

func TestTokenize_IsDeterministic(t *testing.T) {
	a := trainedOn(t, testutil.MixedCorpus, smallOptions())
	b := trainedOn(t, testutil.MixedCorpus, smallOptions())

	for _, in := range testutil.Samples {
		ta, _ := a.Tokenize(in)
		tb, _ := b.Tokenize(in)
		if !reflect.DeepEqual(ta, tb) {
			t.Errorf("Tokenize(%q) differs between identical trainings: %q vs %q", in, ta, tb)
		}
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestUntrained(t *testing.T) {
	tok := New(DefaultOptions())

	if _, err := tok.Tokenize("hello"); !errors.Is(err, tokenizer.ErrUntrained) {
		t.Errorf("Tokenize err = %v; want ErrUntrained", err)
	}
	if _, err := tok.Encode("hello"); !errors.Is(err, tokenizer.ErrUntrained) {
		t.Errorf("Encode err = %v; want ErrUntrained", err)
	}
	if _, err := tok.Decode([]int{1}); !errors.Is(err, tokenizer.ErrUntrained) {
		t.Errorf("Decode err = %v; want ErrUntrained", err)
	}
	if err := tok.Save(filepath.Join(t.TempDir(), "v.json")); !errors.Is(err, tokenizer.ErrUntrained) {
		t.Errorf("Save err = %v; want ErrUntrained", err)
	}
	if tok.VocabSize() != 0 {
		t.Errorf("VocabSize = %d; want 0", tok.VocabSize())
	}
}

func TestTrain_EmptyCorpusKeepsModel(t *testing.T) {
	tok := trainedOn(t, testutil.MixedCorpus, smallOptions())
	before := tok.Pieces()

	if err := tok.Train("\n\n   \n"); !errors.Is(err, tokenizer.ErrEmptyCorpus) {
		t.Fatalf("Train err = %v; want ErrEmptyCorpus", err)
	}

	if !reflect.DeepEqual(tok.Pieces(), before) {
		t.Error("failed Train replaced the pieces")
	}
}

func TestEncode_FailPolicy(t *testing.T) {
	opts := smallOptions()
	opts.UnknownPolicy = vocab.Fail
	tok := trainedOn(t, testutil.MixedCorpus, opts)

	if _, err := tok.Encode("☃"); !errors.Is(err, tokenizer.ErrUnknownToken) {
		t.Errorf("Encode err = %v; want ErrUnknownToken", err)
	}
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func TestSaveLoad_RoundTrip(t *testing.T) {
	src := trainedOn(t, testutil.MixedCorpus+testutil.CJKCorpus, smallOptions())
	dst := New(smallOptions())

	testutil.AssertRoundTrip(t, src, dst, testutil.Samples)

	if !reflect.DeepEqual(dst.Pieces(), src.Pieces()) {
		t.Error("pieces changed across save/load")
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"missing pieces": `{"kind": "unigram", "token_to_id": {"<|unk|>": 0, "▁a": 1}, "merges": []}`,
		"piece without id": `{"kind": "unigram", "token_to_id": {"<|unk|>": 0},
			"pieces": [{"piece": "▁a", "score": 1}]}`,
		"bpe document": `{"kind": "word-bpe", "token_to_id": {"<|unk|>": 0}, "merges": []}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".json")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}

			tok := New(DefaultOptions())
			if err := tok.Load(path); !errors.Is(err, tokenizer.ErrMalformedVocab) {
				t.Errorf("Load err = %v; want ErrMalformedVocab", err)
			}
		})
	}
}
