package bytebpe

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/example/go-subword/internal/bpe"
	"github.com/example/go-subword/internal/testutil"
	"github.com/example/go-subword/internal/tokenizer"
	"github.com/example/go-subword/internal/vocab"
)

func trainedOn(t *testing.T, corpus string, opts Options) *Tokenizer {
	t.Helper()

	tok := New(opts)
	if err := tok.Train(corpus); err != nil {
		t.Fatalf("Train: %v", err)
	}

	return tok
}

func hasReplacement(merges []bpe.Merge, repl string) bool {
	for _, m := range merges {
		if m.Replacement == repl {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Training and tokenization
// ---------------------------------------------------------------------------

func TestTokenize_CJKBytesReassemble(t *testing.T) {
	tok := trainedOn(t, testutil.CJKCorpus, DefaultOptions())

	tokens, err := tok.Tokenize("你好")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	if got := strings.Join(tokens, ""); got != "你好<eow>" {
		t.Errorf("joined tokens = %q; want %q", got, "你好<eow>")
	}

	if len(tok.Merges()) > DefaultOptions().NumMerges {
		t.Errorf("merges = %d; want <= %d", len(tok.Merges()), DefaultOptions().NumMerges)
	}
}

func TestTrain_LearnsMultiByteCharacters(t *testing.T) {
	tok := trainedOn(t, "之 之 之 。 。 。", DefaultOptions())

	merges := tok.Merges()
	if !hasReplacement(merges, "之") {
		t.Errorf("missing merge producing 之 in %q", merges)
	}
	if !hasReplacement(merges, "。") {
		t.Errorf("missing merge producing 。 in %q", merges)
	}

	tokens, _ := tok.Tokenize("之")
	if want := []string{"之<eow>"}; !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokenize(之) = %q; want %q", tokens, want)
	}
}

func TestTrain_EnglishMatchesWordLevel(t *testing.T) {
	tok := trainedOn(t, testutil.EnglishCorpus, DefaultOptions())

	got, err := tok.Tokenize("lower")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if want := []string{"low", "e", "r", "<eow>"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(lower) = %q; want %q", got, want)
	}
}

func TestTokenize_OnlyASCIIWhitespaceSplits(t *testing.T) {
	tok := New(DefaultOptions())

	// U+3000 ideographic space is not a separator for raw bytes.
	got, _ := tok.Tokenize("a\u3000b c")
	if n := strings.Count(strings.Join(got, ""), tokenizer.EndOfWord); n != 2 {
		t.Errorf("words = %d; want 2 (%q)", n, got)
	}
}

// ---------------------------------------------------------------------------
// Detokenize
// ---------------------------------------------------------------------------

func TestDetokenize_RawBytes(t *testing.T) {
	tok := New(DefaultOptions())

	got := tok.Detokenize([]string{"\xE4", "\xBD", "\xA0", "\xE5", "\xA5", "\xBD", "<eow>"})
	if got != "你好" {
		t.Errorf("Detokenize = %q; want 你好", got)
	}
}

func TestDetokenize_InvalidUTF8IsReplaced(t *testing.T) {
	tok := New(DefaultOptions())

	tokens := []string{"\xE4", "\xBD", "<eow>", "ok", "<eow>"}

	got := tok.Detokenize(tokens)
	if got != "\uFFFD ok" {
		t.Errorf("Detokenize = %q; want %q", got, "\uFFFD ok")
	}

	raw := tok.DetokenizeBytes(tokens)
	if !bytes.Equal(raw, []byte("\xE4\xBD ok")) {
		t.Errorf("DetokenizeBytes = %q", raw)
	}
}

func TestDetokenize_MergedMarkerClosesWord(t *testing.T) {
	tok := New(DefaultOptions())

	got := tok.Detokenize([]string{"new", "est<eow>", "low<eow>"})
	if got != "newest low" {
		t.Errorf("Detokenize = %q; want %q", got, "newest low")
	}
}

func TestTokenize_LiteralMarkerSeparatesWords(t *testing.T) {
	opts := DefaultOptions()
	opts.NumMerges = 50
	opts.MinFreq = 1

	tok := New(opts)
	if err := tok.Train("x<eow>y x<eow>y x<eow>y"); err != nil {
		t.Fatalf("Train: %v", err)
	}

	for _, m := range tok.Merges() {
		head, _ := strings.CutSuffix(m.Replacement, tokenizer.EndOfWord)
		if strings.Contains(head, tokenizer.EndOfWord) {
			t.Errorf("merge %v embeds the marker inside a word", m)
		}
	}

	got, err := tok.Tokenize("x<eow>y")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if text := tok.Detokenize(got); text != "x y" {
		t.Errorf("Detokenize(%q) = %q; want %q", got, text, "x y")
	}
}

func TestEncodeDecode_ArbitraryBytes(t *testing.T) {
	opts := DefaultOptions()
	opts.UnknownPolicy = vocab.Fail
	tok := trainedOn(t, testutil.MixedCorpus, opts)

	in := "abc \x00\xff\xfe 東京"
	ids, err := tok.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tokens, err := tok.Vocabulary().Tokens(ids)
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}

	if raw := tok.DetokenizeBytes(tokens); !bytes.Equal(raw, []byte(in)) {
		t.Errorf("bytes = %q; want %q", raw, in)
	}
}

func TestNew_VocabularyHoldsEveryByte(t *testing.T) {
	tok := New(DefaultOptions())

	// unknown + 256 bytes + <eow>
	if tok.VocabSize() != 258 {
		t.Fatalf("VocabSize = %d; want 258", tok.VocabSize())
	}

	id, _ := tok.Vocabulary().ID("\x00")
	if id != 1 {
		t.Errorf("id of byte 0 = %d; want 1", id)
	}
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func TestSaveLoad_RoundTrip(t *testing.T) {
	src := trainedOn(t, testutil.CJKCorpus+testutil.MixedCorpus, DefaultOptions())

	dst := New(DefaultOptions())
	testutil.AssertRoundTrip(t, src, dst, testutil.Samples)

	if !reflect.DeepEqual(dst.Merges(), src.Merges()) {
		t.Errorf("merge order changed:\n got %q\nwant %q", dst.Merges(), src.Merges())
	}
}

func TestSave_DocumentIsValidUTF8(t *testing.T) {
	src := trainedOn(t, testutil.CJKCorpus, DefaultOptions())
	path := filepath.Join(t.TempDir(), "vocab.json")

	if err := src.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(data), `"kind": "byte-bpe"`) {
		t.Errorf("document missing kind:\n%s", data)
	}
	if !strings.Contains(string(data), `"<|unk|>": 0`) {
		t.Errorf("document missing unknown token at id 0")
	}
}

func TestLoad_RejectsWordDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "word.json")
	body := `{"kind": "word-bpe", "token_to_id": {"<|unk|>": 0}, "merges": []}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	tok := New(DefaultOptions())
	if err := tok.Load(path); !errors.Is(err, tokenizer.ErrMalformedVocab) {
		t.Errorf("Load err = %v; want ErrMalformedVocab", err)
	}
}

func TestTrain_EmptyCorpus(t *testing.T) {
	tok := New(DefaultOptions())

	if err := tok.Train("\n \t"); !errors.Is(err, tokenizer.ErrEmptyCorpus) {
		t.Errorf("Train err = %v; want ErrEmptyCorpus", err)
	}
	if tok.VocabSize() != 258 {
		t.Errorf("failed Train changed vocabulary size to %d", tok.VocabSize())
	}
}
