// Package testutil provides shared corpora and assertion helpers for the
// tokenizer tests.
//
// Typical usage:
//
//	func TestPersistence(t *testing.T) {
//	    tok := wordbpe.New(wordbpe.DefaultOptions())
//	    _ = tok.Train(testutil.EnglishCorpus)
//	    testutil.AssertRoundTrip(t, tok, wordbpe.New(wordbpe.DefaultOptions()), testutil.Samples)
//	}
package testutil

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/example/go-subword/internal/tokenizer"
)

// EnglishCorpus is the classic merge-induction example corpus.
const EnglishCorpus = "low low low low low lower lower newest newest newest newest newest newest widest widest widest"

// CJKCorpus is the opening chapter of the Classic of Filial Piety.
const CJKCorpus = `仲尼居，曾子侍。子曰：「先王有至德要道，以順天下，民用和睦，上下無怨。汝知之乎？」
曾子避席曰：「參不敏，何足以知之？」
子曰：「夫孝，德之本也，教之所由生也。復坐，吾語汝。身體髮膚，受之父母，不敢毀傷，孝之始也。立身行道，揚名於後世，以顯父母，孝之終也。夫孝，始於事親，中於事君，終於立身。」
大雅云：「無念爾祖，聿脩厥德。」
`

// MixedCorpus combines Latin words, CJK text and punctuation over several lines.
const MixedCorpus = `the quick brown fox jumps over the lazy dog
the lazy dog sleeps in the sun
東京は日本の首都です。
서울은 한국의 수도입니다.
the fox and the dog are friends
`

// Samples are inputs used to compare tokenizers before and after persistence.
var Samples = []string{
	"lower",
	"newest widest",
	"the quick fox",
	"你好，世界",
	"東京の天気",
	"unseen qqq zzz",
	"",
}

// WriteFiles creates every file in files (relative path -> content) under root.
func WriteFiles(tb testing.TB, root string, files map[string]string) {
	tb.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("mkdir %q: %v", filepath.Dir(path), err)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			tb.Fatalf("write %q: %v", path, err)
		}
	}
}

// AssertRoundTrip saves src to a temporary file, loads it into dst and checks
// that both produce identical tokens and ids for every sample.
func AssertRoundTrip(tb testing.TB, src, dst tokenizer.Tokenizer, samples []string) {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "vocab.json")
	if err := src.Save(path); err != nil {
		tb.Fatalf("Save: %v", err)
	}

	if err := dst.Load(path); err != nil {
		tb.Fatalf("Load: %v", err)
	}

	if src.VocabSize() != dst.VocabSize() {
		tb.Errorf("VocabSize = %d after load; want %d", dst.VocabSize(), src.VocabSize())
	}

	for _, in := range samples {
		wantTokens, wantErr := src.Tokenize(in)
		gotTokens, gotErr := dst.Tokenize(in)
		if (wantErr == nil) != (gotErr == nil) || !reflect.DeepEqual(gotTokens, wantTokens) {
			tb.Errorf("Tokenize(%q) after load = %q, %v; want %q, %v", in, gotTokens, gotErr, wantTokens, wantErr)
		}

		wantIDs, wantErr := src.Encode(in)
		gotIDs, gotErr := dst.Encode(in)
		if (wantErr == nil) != (gotErr == nil) || !reflect.DeepEqual(gotIDs, wantIDs) {
			tb.Errorf("Encode(%q) after load = %v, %v; want %v, %v", in, gotIDs, gotErr, wantIDs, wantErr)
		}
	}
}
