package doctor_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-subword/internal/doctor"
	"github.com/example/go-subword/internal/testutil"
	"github.com/example/go-subword/internal/tokenizer"
	"github.com/example/go-subword/internal/tokenizer/wordbpe"
)

var errBroken = errors.New("broken")

func savedVocab(t *testing.T) string {
	t.Helper()

	tok := wordbpe.New(wordbpe.DefaultOptions())
	if err := tok.Train(testutil.EnglishCorpus); err != nil {
		t.Fatalf("Train: %v", err)
	}

	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := tok.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	return path
}

func openWord(path string) (tokenizer.Tokenizer, error) {
	tok := wordbpe.New(wordbpe.DefaultOptions())
	if err := tok.Load(path); err != nil {
		return nil, err
	}

	return tok, nil
}

func hasFailureContaining(failures []string, substr string) bool {
	for _, f := range failures {
		if strings.Contains(f, substr) {
			return true
		}
	}

	return false
}

// ---------------------------------------------------------------------------
// all-pass scenario
// ---------------------------------------------------------------------------

func TestRun_AllChecksPass(t *testing.T) {
	cfg := doctor.Config{
		Settings:     func() error { return nil },
		CorpusFiles:  func() (int, error) { return 3, nil },
		VocabPath:    savedVocab(t),
		OpenVocab:    openWord,
		Samples:       []string{"lower", "newest widest"},
		StoreEntries: func() (int, error) { return 0, nil },
	}

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	if result.Failed() {
		t.Errorf("expected all checks to pass; failures: %v", result.Failures())
	}

	for _, want := range []string{"config: valid", "corpus: 3 files", "round trip \"lower\"", "store: 0 tokenizers"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	if strings.Contains(out.String(), doctor.FailMark) {
		t.Errorf("output contains a failure mark:\n%s", out.String())
	}
}

func TestRun_NilChecksAreSkipped(t *testing.T) {
	var out strings.Builder
	result := doctor.Run(doctor.Config{}, &out)

	if result.Failed() {
		t.Errorf("empty config failed: %v", result.Failures())
	}

	if got := strings.Count(out.String(), "skipped"); got != 4 {
		t.Errorf("skipped checks = %d; want 4\n%s", got, out.String())
	}
}

// ---------------------------------------------------------------------------
// failures
// ---------------------------------------------------------------------------

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name string
		cfg  doctor.Config
		want string
	}{
		{
			name: "invalid config",
			cfg:  doctor.Config{Settings: func() error { return errBroken }},
			want: "config",
		},
		{
			name: "corpus error",
			cfg:  doctor.Config{CorpusFiles: func() (int, error) { return 0, errBroken }},
			want: "corpus",
		},
		{
			name: "empty corpus",
			cfg:  doctor.Config{CorpusFiles: func() (int, error) { return 0, nil }},
			want: "no files matched",
		},
		{
			name: "missing vocab",
			cfg:  doctor.Config{VocabPath: "/nonexistent/vocab.json", OpenVocab: openWord},
			want: "vocab",
		},
		{
			name: "store error",
			cfg:  doctor.Config{StoreEntries: func() (int, error) { return 0, errBroken }},
			want: "store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			result := doctor.Run(tt.cfg, &out)

			if !result.Failed() {
				t.Fatal("expected failure")
			}

			if !hasFailureContaining(result.Failures(), tt.want) {
				t.Errorf("failures %v; want one mentioning %q", result.Failures(), tt.want)
			}

			if !strings.Contains(out.String(), doctor.FailMark) {
				t.Errorf("output missing failure mark:\n%s", out.String())
			}
		})
	}
}

// strictVocab fails every Encode, standing in for a Fail-policy vocabulary
// that cannot represent a sample.
type strictVocab struct{ tokenizer.Tokenizer }

func (strictVocab) Encode(string) ([]int, error) { return nil, tokenizer.ErrUnknownToken }
func (strictVocab) VocabSize() int               { return 1 }

func TestRun_RoundTripFailure(t *testing.T) {
	cfg := doctor.Config{
		VocabPath: "strict.json",
		OpenVocab: func(string) (tokenizer.Tokenizer, error) { return strictVocab{}, nil },
		Samples:    []string{"☃"},
	}

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	if !hasFailureContaining(result.Failures(), "round trip") {
		t.Errorf("failures %v; want round trip failure", result.Failures())
	}
}

func TestResult_AddFailure(t *testing.T) {
	var r doctor.Result
	r.AddFailure("external")

	if !r.Failed() || r.Failures()[0] != "external" {
		t.Errorf("Failures = %v", r.Failures())
	}
}
