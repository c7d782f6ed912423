// Package doctor provides preflight checks for a subword workspace: the
// configuration, the corpus, the saved vocabulary and the tokenizer store.
package doctor

import (
	"fmt"
	"io"
	"slices"

	"github.com/example/go-subword/internal/tokenizer"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds injectable dependencies for each doctor check. A nil function
// skips its check.
type Config struct {
	// Settings validates the effective configuration.
	Settings func() error
	// CorpusFiles returns the number of corpus files matched by the globs.
	CorpusFiles func() (int, error)
	// VocabPath is the saved vocabulary to open with OpenVocab.
	VocabPath string
	// OpenVocab restores the tokenizer saved at a path.
	OpenVocab func(path string) (tokenizer.Tokenizer, error)
	// Samples are encoded and decoded against the opened vocabulary.
	Samples []string
	// StoreEntries opens the tokenizer store and returns its entry count.
	StoreEntries func() (int, error)
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- configuration ----------------------------------------------------
	if cfg.Settings == nil {
		fmt.Fprintf(w, "%s config: skipped\n", PassMark)
	} else if err := cfg.Settings(); err != nil {
		res.fail(fmt.Sprintf("config: %v", err))
		fmt.Fprintf(w, "%s config: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s config: valid\n", PassMark)
	}

	// ---- corpus files -----------------------------------------------------
	if cfg.CorpusFiles == nil {
		fmt.Fprintf(w, "%s corpus: skipped\n", PassMark)
	} else {
		n, err := cfg.CorpusFiles()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("corpus: %v", err))
			fmt.Fprintf(w, "%s corpus: %v\n", FailMark, err)
		case n == 0:
			res.fail("corpus: no files matched")
			fmt.Fprintf(w, "%s corpus: no files matched\n", FailMark)
		default:
			fmt.Fprintf(w, "%s corpus: %d files\n", PassMark, n)
		}
	}

	// ---- vocabulary -------------------------------------------------------
	if cfg.OpenVocab == nil {
		fmt.Fprintf(w, "%s vocab: skipped\n", PassMark)
	} else {
		tok, err := cfg.OpenVocab(cfg.VocabPath)
		if err != nil {
			res.fail(fmt.Sprintf("vocab %q: %v", cfg.VocabPath, err))
			fmt.Fprintf(w, "%s vocab %s: %v\n", FailMark, cfg.VocabPath, err)
		} else {
			fmt.Fprintf(w, "%s vocab: %s (%d tokens)\n", PassMark, cfg.VocabPath, tok.VocabSize())

			for _, sample := range cfg.Samples {
				if err := checkRoundTrip(tok, sample); err != nil {
					res.fail(fmt.Sprintf("round trip %q: %v", sample, err))
					fmt.Fprintf(w, "%s round trip %q: %v\n", FailMark, sample, err)
				} else {
					fmt.Fprintf(w, "%s round trip %q\n", PassMark, sample)
				}
			}
		}
	}

	// ---- tokenizer store --------------------------------------------------
	if cfg.StoreEntries == nil {
		fmt.Fprintf(w, "%s store: skipped\n", PassMark)
	} else if n, err := cfg.StoreEntries(); err != nil {
		res.fail(fmt.Sprintf("store: %v", err))
		fmt.Fprintf(w, "%s store: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s store: %d tokenizers\n", PassMark, n)
	}

	return res
}

// checkRoundTrip encodes sample, decodes the ids, and requires that the ids
// are in range and that encoding is repeatable.
func checkRoundTrip(tok tokenizer.Tokenizer, sample string) error {
	ids, err := tok.Encode(sample)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	size := tok.VocabSize()
	for _, id := range ids {
		if id < 0 || id >= size {
			return fmt.Errorf("id %d outside vocabulary of %d", id, size)
		}
	}

	if _, err := tok.Decode(ids); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	again, err := tok.Encode(sample)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if !slices.Equal(ids, again) {
		return fmt.Errorf("encoding is not repeatable: %v then %v", ids, again)
	}

	return nil
}
