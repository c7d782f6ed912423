package bpe

import (
	"fmt"
	"log/slog"
	"strings"
)

// Strategy selects how pair frequencies are maintained between merges.
type Strategy string

const (
	// StrategyScan recounts every pair over the whole corpus each iteration.
	// Ties go to the pair found first in the frequency table, which is
	// enumerated in first-encounter order (words in corpus order, pairs left
	// to right).
	StrategyScan Strategy = "scan"
	// StrategyHeap keeps incremental pair counts and a max-heap with lazy
	// invalidation. Ties go to the pair whose first occurrence comes first,
	// so it learns the same merges as StrategyScan.
	StrategyHeap Strategy = "heap"
)

// ParseStrategy converts a config value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyScan:
		return StrategyScan, nil
	case StrategyHeap:
		return StrategyHeap, nil
	default:
		return StrategyScan, fmt.Errorf("unknown merge strategy %q (want scan|heap)", s)
	}
}

// ProgressFunc is called after each completed merge.
type ProgressFunc func(done, total int)

// Trainer induces merge rules from a corpus.
type Trainer struct {
	// NumMerges bounds the number of learned rules.
	NumMerges int
	// MinFreq stops training once the best pair occurs fewer times.
	MinFreq  int
	Strategy Strategy
	Logger   *slog.Logger
	Progress ProgressFunc
	// Format renders tokens in log output; nil means %q.
	Format func(tok string) string
}

// Result is the outcome of a training run.
type Result struct {
	Merges []Merge
	// Freqs[i] is the pair frequency that selected Merges[i].
	Freqs []int
	// Words is the corpus rewritten by every merge, in corpus order.
	Words []Word
}

// Train runs merge induction over c. c itself is not modified.
func (t *Trainer) Train(c *Corpus) Result {
	words := make([]Word, len(c.words))
	for i, w := range c.words {
		words[i] = Word{Tokens: append([]string(nil), w.Tokens...), Count: w.Count}
	}

	var res Result
	if t.Strategy == StrategyHeap {
		res = t.trainHeap(words)
	} else {
		res = t.trainScan(words)
	}

	t.logger().Info("bpe training finished",
		"strategy", string(t.strategy()),
		"merges", len(res.Merges),
		"max_merges", t.NumMerges,
		"words", len(res.Words),
	)

	return res
}

func (t *Trainer) trainScan(words []Word) Result {
	var res Result

	for n := 0; n < t.NumMerges; n++ {
		best, freq, ok := mostFrequentPair(words)
		if !ok {
			t.logger().Debug("no pairs left", "iteration", n+1)
			break
		}

		if freq < t.MinFreq {
			t.logger().Debug("best pair below min frequency", "iteration", n+1, "freq", freq, "min_freq", t.MinFreq)
			break
		}

		m := NewMerge(best)
		res.Merges = append(res.Merges, m)
		res.Freqs = append(res.Freqs, freq)
		words = mergeWords(words, m)

		t.observe(n+1, m, freq)
	}

	res.Words = words

	return res
}

// mostFrequentPair counts adjacent pairs weighted by word count and returns
// the first maximum in first-encounter order.
func mostFrequentPair(words []Word) (Pair, int, bool) {
	counts := make(map[Pair]int)
	var order []Pair

	for _, w := range words {
		for i := 0; i+1 < len(w.Tokens); i++ {
			p := Pair{Left: w.Tokens[i], Right: w.Tokens[i+1]}
			if _, ok := counts[p]; !ok {
				order = append(order, p)
			}

			counts[p] += w.Count
		}
	}

	var best Pair
	bestCount := 0

	for _, p := range order {
		if c := counts[p]; c > bestCount {
			best, bestCount = p, c
		}
	}

	return best, bestCount, bestCount > 0
}

// mergeWords rewrites every word with m. Words that become identical
// collapse into the first one.
func mergeWords(words []Word, m Merge) []Word {
	next := NewCorpus()
	for _, w := range words {
		next.Add(ApplyMerge(w.Tokens, m), w.Count)
	}

	return next.words
}

func (t *Trainer) observe(n int, m Merge, freq int) {
	format := t.Format
	if format == nil {
		format = func(tok string) string { return fmt.Sprintf("%q", tok) }
	}

	t.logger().Debug("merge",
		"iteration", n,
		"left", format(m.Pair.Left),
		"right", format(m.Pair.Right),
		"replacement", format(m.Replacement),
		"freq", freq,
	)

	if t.Progress != nil {
		t.Progress(n, t.NumMerges)
	}
}

func (t *Trainer) strategy() Strategy {
	if t.Strategy == "" {
		return StrategyScan
	}

	return t.Strategy
}

func (t *Trainer) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return t.Logger
}
