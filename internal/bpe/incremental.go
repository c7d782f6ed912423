package bpe

import "sort"

// pairStat is the live state of one pair in the incremental trainer.
type pairStat struct {
	count int
	words map[int]struct{}
}

type incremental struct {
	words   []Word
	stats   map[Pair]*pairStat
	touched map[Pair]struct{}
	heap    *pairHeap
}

func (t *Trainer) trainHeap(words []Word) Result {
	st := &incremental{
		words:   words,
		stats:   make(map[Pair]*pairStat),
		touched: make(map[Pair]struct{}),
		heap:    newPairHeap(1024),
	}

	for i := range st.words {
		st.addWord(i)
	}
	st.flush()

	var res Result

	for n := 0; n < t.NumMerges; n++ {
		best, freq, ok := st.pop()
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
		st.merge(m)

		t.observe(n+1, m, freq)
	}

	// Collapse words that became identical, as the scan strategy does.
	c := NewCorpus()
	for _, w := range st.words {
		c.Add(w.Tokens, w.Count)
	}
	res.Words = c.words

	return res
}

// pop returns the live pair with the highest count, discarding stale entries.
// An entry is live only if both its count and its first position still match.
func (st *incremental) pop() (Pair, int, bool) {
	for {
		c, ok := st.heap.Pop()
		if !ok {
			return Pair{}, 0, false
		}

		ps := st.stats[c.pair]
		if ps.count <= 0 || ps.count != c.count {
			continue
		}

		if word, offset := st.firstPosition(c.pair, ps); word != c.word || offset != c.offset {
			continue
		}

		return c.pair, ps.count, true
	}
}

// merge rewrites only the words that contain m.Pair and updates the counts
// of the pairs they touch.
func (st *incremental) merge(m Merge) {
	holders := st.stats[m.Pair].words
	affected := make([]int, 0, len(holders))
	for i := range holders {
		affected = append(affected, i)
	}
	sort.Ints(affected)

	for _, i := range affected {
		st.removeWord(i)
		st.words[i].Tokens = ApplyMerge(st.words[i].Tokens, m)
		st.addWord(i)
	}

	st.flush()
}

func (st *incremental) addWord(i int) {
	w := st.words[i]
	for j := 0; j+1 < len(w.Tokens); j++ {
		p := Pair{Left: w.Tokens[j], Right: w.Tokens[j+1]}

		ps, ok := st.stats[p]
		if !ok {
			ps = &pairStat{words: make(map[int]struct{})}
			st.stats[p] = ps
		}

		ps.count += w.Count
		ps.words[i] = struct{}{}
		st.touched[p] = struct{}{}
	}
}

func (st *incremental) removeWord(i int) {
	w := st.words[i]
	for j := 0; j+1 < len(w.Tokens); j++ {
		p := Pair{Left: w.Tokens[j], Right: w.Tokens[j+1]}

		ps := st.stats[p]
		ps.count -= w.Count
		delete(ps.words, i)
		st.touched[p] = struct{}{}
	}
}

// firstPosition returns the word index and token offset where p first
// occurs in the current corpus. Scanning words in order and pairs left to
// right meets pairs in exactly this order.
func (st *incremental) firstPosition(p Pair, ps *pairStat) (int, int) {
	word := -1
	for i := range ps.words {
		if word < 0 || i < word {
			word = i
		}
	}

	if word < 0 {
		return -1, -1
	}

	tokens := st.words[word].Tokens
	for j := 0; j+1 < len(tokens); j++ {
		if tokens[j] == p.Left && tokens[j+1] == p.Right {
			return word, j
		}
	}

	return -1, -1
}

// flush pushes a fresh heap entry for every pair whose count or first
// position may have changed.
func (st *incremental) flush() {
	for p := range st.touched {
		ps := st.stats[p]
		if ps.count <= 0 {
			continue
		}

		word, offset := st.firstPosition(p, ps)
		st.heap.Push(pairCand{pair: p, count: ps.count, word: word, offset: offset})
	}

	clear(st.touched)
}
