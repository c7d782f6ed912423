package unigram

import (
	"cmp"
	"math"
	"slices"
	"unicode/utf8"
)

// seed collects every character as a base piece and every substring of
// 2..maxLen characters as a candidate, then keeps the base pieces plus the
// most frequent candidates up to limit pieces in total. Scores start uniform.
func seed(sentences [][]rune, maxLen, limit int) []Piece {
	counts := make(map[string]int)
	var order []string
	var base []string

	for _, s := range sentences {
		for i := range s {
			for l := 1; l <= maxLen && i+l <= len(s); l++ {
				p := string(s[i : i+l])

				if _, seen := counts[p]; !seen {
					order = append(order, p)
					if l == 1 {
						base = append(base, p)
					}
				}

				counts[p]++
			}
		}
	}

	candidates := make([]string, 0, len(order)-len(base))
	for _, p := range order {
		if utf8.RuneCountInString(p) > 1 {
			candidates = append(candidates, p)
		}
	}

	slices.SortStableFunc(candidates, func(a, b string) int {
		return cmp.Compare(counts[b], counts[a])
	})

	room := max(limit-len(base), 0)
	if len(candidates) > room {
		candidates = candidates[:room]
	}

	pieces := make([]Piece, 0, len(base)+len(candidates))
	for _, p := range base {
		pieces = append(pieces, Piece{Text: p, Base: true})
	}

	for _, p := range candidates {
		pieces = append(pieces, Piece{Text: p})
	}

	uniform := -math.Log(1 / float64(len(pieces)))
	for i := range pieces {
		pieces[i].Score = uniform
	}

	return pieces
}

// emRound segments every sentence with the current pieces, then keeps the
// base pieces plus the most used candidates up to vocabSize and rescores the
// survivors as -log(freq/total). Unused survivors count as 1.
func emRound(sentences [][]rune, pieces []Piece, maxLen, vocabSize int) []Piece {
	t := newTrie(pieces)
	freqs := make([]int, len(pieces))

	for _, s := range sentences {
		for _, sp := range viterbi(s, pieces, t, maxLen) {
			if sp.piece >= 0 {
				freqs[sp.piece]++
			}
		}
	}

	var keep, ranked []int
	for i, p := range pieces {
		switch {
		case p.Base:
			keep = append(keep, i)
		case freqs[i] > 0:
			ranked = append(ranked, i)
		}
	}

	slices.SortStableFunc(ranked, func(a, b int) int {
		if c := cmp.Compare(freqs[b], freqs[a]); c != 0 {
			return c
		}

		return cmp.Compare(utf8.RuneCountInString(pieces[a].Text), utf8.RuneCountInString(pieces[b].Text))
	})

	for _, i := range ranked {
		if len(keep) >= vocabSize {
			break
		}

		keep = append(keep, i)
	}

	total := 0
	for _, i := range keep {
		total += max(freqs[i], 1)
	}

	next := make([]Piece, len(keep))
	for j, i := range keep {
		next[j] = pieces[i]
		next[j].Score = -math.Log(float64(max(freqs[i], 1)) / float64(total))
	}

	return next
}
