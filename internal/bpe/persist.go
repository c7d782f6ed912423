package bpe

import "github.com/example/go-subword/internal/vocab"

// Entries converts merges to their persisted form, keeping the order.
func Entries(merges []Merge) []vocab.MergeEntry {
	out := make([]vocab.MergeEntry, len(merges))
	for i, m := range merges {
		out[i] = vocab.MergeEntry{Pair: [2]string{m.Pair.Left, m.Pair.Right}, Replacement: m.Replacement}
	}

	return out
}

// FromEntries is the inverse of Entries.
func FromEntries(entries []vocab.MergeEntry) []Merge {
	out := make([]Merge, len(entries))
	for i, e := range entries {
		out[i] = Merge{Pair: Pair{Left: e.Pair[0], Right: e.Pair[1]}, Replacement: e.Replacement}
	}

	return out
}
