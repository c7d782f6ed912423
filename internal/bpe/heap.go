package bpe

// pairCand is a heap entry: the count and first position a pair had when it
// was pushed. An entry that no longer matches the live state is stale and is
// skipped on pop.
type pairCand struct {
	pair   Pair
	count  int // higher wins
	word   int // earlier first occurrence wins on tie
	offset int
}

// pairHeap is a binary max-heap over pairCand.
type pairHeap struct {
	items []pairCand
}

func newPairHeap(capacity int) *pairHeap {
	return &pairHeap{items: make([]pairCand, 0, capacity)}
}

func (h *pairHeap) Len() int { return len(h.items) }

func (h *pairHeap) less(a, b pairCand) bool {
	if a.count != b.count {
		return a.count > b.count
	}
	if a.word != b.word {
		return a.word < b.word
	}
	return a.offset < b.offset
}

func (h *pairHeap) Push(c pairCand) {
	h.items = append(h.items, c)
	h.up(len(h.items) - 1)
}

func (h *pairHeap) Pop() (pairCand, bool) {
	if len(h.items) == 0 {
		return pairCand{}, false
	}

	n := len(h.items) - 1
	h.items[0], h.items[n] = h.items[n], h.items[0]

	result := h.items[n]
	h.items = h.items[:n]

	if len(h.items) > 0 {
		h.down(0)
	}

	return result, true
}

func (h *pairHeap) up(i int) {
	for {
		parent := (i - 1) / 2
		if parent == i || !h.less(h.items[i], h.items[parent]) {
			break
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}
}

func (h *pairHeap) down(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		right := 2*i + 2
		best := i

		if left < n && h.less(h.items[left], h.items[best]) {
			best = left
		}
		if right < n && h.less(h.items[right], h.items[best]) {
			best = right
		}
		if best == i {
			break
		}
		h.items[i], h.items[best] = h.items[best], h.items[i]
		i = best
	}
}
