package bpe

// ApplyMerge replaces every occurrence of m.Pair in tokens with m.Replacement
// and returns the shortened slice. tokens is rewritten in place.
//
// After a replacement at position i the scan resumes at i-1, so a pair formed
// by the token before the replacement is seen in the same pass and a chain of
// matches collapses without restarting from the start of the word.
func ApplyMerge(tokens []string, m Merge) []string {
	i := 0
	for i < len(tokens)-1 {
		if tokens[i] != m.Pair.Left || tokens[i+1] != m.Pair.Right {
			i++
			continue
		}

		tokens[i] = m.Replacement
		tokens = append(tokens[:i+1], tokens[i+2:]...)

		if i > 0 {
			i--
		}
	}

	return tokens
}

// ApplyAll applies every rule in order and returns the rewritten tokens.
// tokens is rewritten in place.
func ApplyAll(tokens []string, merges []Merge) []string {
	for _, m := range merges {
		if len(tokens) < 2 {
			break
		}

		tokens = ApplyMerge(tokens, m)
	}

	return tokens
}
