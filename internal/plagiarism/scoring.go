package plagiarism

import (
	"strings"
)

// document is the prepared form of one submission for exact scoring
type document struct {
	canonical CanonicalText
	tokens    TokenStream
}

// Score returns the similarity of two prepared submissions in [0,1].
// Identical non-empty canonical texts score 1; streams shorter than k tokens
// fall back to word-level Jaccard; everything else uses winnowed k-grams.
func Score(a, b CanonicalText, tokensA, tokensB TokenStream, opts Options) float64 {
	if a.Text != "" && a.Text == b.Text {
		return 1.0
	}

	k := int(opts.KGramSize)
	if len(tokensA) < k || len(tokensB) < k {
		return WordJaccard(a.Text, b.Text)
	}

	fpA := Winnow(KGramHashes(tokensA, k), int(opts.WindowSize))
	fpB := Winnow(KGramHashes(tokensB, k), int(opts.WindowSize))

	return Jaccard(fpA, fpB)
}

func scoreDocuments(a, b *document, opts Options) float64 {
	return Score(a.canonical, b.canonical, a.tokens, b.tokens, opts)
}

// KGramHashes hashes every k-token window (stride 1, tokens joined by a space)
func KGramHashes(tokens TokenStream, k int) []uint32 {
	if k <= 0 || len(tokens) < k {
		return []uint32{}
	}

	hashes := make([]uint32, 0, len(tokens)-k+1)
	for i := 0; i <= len(tokens)-k; i++ {
		kgram := strings.Join(tokens[i:i+k], " ")
		hashes = append(hashes, uint32(polyHash(kgram)))
	}
	return hashes
}

// Winnow keeps the minimum hash of every window of w consecutive hashes.
// With fewer than w hashes the single overall minimum is kept.
func Winnow(hashes []uint32, w int) map[uint32]struct{} {
	selected := make(map[uint32]struct{})
	if len(hashes) == 0 || w <= 0 {
		return selected
	}

	if len(hashes) <= w {
		selected[minHash(hashes)] = struct{}{}
		return selected
	}

	for i := 0; i <= len(hashes)-w; i++ {
		selected[minHash(hashes[i:i+w])] = struct{}{}
	}
	return selected
}

func minHash(window []uint32) uint32 {
	m := window[0]
	for _, h := range window[1:] {
		if h < m {
			m = h
		}
	}
	return m
}

// Jaccard returns |A ∩ B| / |A ∪ B|, or 0 when both sets are empty
func Jaccard[T comparable](a, b map[T]struct{}) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}

	intersection := 0
	for v := range a {
		if _, ok := b[v]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// WordJaccard compares the space-separated word sets of two canonical texts
func WordJaccard(a, b string) float64 {
	return Jaccard(wordSet(a), wordSet(b))
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
