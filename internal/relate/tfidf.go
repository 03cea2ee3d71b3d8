package relate

import (
	"math"

	"github.com/hiro0218/kanren/pkg/utils"
)

// Vector is a document's TF-IDF vector with its precomputed L2 norm.
type Vector struct {
	Weights map[string]float64
	Norm    float64
}

// Vectorizer builds TF-IDF vectors over one corpus batch. IDF is
// corpus-global and fixed for the batch, so vectors are cached per slug.
type Vectorizer struct {
	idf       map[string]float64
	totalDocs int
	vectors   map[string]*Vector
}

// NewVectorizer computes document frequencies and smoothed IDF over the
// tokenized corpus: idf(w) = ln((N+1)/(df(w)+1)) + 1.
func NewVectorizer(wordsBySlug map[string][]string) *Vectorizer {
	df := make(map[string]int)
	for _, words := range wordsBySlug {
		seen := make(map[string]bool, len(words))
		for _, w := range words {
			if !seen[w] {
				seen[w] = true
				df[w]++
			}
		}
	}

	n := float64(len(wordsBySlug))
	idf := make(map[string]float64, len(df))
	for w, f := range df {
		idf[w] = math.Log((n+1)/(float64(f)+1)) + 1
	}

	return &Vectorizer{
		idf:       idf,
		totalDocs: len(wordsBySlug),
		vectors:   make(map[string]*Vector, len(wordsBySlug)),
	}
}

// Vector returns the cached TF-IDF vector for slug, building it from words
// on first use. An empty word list yields a zero-norm vector.
func (v *Vectorizer) Vector(slug string, words []string) *Vector {
	if vec, ok := v.vectors[slug]; ok {
		return vec
	}

	vec := &Vector{Weights: make(map[string]float64)}
	if len(words) > 0 {
		counts := make(map[string]int, len(words))
		for _, w := range words {
			counts[w]++
		}
		total := float64(len(words))
		var sumSq float64
		for w, c := range counts {
			tf := float64(c) / total
			weight := tf * v.idf[w]
			vec.Weights[w] = weight
			sumSq += weight * weight
		}
		vec.Norm = math.Sqrt(sumSq)
	}

	v.vectors[slug] = vec
	return vec
}

// IDF returns the corpus IDF for a word (0 for unseen words).
func (v *Vectorizer) IDF(word string) float64 {
	return v.idf[word]
}

// Cosine returns the cosine similarity of two vectors using their
// precomputed norms. Returns 0 when either norm is 0; the result is clamped
// into [0, 1] against floating drift.
func Cosine(a, b *Vector) float64 {
	if a == nil || b == nil || a.Norm == 0 || b.Norm == 0 {
		return 0
	}
	small, large := a, b
	if len(b.Weights) < len(a.Weights) {
		small, large = b, a
	}
	var dot float64
	for w, wa := range small.Weights {
		if wb, ok := large.Weights[w]; ok {
			dot += wa * wb
		}
	}
	return utils.Clamp01(dot / (a.Norm * b.Norm))
}
