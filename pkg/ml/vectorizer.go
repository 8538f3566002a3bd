package ml

import (
	"math"
	"regexp"
	"sort"
)

// Vector is a sparse TF-IDF feature vector keyed by vocabulary index.
// Indices absent from the map carry weight zero. Immutable once produced.
type Vector map[int]float64

// Tokens are contiguous runs of word characters in normalized text.
var reToken = regexp.MustCompile(`\w+`)

// Tokenize splits normalized text into unigram tokens.
func Tokenize(text string) []string {
	return reToken.FindAllString(text, -1)
}

// terms expands tokens into the unigram+bigram feature set.
// Bigrams join adjacent tokens with a single space, matching the form the
// vocabulary was fitted with.
func terms(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// Vectorize maps normalized text onto the artifact's vocabulary.
// Term weight is sublinear tf (1+ln(count)) times the fitted idf; the final
// vector is L2-normalized. Out-of-vocabulary terms contribute nothing, so the
// dimensionality is always the fitted vocabulary size.
func Vectorize(text string, art *Artifact) Vector {
	counts := make(map[int]int)
	for _, term := range terms(text) {
		if idx, ok := art.Vocabulary[term]; ok {
			counts[idx]++
		}
	}

	vec := make(Vector, len(counts))
	var sumSq float64
	for idx, c := range counts {
		w := (1 + math.Log(float64(c))) * art.IDF[idx]
		vec[idx] = w
		sumSq += w * w
	}

	if sumSq > 0 {
		n := math.Sqrt(sumSq)
		for idx := range vec {
			vec[idx] /= n
		}
	}
	return vec
}

// Document-frequency bounds applied when fitting the vocabulary.
// min 2 drops singleton noise, max 98% drops near-universal stop terms.
const (
	fitMinDF      = 2
	fitMaxDFRatio = 0.98
)

// FitVectorizer builds a vocabulary and idf weights from a normalized corpus.
// This is the training-time counterpart of Vectorize; inference never calls it.
func FitVectorizer(corpus []string) (map[string]int, []float64) {
	n := len(corpus)

	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, term := range terms(doc) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	maxDF := int(fitMaxDFRatio * float64(n))
	kept := make([]string, 0, len(df))
	for term, count := range df {
		if count >= fitMinDF && count <= maxDF {
			kept = append(kept, term)
		}
	}
	sort.Strings(kept)

	vocab := make(map[string]int, len(kept))
	idf := make([]float64, len(kept))
	for i, term := range kept {
		vocab[term] = i
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}
	return vocab, idf
}
