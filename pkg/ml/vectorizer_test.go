package ml

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		in   string
		want []string
	}{
		{"pay the fee", []string{"pay", "the", "fee"}},
		{"bit.ly/x", []string{"bit", "ly", "x"}},
		{"", nil},
		{"...!!!", nil},
		{"a1_b2", []string{"a1_b2"}},
	}

	for _, tc := range testCases {
		got := Tokenize(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("Tokenize(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestTermsIncludeBigrams(t *testing.T) {
	got := terms("pay the fee")
	want := []string{"pay", "the", "fee", "pay the", "the fee"}
	if len(got) != len(want) {
		t.Fatalf("terms = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("terms[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFitVectorizerDocumentFrequencyBounds(t *testing.T) {
	// "common" appears in every doc, "rare" in exactly one, "shared" in two.
	corpus := make([]string, 100)
	for i := range corpus {
		corpus[i] = "common filler words"
	}
	corpus[0] = "common shared rare"
	corpus[1] = "common shared"

	vocab, idf := FitVectorizer(corpus)

	if len(vocab) != len(idf) {
		t.Fatalf("vocab size %d != idf length %d", len(vocab), len(idf))
	}
	if _, ok := vocab["rare"]; ok {
		t.Error("singleton term 'rare' should be pruned (min_df)")
	}
	if _, ok := vocab["common"]; ok {
		t.Error("near-universal term 'common' should be pruned (max_df)")
	}
	if _, ok := vocab["shared"]; !ok {
		t.Error("term 'shared' with df=2 should be kept")
	}
}

func TestFitVectorizerIDFValues(t *testing.T) {
	corpus := []string{
		"alpha beta",
		"alpha gamma",
		"alpha beta delta",
	}
	vocab, idf := FitVectorizer(corpus)

	idx, ok := vocab["beta"]
	if !ok {
		t.Fatal("expected 'beta' in vocabulary")
	}
	// df(beta)=2, N=3: idf = ln(4/3) + 1
	want := math.Log(4.0/3.0) + 1
	if diff := math.Abs(idf[idx] - want); diff > 1e-12 {
		t.Errorf("idf(beta) = %v, want %v", idf[idx], want)
	}
}

func TestVectorizeL2Normalized(t *testing.T) {
	art := &Artifact{
		Vocabulary: map[string]int{"pay": 0, "fee": 1, "pay fee": 2},
		IDF:        []float64{1.2, 1.5, 2.0},
	}

	vec := Vectorize("pay fee pay", art)
	if len(vec) == 0 {
		t.Fatal("expected non-empty vector")
	}

	var sumSq float64
	for _, w := range vec {
		if w < 0 {
			t.Errorf("negative weight %v", w)
		}
		sumSq += w * w
	}
	if diff := math.Abs(sumSq - 1.0); diff > 1e-12 {
		t.Errorf("vector L2 norm^2 = %v, want 1.0", sumSq)
	}
}

func TestVectorizeSublinearTF(t *testing.T) {
	art := &Artifact{
		Vocabulary: map[string]int{"pay": 0, "fee": 1},
		IDF:        []float64{1.0, 1.0},
	}

	// "pay" appears twice, "fee" once; before normalization the ratio of
	// their weights must be (1+ln2) : 1.
	vec := Vectorize("pay fee pay", art)
	ratio := vec[art.Vocabulary["pay"]] / vec[art.Vocabulary["fee"]]
	want := 1 + math.Log(2)
	if diff := math.Abs(ratio - want); diff > 1e-12 {
		t.Errorf("weight ratio = %v, want %v", ratio, want)
	}
}

func TestVectorizeIgnoresUnknownTerms(t *testing.T) {
	art := &Artifact{
		Vocabulary: map[string]int{"fee": 0},
		IDF:        []float64{1.0},
	}

	vec := Vectorize("completely unknown words only", art)
	if len(vec) != 0 {
		t.Errorf("expected empty vector for out-of-vocabulary text, got %v", vec)
	}

	vec = Vectorize("", art)
	if len(vec) != 0 {
		t.Errorf("expected empty vector for empty text, got %v", vec)
	}
}
