package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainOptions controls the offline logistic regression fit.
type TrainOptions struct {
	Seed         int64   // RNG seed for the stratified split (fixed for reproducible runs)
	TestFraction float64 // Held-out fraction for the evaluation report
	MaxIter      int     // Iteration budget for the solver
	LearningRate float64
	L2           float64 // L2 regularization strength
	Tolerance    float64 // Gradient-norm convergence threshold
}

// DefaultTrainOptions mirrors the production training recipe.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Seed:         42,
		TestFraction: 0.20,
		MaxIter:      500,
		LearningRate: 1.0,
		L2:           1.0,
		Tolerance:    1e-5,
	}
}

// TrainReport summarizes a training run. Precision/recall/F1 are for the
// positive (scam) class on the held-out split.
type TrainReport struct {
	TrainDocs  int
	TestDocs   int
	VocabSize  int
	Iterations int
	Converged  bool
	Precision  float64
	Recall     float64
	F1         float64
}

// Train fits the TF-IDF vectorizer and an L2-regularized logistic regression
// on labelled messages. Texts are normalized with the same Normalize the
// inference path uses. Labels must be 0 (legit) or 1 (scam). Class weights
// are set inversely proportional to class frequency to correct imbalance.
func Train(texts []string, labels []int, opts TrainOptions) (*Artifact, *TrainReport, error) {
	if len(texts) != len(labels) {
		return nil, nil, fmt.Errorf("texts/labels length mismatch: %d vs %d", len(texts), len(labels))
	}
	if len(texts) < 4 {
		return nil, nil, fmt.Errorf("need at least 4 labelled messages, got %d", len(texts))
	}

	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = Normalize(t)
	}

	var posIdx, negIdx []int
	for i, y := range labels {
		switch y {
		case 1:
			posIdx = append(posIdx, i)
		case 0:
			negIdx = append(negIdx, i)
		default:
			return nil, nil, fmt.Errorf("label at row %d is %d, want 0 or 1", i, y)
		}
	}
	if len(posIdx) == 0 || len(negIdx) == 0 {
		return nil, nil, fmt.Errorf("training data needs both classes (pos=%d neg=%d)", len(posIdx), len(negIdx))
	}

	trainIdx, testIdx := stratifiedSplit(posIdx, negIdx, opts.TestFraction, opts.Seed)

	trainCorpus := make([]string, len(trainIdx))
	for i, idx := range trainIdx {
		trainCorpus[i] = normalized[idx]
	}
	vocab, idf := FitVectorizer(trainCorpus)
	if len(vocab) == 0 {
		return nil, nil, fmt.Errorf("fitted vocabulary is empty; corpus too small or too uniform")
	}

	fitArt := &Artifact{Vocabulary: vocab, IDF: idf}

	vectors := make([]Vector, len(trainIdx))
	targets := make([]int, len(trainIdx))
	nPos := 0
	for i, idx := range trainIdx {
		vectors[i] = Vectorize(normalized[idx], fitArt)
		targets[i] = labels[idx]
		if labels[idx] == 1 {
			nPos++
		}
	}
	n := len(trainIdx)
	nNeg := n - nPos

	// Balanced class weights: n / (numClasses * classCount).
	wPos := float64(n) / (2 * float64(nPos))
	wNeg := float64(n) / (2 * float64(nNeg))

	weights := make([]float64, len(vocab))
	bias := 0.0
	iter := 0
	converged := false

	gradW := make([]float64, len(vocab))
	for iter = 0; iter < opts.MaxIter; iter++ {
		for j := range gradW {
			gradW[j] = opts.L2 / float64(n) * weights[j]
		}
		gradB := 0.0

		for i, vec := range vectors {
			margin := bias
			for j, x := range vec {
				margin += weights[j] * x
			}
			cw := wNeg
			if targets[i] == 1 {
				cw = wPos
			}
			residual := cw * (Sigmoid(margin) - float64(targets[i])) / float64(n)
			for j, x := range vec {
				gradW[j] += residual * x
			}
			gradB += residual
		}

		maxGrad := math.Abs(gradB)
		for j := range gradW {
			weights[j] -= opts.LearningRate * gradW[j]
			if g := math.Abs(gradW[j]); g > maxGrad {
				maxGrad = g
			}
		}
		bias -= opts.LearningRate * gradB

		if maxGrad < opts.Tolerance {
			converged = true
			iter++
			break
		}
	}

	art := &Artifact{
		Vocabulary: vocab,
		IDF:        idf,
		Weights:    weights,
		Bias:       bias,
		Classes:    []int{0, 1},
		Mode:       ModeProbability,
	}

	report := &TrainReport{
		TrainDocs:  n,
		TestDocs:   len(testIdx),
		VocabSize:  len(vocab),
		Iterations: iter,
		Converged:  converged,
	}
	report.Precision, report.Recall, report.F1 = evaluate(art, normalized, labels, testIdx)

	return art, report, nil
}

// stratifiedSplit shuffles each class independently with the given seed and
// holds out testFraction of each, preserving label proportions.
func stratifiedSplit(posIdx, negIdx []int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	split := func(idx []int) (tr, te []int) {
		shuffled := append([]int(nil), idx...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		nTest := int(math.Round(testFraction * float64(len(shuffled))))
		if nTest >= len(shuffled) {
			nTest = len(shuffled) - 1
		}
		return shuffled[nTest:], shuffled[:nTest]
	}

	posTrain, posTest := split(posIdx)
	negTrain, negTest := split(negIdx)
	return append(posTrain, negTrain...), append(posTest, negTest...)
}

// evaluate computes positive-class precision/recall/F1 on the held-out rows.
func evaluate(art *Artifact, normalized []string, labels []int, testIdx []int) (precision, recall, f1 float64) {
	var tp, fp, fn int
	for _, idx := range testIdx {
		p := Score(Vectorize(normalized[idx], art), art)
		pred := 0
		if p >= 0.5 {
			pred = 1
		}
		switch {
		case pred == 1 && labels[idx] == 1:
			tp++
		case pred == 1 && labels[idx] == 0:
			fp++
		case pred == 0 && labels[idx] == 1:
			fn++
		}
	}
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}
