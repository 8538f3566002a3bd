package ml

import (
	"fmt"
	"math"
	"testing"
)

// syntheticCorpus builds a cleanly separable labelled set: scam rows share a
// hot vocabulary, ham rows share a benign one, and each row carries a unique
// filler token that the min-df pruning should drop.
func syntheticCorpus(perClass int) (texts []string, labels []int) {
	for i := 0; i < perClass; i++ {
		texts = append(texts, fmt.Sprintf("urgent verify account pay fee transfer money now extra%d", i))
		labels = append(labels, 1)
	}
	for i := 0; i < perClass; i++ {
		texts = append(texts, fmt.Sprintf("hello lunch meeting tomorrow thanks friend chat%d", i))
		labels = append(labels, 0)
	}
	return texts, labels
}

func TestTrainValidation(t *testing.T) {
	opts := DefaultTrainOptions()

	if _, _, err := Train([]string{"a", "b"}, []int{1}, opts); err == nil {
		t.Error("expected error for texts/labels length mismatch")
	}
	if _, _, err := Train([]string{"a"}, []int{1}, opts); err == nil {
		t.Error("expected error for tiny dataset")
	}
	if _, _, err := Train([]string{"a", "b", "c", "d"}, []int{0, 1, 2, 0}, opts); err == nil {
		t.Error("expected error for label outside {0,1}")
	}
	if _, _, err := Train([]string{"a", "b", "c", "d"}, []int{1, 1, 1, 1}, opts); err == nil {
		t.Error("expected error when only one class is present")
	}
}

func TestTrainSeparatesClasses(t *testing.T) {
	texts, labels := syntheticCorpus(20)
	art, report, err := Train(texts, labels, DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if art.Mode != ModeProbability {
		t.Errorf("trained mode = %v, want probability", art.Mode)
	}
	if report.VocabSize == 0 {
		t.Fatal("trained vocabulary is empty")
	}
	if report.TrainDocs+report.TestDocs != len(texts) {
		t.Errorf("split sizes %d+%d do not cover %d rows",
			report.TrainDocs, report.TestDocs, len(texts))
	}

	scamScore := Score(Vectorize(Normalize("urgent verify account pay fee transfer money now"), art), art)
	hamScore := Score(Vectorize(Normalize("hello lunch meeting tomorrow thanks friend"), art), art)

	if scamScore <= 0.5 {
		t.Errorf("scam-like score = %v, want > 0.5", scamScore)
	}
	if hamScore >= 0.5 {
		t.Errorf("ham-like score = %v, want < 0.5", hamScore)
	}
	if scamScore <= hamScore {
		t.Errorf("scam score %v not above ham score %v", scamScore, hamScore)
	}
	t.Logf("separation: scam=%.4f ham=%.4f vocab=%d iters=%d converged=%v f1=%.3f",
		scamScore, hamScore, report.VocabSize, report.Iterations, report.Converged, report.F1)
}

func TestTrainReportMetricsInRange(t *testing.T) {
	texts, labels := syntheticCorpus(20)
	_, report, err := Train(texts, labels, DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	for name, v := range map[string]float64{
		"precision": report.Precision,
		"recall":    report.Recall,
		"f1":        report.F1,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, outside [0,1]", name, v)
		}
	}
	// Cleanly separable data should be easy on the held-out rows.
	if report.F1 < 0.9 {
		t.Errorf("f1 = %v, want >= 0.9 on separable corpus", report.F1)
	}
}

func TestTrainStratifiedHoldout(t *testing.T) {
	texts, labels := syntheticCorpus(20)
	_, report, err := Train(texts, labels, DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	// 20% of each class of 20 rows.
	if report.TestDocs != 8 {
		t.Errorf("test docs = %d, want 8", report.TestDocs)
	}
	if report.TrainDocs != 32 {
		t.Errorf("train docs = %d, want 32", report.TrainDocs)
	}
}

func TestTrainReproducibleWithFixedSeed(t *testing.T) {
	texts, labels := syntheticCorpus(20)
	opts := DefaultTrainOptions()

	artA, reportA, err := Train(texts, labels, opts)
	if err != nil {
		t.Fatalf("first Train failed: %v", err)
	}
	artB, reportB, err := Train(texts, labels, opts)
	if err != nil {
		t.Fatalf("second Train failed: %v", err)
	}

	if reportA.TrainDocs != reportB.TrainDocs || reportA.TestDocs != reportB.TestDocs ||
		reportA.VocabSize != reportB.VocabSize {
		t.Errorf("reports diverged: %+v vs %+v", reportA, reportB)
	}

	for _, probe := range []string{
		"urgent verify account pay fee",
		"hello lunch meeting tomorrow",
	} {
		a := Score(Vectorize(Normalize(probe), artA), artA)
		b := Score(Vectorize(Normalize(probe), artB), artB)
		if math.Abs(a-b) > 1e-6 {
			t.Errorf("scores for %q diverged across identical runs: %v vs %v", probe, a, b)
		}
	}
}
