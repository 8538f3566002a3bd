package ml

import "math"

// InferenceMode is the classifier capability fixed at artifact-load time.
// Per-request code never probes capabilities; it switches on this tag.
type InferenceMode int

const (
	// ModeProbability: the stored model is probability-calibrated; the
	// logistic output is the calibrated probability.
	ModeProbability InferenceMode = iota
	// ModeMargin: the stored model exposes only a raw decision margin; the
	// sigmoid is applied here to preserve the probability contract.
	ModeMargin
	// ModeLabel: degraded fallback, only a hard 0/1 class prediction is
	// available. Scores lose resolution but stay in [0,1].
	ModeLabel
)

// selectMode picks the richest output the stored classifier declares.
// Unknown or missing declarations fall back to the margin path, which any
// linear model supports.
func selectMode(outputs []string) InferenceMode {
	has := make(map[string]bool, len(outputs))
	for _, o := range outputs {
		has[o] = true
	}
	switch {
	case has["probability"]:
		return ModeProbability
	case has["margin"] || len(outputs) == 0:
		return ModeMargin
	case has["label"]:
		return ModeLabel
	default:
		return ModeMargin
	}
}

// outputs is the inverse of selectMode, used when re-serializing artifacts.
func (m InferenceMode) outputs() []string {
	switch m {
	case ModeProbability:
		return []string{"probability", "margin", "label"}
	case ModeMargin:
		return []string{"margin", "label"}
	default:
		return []string{"label"}
	}
}

func (m InferenceMode) String() string {
	switch m {
	case ModeProbability:
		return "probability"
	case ModeMargin:
		return "margin"
	default:
		return "label"
	}
}

// Sigmoid maps any real margin to (0,1).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Score applies the learned weights to a feature vector and returns a scam
// probability in [0,1]. Never fails: the degraded label mode still yields a
// value satisfying the probability contract.
func Score(vec Vector, art *Artifact) float64 {
	margin := art.Bias
	for idx, w := range vec {
		margin += art.Weights[idx] * w
	}

	switch art.Mode {
	case ModeLabel:
		if margin > 0 {
			return 1.0
		}
		return 0.0
	default:
		// For a linear model the calibrated probability and the explicit
		// sigmoid over the margin are the same computation.
		return Sigmoid(margin)
	}
}
