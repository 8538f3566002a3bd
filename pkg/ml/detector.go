package ml

import (
	"context"
	"math"

	"github.com/scamlabs/scamwatch/pkg/rules"
)

// Verdict is the three-way classification returned to callers.
type Verdict string

const (
	VerdictLikelyScam Verdict = "Likely Scam"
	VerdictUnclear    Verdict = "Unclear"
	VerdictUnlikely   Verdict = "Unlikely"
)

// Result is the final detection outcome for one request. Constructed fresh
// per request, never persisted.
type Result struct {
	Verdict    Verdict     `json:"verdict"`
	ScoreML    float64     `json:"score_ml"`
	ScoreRules int         `json:"score_rules"`
	Highlights []rules.Hit `json:"highlights"`
	Reasons    []string    `json:"reasons"`
}

// Thresholds are the fusion decision bands.
type Thresholds struct {
	MLLikely    float64 // ML score at or above this corroborated by rules = Likely Scam
	MLUnclear   float64 // ML score at or above this = at least Unclear
	RuleLikely  int
	RuleUnclear int
}

// DefaultThresholds implements the precision-first policy.
func DefaultThresholds() Thresholds {
	return Thresholds{MLLikely: 0.80, MLUnclear: 0.55, RuleLikely: 3, RuleUnclear: 2}
}

// Decide fuses the ML probability and the rule evaluation under the decision
// table, top to bottom, first match wins. Pure and deterministic; never fails.
func Decide(scoreML float64, eval rules.Evaluation, th Thresholds) *Result {
	var verdict Verdict
	switch {
	case scoreML >= th.MLLikely && eval.Score >= th.RuleLikely:
		verdict = VerdictLikelyScam
	case (scoreML >= th.MLUnclear && scoreML < th.MLLikely) ||
		(eval.Score >= th.RuleUnclear && eval.Score < th.RuleLikely):
		verdict = VerdictUnclear
	default:
		verdict = VerdictUnlikely
	}

	hits := eval.Hits
	if hits == nil {
		hits = []rules.Hit{}
	}
	reasons := eval.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	return &Result{
		Verdict:    verdict,
		ScoreML:    round3(scoreML),
		ScoreRules: eval.Score,
		Highlights: hits,
		Reasons:    reasons,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Detector runs the full pipeline: normalize once, then the
// vectorize→classify path and the rule path over the same normalized text,
// fused by Decide. Both paths work on request-local data only, so a single
// Detector serves unbounded concurrent requests.
type Detector struct {
	resource   *Resource
	engine     *rules.Engine
	thresholds Thresholds
}

// NewDetector wires the shared artifact resource and rule engine into a
// detector. Injecting the resource (rather than a process global) keeps the
// pipeline testable with substitute artifacts.
func NewDetector(resource *Resource, engine *rules.Engine, th Thresholds) *Detector {
	return &Detector{resource: resource, engine: engine, thresholds: th}
}

// Detect classifies one message. Empty or whitespace-only input (including
// anything that normalizes to "") short-circuits the pipeline with a fixed
// Unclear result. The only possible error is an unavailable model artifact.
func (d *Detector) Detect(ctx context.Context, text string) (*Result, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return &Result{
			Verdict:    VerdictUnclear,
			ScoreML:    0.0,
			ScoreRules: 0,
			Highlights: []rules.Hit{},
			Reasons:    []string{"No text provided."},
		}, nil
	}

	art, err := d.resource.Artifact(ctx)
	if err != nil {
		return nil, err
	}

	scoreML := Score(Vectorize(normalized, art), art)
	eval := d.engine.Evaluate(normalized)

	return Decide(scoreML, eval, d.thresholds), nil
}
