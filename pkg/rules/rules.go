// Package rules provides the heuristic rule engine that corroborates or
// tempers the ML signal. Rule categories are data, not control flow: an
// ordered list of {name, increment, pattern, reason} records compiled once,
// extensible via a YAML file without touching the fusion logic.
package rules

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Hit records one triggered rule category.
type Hit struct {
	Type string `json:"type"`
}

// Evaluation is the rule engine output for a single request. Hits and
// Reasons follow rule-declaration order, one entry per triggered category.
type Evaluation struct {
	Score   int
	Hits    []Hit
	Reasons []string
}

// Spec is the configuration form of a single rule category.
type Spec struct {
	Name      string `yaml:"name"`
	Increment int    `yaml:"increment"`
	Pattern   string `yaml:"pattern"`
	Reason    string `yaml:"reason"`
}

// rule holds a compiled spec. Regex is never nil after engine construction.
type rule struct {
	name      string
	increment int
	regex     *regexp.Regexp
	reason    string
}

// Engine evaluates an ordered, immutable rule set. Safe for concurrent use.
type Engine struct {
	rules []rule
}

// DefaultSpecs returns the built-in scam indicator rules. Declaration order
// is evaluation order and therefore reasons order.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:      "urgency",
			Increment: 2,
			Pattern:   `\b(urgent|immediately|act\s*now|final\s*notice|verify)\b`,
			Reason:    "Uses urgency.",
		},
		{
			Name:      "payment",
			Increment: 2,
			Pattern:   `\b(pay|payment|fee|transfer|send\s*money|gift\s*card|deposit)\b`,
			Reason:    "Requests payment or money transfer.",
		},
		{
			Name:      "short_link",
			Increment: 1,
			Pattern:   `(bit\.ly|tinyurl\.com|t\.co|ow\.ly|is\.gd|goo\.gl)`,
			Reason:    "Contains a shortened link.",
		},
		{
			Name:      "brand_ref",
			Increment: 1,
			Pattern:   `\b(ato|mygov|auspost|paypal|apple|dhl|commbank|anz|nab|westpac)\b`,
			Reason:    "Mentions a well-known brand; verify via official site.",
		},
	}
}

// NewEngine compiles the given specs in order. Patterns are compiled
// case-insensitively: the engine sees normalized (lowercased) text in the
// pipeline, but must match raw casing when called directly.
func NewEngine(specs []Spec) (*Engine, error) {
	e := &Engine{rules: make([]rule, 0, len(specs))}
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("rule with empty name")
		}
		if s.Increment < 0 {
			return nil, fmt.Errorf("rule %q has negative increment %d", s.Name, s.Increment)
		}
		re, err := regexp.Compile(`(?i)` + s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", s.Name, err)
		}
		e.rules = append(e.rules, rule{
			name:      s.Name,
			increment: s.Increment,
			regex:     re,
			reason:    s.Reason,
		})
	}
	return e, nil
}

// NewDefaultEngine compiles the built-in rule set.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(DefaultSpecs())
	if err != nil {
		// Built-in patterns are fixed; failing to compile them is a bug.
		panic(err)
	}
	return e
}

// ruleFile mirrors the YAML layout of an external rule-set file.
type ruleFile struct {
	Rules []Spec `yaml:"rules"`
}

// LoadSpecs reads rule specs from a YAML file.
func LoadSpecs(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode rule file: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rule file %s defines no rules", path)
	}
	return f.Rules, nil
}

// Evaluate scores text against every rule in declaration order. Each category
// contributes its increment at most once; total function, never fails.
func (e *Engine) Evaluate(text string) Evaluation {
	eval := Evaluation{Hits: []Hit{}, Reasons: []string{}}
	for _, r := range e.rules {
		if r.regex.MatchString(text) {
			eval.Score += r.increment
			eval.Hits = append(eval.Hits, Hit{Type: r.name})
			eval.Reasons = append(eval.Reasons, r.reason)
		}
	}
	return eval
}

// MaxScore is the sum of all increments, the upper bound of Evaluation.Score.
func (e *Engine) MaxScore() int {
	total := 0
	for _, r := range e.rules {
		total += r.increment
	}
	return total
}

// RuleCount returns the number of compiled rule categories.
func (e *Engine) RuleCount() int {
	return len(e.rules)
}
