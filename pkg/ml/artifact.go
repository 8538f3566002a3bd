package ml

import (
	"encoding/json"
	"fmt"
)

// Standard artifact object names under a model_<version>/ prefix.
const (
	VectorizerFile = "vectorizer.json"
	ModelFile      = "model.json"
)

// VectorizerState is the serialized form of the fitted vectorizer.
type VectorizerState struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf_weights"`
	NGramMin    int            `json:"ngram_min"`
	NGramMax    int            `json:"ngram_max"`
	SublinearTF bool           `json:"sublinear_tf"`
}

// ClassifierState is the serialized form of the trained linear classifier.
// Outputs declares which inference outputs the stored model exposes
// ("probability", "margin", "label"); the loader picks the best one once.
type ClassifierState struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Classes []int     `json:"classes"`
	Outputs []string  `json:"outputs,omitempty"`
}

// Artifact holds the immutable model state shared by all detection requests.
// Loaded once at process start and never mutated, so concurrent reads need no
// locking.
type Artifact struct {
	Vocabulary map[string]int
	IDF        []float64
	Weights    []float64
	Bias       float64
	Classes    []int
	Mode       InferenceMode
}

// NewArtifact validates the two artifact halves and binds them into the
// shared read-only Artifact, fixing the inference mode from the outputs the
// classifier declares.
func NewArtifact(vs VectorizerState, cs ClassifierState) (*Artifact, error) {
	if len(vs.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer state has empty vocabulary")
	}
	if len(vs.IDF) != len(vs.Vocabulary) {
		return nil, fmt.Errorf("idf length %d does not match vocabulary size %d",
			len(vs.IDF), len(vs.Vocabulary))
	}
	if len(cs.Weights) != len(vs.Vocabulary) {
		return nil, fmt.Errorf("classifier weight length %d does not match vocabulary size %d",
			len(cs.Weights), len(vs.Vocabulary))
	}
	for term, idx := range vs.Vocabulary {
		if idx < 0 || idx >= len(vs.IDF) {
			return nil, fmt.Errorf("vocabulary term %q has out-of-range index %d", term, idx)
		}
	}

	classes := cs.Classes
	if len(classes) == 0 {
		classes = []int{0, 1}
	}

	return &Artifact{
		Vocabulary: vs.Vocabulary,
		IDF:        vs.IDF,
		Weights:    cs.Weights,
		Bias:       cs.Bias,
		Classes:    classes,
		Mode:       selectMode(cs.Outputs),
	}, nil
}

// ParseArtifact decodes the raw bytes of both artifact objects.
func ParseArtifact(vectorizerBytes, modelBytes []byte) (*Artifact, error) {
	var vs VectorizerState
	if err := json.Unmarshal(vectorizerBytes, &vs); err != nil {
		return nil, fmt.Errorf("decode vectorizer state: %w", err)
	}
	var cs ClassifierState
	if err := json.Unmarshal(modelBytes, &cs); err != nil {
		return nil, fmt.Errorf("decode classifier state: %w", err)
	}
	return NewArtifact(vs, cs)
}

// MarshalArtifact serializes an artifact back into its two object payloads.
// Used by the trainer to emit the exact contract the gateway consumes.
func MarshalArtifact(art *Artifact) (vectorizerBytes, modelBytes []byte, err error) {
	vs := VectorizerState{
		Vocabulary:  art.Vocabulary,
		IDF:         art.IDF,
		NGramMin:    1,
		NGramMax:    2,
		SublinearTF: true,
	}
	cs := ClassifierState{
		Weights: art.Weights,
		Bias:    art.Bias,
		Classes: art.Classes,
		Outputs: art.Mode.outputs(),
	}

	vectorizerBytes, err = json.Marshal(vs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode vectorizer state: %w", err)
	}
	modelBytes, err = json.Marshal(cs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode classifier state: %w", err)
	}
	return vectorizerBytes, modelBytes, nil
}

// ArtifactKeys returns the object keys for a model version, in the
// model_<version>/<file> layout the trainer uploads.
func ArtifactKeys(version string) (vectorizerKey, modelKey string) {
	base := "model_" + version
	return base + "/" + VectorizerFile, base + "/" + ModelFile
}
