package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Column name candidates seen across the messy public SMS/scam datasets.
var (
	textColumns  = []string{"sms_text", "text", "message", "smses", "sms", "content"}
	labelColumns = []string{"label_binary", "label", "labels", "target", "is_spam", "spam"}
)

// loadDataset reads a labelled CSV into parallel text/label slices.
// Ragged rows are tolerated; rows whose label cannot be interpreted default
// to 0, matching the training data cleanup of the original pipeline.
func loadDataset(path string) ([]string, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	textIdx, err := pickColumn(header, textColumns)
	if err != nil {
		return nil, nil, err
	}
	labelIdx, err := pickColumn(header, labelColumns)
	if err != nil {
		return nil, nil, err
	}

	var texts []string
	var labels []int
	for {
		row, err := r.Read()
		if err != nil {
			break // EOF or an unrecoverable parse error; keep what we have
		}
		if textIdx >= len(row) || labelIdx >= len(row) {
			continue
		}
		texts = append(texts, row[textIdx])
		labels = append(labels, parseLabel(row[labelIdx]))
	}

	if len(texts) == 0 {
		return nil, nil, fmt.Errorf("dataset %s has no usable rows", path)
	}
	return texts, labels, nil
}

// pickColumn returns the index of the first candidate present in the header
// (case-insensitive).
func pickColumn(header []string, candidates []string) (int, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, want := range candidates {
		for i, h := range normalized {
			if h == want {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("expected one of %v, got %v", candidates, header)
}

// parseLabel maps the label column to {0,1}. String labels spam/scam mean 1,
// ham/legit mean 0; anything unparseable defaults to 0.
func parseLabel(raw string) int {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "spam", "scam":
		return 1
	case "ham", "legit":
		return 0
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 1 {
		return 1
	}
	return 0
}
