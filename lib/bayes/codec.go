package bayes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// artifact kinds and format version, checked on read to detect swapped or foreign files
const (
	kindVectorizer = "count-vectorizer"
	kindClassifier = "multinomial-nb"
	formatVersion  = 1
)

type vectorizerFile struct {
	Kind       string   `json:"kind"`
	Version    int      `json:"version"`
	Vocabulary []string `json:"vocabulary"`
}

type classifierFile struct {
	Kind         string              `json:"kind"`
	Version      int                 `json:"version"`
	Alpha        float64             `json:"alpha"`
	Dim          int                 `json:"dim"`
	ClassCount   [nClasses]float64   `json:"class_count"`
	FeatureCount [nClasses][]float64 `json:"feature_count"`
}

// Write serializes vectorizer to w
func (v *Vectorizer) Write(w io.Writer) error {
	vf := vectorizerFile{Kind: kindVectorizer, Version: formatVersion, Vocabulary: v.terms}
	if err := json.NewEncoder(w).Encode(vf); err != nil {
		return fmt.Errorf("can't encode vectorizer: %w", err)
	}
	return nil
}

// ReadVectorizer deserializes and validates vectorizer written by Vectorizer.Write
func ReadVectorizer(r io.Reader) (*Vectorizer, error) {
	var vf vectorizerFile
	if err := json.NewDecoder(r).Decode(&vf); err != nil {
		return nil, fmt.Errorf("can't decode vectorizer: %w", err)
	}
	if vf.Kind != kindVectorizer {
		return nil, fmt.Errorf("unexpected artifact kind %q, expected %q", vf.Kind, kindVectorizer)
	}
	if vf.Version != formatVersion {
		return nil, fmt.Errorf("unsupported vectorizer version %d", vf.Version)
	}
	if len(vf.Vocabulary) == 0 {
		return nil, errors.New("empty vocabulary")
	}
	for i := 1; i < len(vf.Vocabulary); i++ {
		if vf.Vocabulary[i-1] >= vf.Vocabulary[i] {
			return nil, fmt.Errorf("vocabulary not sorted or has duplicates at %d", i)
		}
	}
	return newVectorizer(vf.Vocabulary), nil
}

// Write serializes classifier to w. Only counts are stored, probabilities are recalculated on read.
func (c *Classifier) Write(w io.Writer) error {
	cf := classifierFile{
		Kind:         kindClassifier,
		Version:      formatVersion,
		Alpha:        c.alpha,
		Dim:          c.dim,
		ClassCount:   c.classCount,
		FeatureCount: c.featureCount,
	}
	if err := json.NewEncoder(w).Encode(cf); err != nil {
		return fmt.Errorf("can't encode classifier: %w", err)
	}
	return nil
}

// ReadClassifier deserializes and validates classifier written by Classifier.Write
func ReadClassifier(r io.Reader) (*Classifier, error) {
	var cf classifierFile
	if err := json.NewDecoder(r).Decode(&cf); err != nil {
		return nil, fmt.Errorf("can't decode classifier: %w", err)
	}
	if cf.Kind != kindClassifier {
		return nil, fmt.Errorf("unexpected artifact kind %q, expected %q", cf.Kind, kindClassifier)
	}
	if cf.Version != formatVersion {
		return nil, fmt.Errorf("unsupported classifier version %d", cf.Version)
	}
	if !validNumber(cf.Alpha) || cf.Alpha <= 0 {
		return nil, fmt.Errorf("invalid alpha %v", cf.Alpha)
	}
	if cf.Dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", cf.Dim)
	}
	for class := 0; class < nClasses; class++ {
		if !validNumber(cf.ClassCount[class]) || cf.ClassCount[class] <= 0 {
			return nil, fmt.Errorf("invalid count %v for class %q", cf.ClassCount[class], Label(class))
		}
		if len(cf.FeatureCount[class]) != cf.Dim {
			return nil, fmt.Errorf("feature counts for class %q has %d elements, expected %d",
				Label(class), len(cf.FeatureCount[class]), cf.Dim)
		}
		for j, v := range cf.FeatureCount[class] {
			if !validNumber(v) || v < 0 {
				return nil, fmt.Errorf("invalid feature count %v at %d for class %q", v, j, Label(class))
			}
		}
	}

	res := &Classifier{alpha: cf.Alpha, dim: cf.Dim, classCount: cf.ClassCount, featureCount: cf.FeatureCount}
	res.updateLogProbs()
	return res, nil
}

func validNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
