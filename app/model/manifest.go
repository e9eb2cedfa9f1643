package model

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/umputun/sms-spam/lib/bayes"
)

// Manifest describes how the artifact pair was made. Informational, not required for loading.
type Manifest struct {
	RunID           string        `yaml:"run_id" json:"run_id"`
	Mode            string        `yaml:"mode" json:"mode"`
	TrainedAt       time.Time     `yaml:"trained_at" json:"trained_at"`
	CorpusSamples   int           `yaml:"corpus_samples" json:"corpus_samples"`
	FeedbackSamples int           `yaml:"feedback_samples" json:"feedback_samples"`
	Vocabulary      int           `yaml:"vocabulary" json:"vocabulary"`
	Alpha           float64       `yaml:"alpha" json:"alpha"`
	Holdout         *bayes.Report `yaml:"holdout,omitempty" json:"holdout,omitempty"`
}

// Write encodes manifest as yaml
func (m Manifest) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("can't encode manifest: %w", err)
	}
	return enc.Close()
}

// ReadManifest decodes yaml manifest
func ReadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("can't decode manifest: %w", err)
	}
	return m, nil
}

// ReadManifestFile reads manifest from file
func ReadManifestFile(path string) (Manifest, error) {
	fh, err := os.Open(path) //nolint:gosec // path is from app config
	if err != nil {
		return Manifest{}, err
	}
	defer fh.Close()
	m, err := ReadManifest(fh)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
