package model

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/umputun/sms-spam/lib/bayes"
)

// FileLoader loads artifacts from files. ManifestFile is optional.
type FileLoader struct {
	VectorizerFile string
	ClassifierFile string
	ManifestFile   string
}

// Load reads both artifacts and the manifest if present
func (l FileLoader) Load() (Artifacts, error) {
	vf, err := os.Open(l.VectorizerFile)
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to open vectorizer: %w", err)
	}
	defer vf.Close()
	vec, err := bayes.ReadVectorizer(vf)
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to load vectorizer from %s: %w", l.VectorizerFile, err)
	}

	cf, err := os.Open(l.ClassifierFile)
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to open classifier: %w", err)
	}
	defer cf.Close()
	clf, err := bayes.ReadClassifier(cf)
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to load classifier from %s: %w", l.ClassifierFile, err)
	}

	res := Artifacts{Vectorizer: vec, Classifier: clf}
	if l.ManifestFile == "" {
		return res, nil
	}
	m, err := ReadManifestFile(l.ManifestFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("[DEBUG] no model manifest %s", l.ManifestFile)
	case err != nil:
		log.Printf("[WARN] ignoring model manifest: %v", err)
	default:
		res.Manifest = &m
	}
	return res, nil
}
