// Package model provides Store, a lazily loaded holder of the vectorizer and classifier pair used for inference.
//
// The pair is loaded once, on the first use or eagerly by EnsureLoaded, and stays unchanged for the process
// lifetime. At most one load runs at a time, concurrent callers wait for it and get its result.
// A failed load is not remembered, the next call tries again.
package model

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/umputun/sms-spam/lib/bayes"
)

//go:generate moq --out mocks/loader.go --pkg mocks --with-resets --skip-ensure . Loader
//go:generate moq --out mocks/normalizer.go --pkg mocks --with-resets --skip-ensure . Normalizer

// ErrModelUnavailable returned by Classify when artifacts can't be loaded
var ErrModelUnavailable = errors.New("model unavailable")

// Loader reads the artifact pair from persistent storage
type Loader interface {
	Load() (Artifacts, error)
}

// Normalizer converts raw message to normalized text, must be the same as used for training
type Normalizer interface {
	Normalize(text string) string
}

// Artifacts is a loaded model, vectorizer and classifier trained together, and optional manifest
type Artifacts struct {
	Vectorizer *bayes.Vectorizer
	Classifier *bayes.Classifier
	Manifest   *Manifest
}

// Result is a classification result. Confidence is the probability of Label, always in [0.5, 1].
type Result struct {
	Label      bayes.Label `json:"label"`
	Confidence float64     `json:"confidence"`
}

// State of the store
type State int

// enum of store states
const (
	Unloaded State = iota
	Loading
	Loaded
	LoadFailed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "load failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store keeps the active artifact pair. Classify is lock-free once the pair is loaded.
type Store struct {
	loader     Loader
	normalizer Normalizer

	mu       sync.Mutex // guards state, inflight and lastErr
	state    State
	inflight *loadCall
	lastErr  error

	arts            atomic.Pointer[Artifacts]
	attempts        atomic.Int64
	restartRequired atomic.Bool
}

// loadCall is a load in progress, done is closed when err is set
type loadCall struct {
	done chan struct{}
	err  error
}

// NewStore makes a store in Unloaded state, nothing is read until the first use
func NewStore(loader Loader, normalizer Normalizer) *Store {
	return &Store{loader: loader, normalizer: normalizer}
}

// EnsureLoaded loads artifacts if not loaded yet and returns true if the model is ready
func (s *Store) EnsureLoaded() bool {
	return s.ensure() == nil
}

// Classify normalizes and classifies the message. Fails with ErrModelUnavailable only if artifacts can't be loaded.
func (s *Store) Classify(msg string) (Result, error) {
	if err := s.ensure(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	arts := s.arts.Load()
	x := arts.Vectorizer.Transform(s.normalizer.Normalize(msg))
	if x.IsZero() {
		log.Printf("[DEBUG] no known tokens in message, classified by class priors")
	}
	proba := arts.Classifier.PredictProba(x)
	res := Result{Label: bayes.Ham, Confidence: proba[bayes.Ham]}
	if proba[bayes.Spam] > proba[bayes.Ham] {
		res = Result{Label: bayes.Spam, Confidence: proba[bayes.Spam]}
	}
	return res, nil
}

// IsLoaded returns true if the artifact pair is loaded, never triggers loading
func (s *Store) IsLoaded() bool {
	return s.arts.Load() != nil
}

// State returns the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LoadAttempts returns the number of loads started so far
func (s *Store) LoadAttempts() int64 {
	return s.attempts.Load()
}

// LastError returns the error of the last failed load, nil if the last load succeeded or none was made
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Manifest returns the manifest loaded with artifacts, nil if not loaded or missing
func (s *Store) Manifest() *Manifest {
	arts := s.arts.Load()
	if arts == nil {
		return nil
	}
	return arts.Manifest
}

// RestartRequired returns true if artifact files changed after they were loaded
func (s *Store) RestartRequired() bool {
	return s.restartRequired.Load()
}

// ensure returns nil if the pair is loaded. Otherwise it starts a load or joins one in progress.
func (s *Store) ensure() error {
	if s.arts.Load() != nil {
		return nil
	}

	s.mu.Lock()
	if s.arts.Load() != nil {
		s.mu.Unlock()
		return nil
	}
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		<-call.done
		return call.err
	}
	call := &loadCall{done: make(chan struct{})}
	s.inflight = call
	s.state = Loading
	s.mu.Unlock()

	s.load(call)
	return call.err
}

// load runs the loader and publishes the outcome, waiters are released even if the loader panics
func (s *Store) load(call *loadCall) {
	var arts Artifacts
	call.err = errors.New("artifacts loader aborted")

	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.inflight = nil
		if call.err != nil {
			s.state = LoadFailed
			s.lastErr = call.err
			log.Printf("[WARN] failed to load model, attempt %d: %v", s.attempts.Load(), call.err)
		} else {
			s.arts.Store(&arts)
			s.state = Loaded
			s.lastErr = nil
			log.Printf("[INFO] model loaded, vocabulary size %d", arts.Vectorizer.Len())
		}
		close(call.done)
	}()

	s.attempts.Add(1)
	loaded, err := s.loader.Load()
	if err == nil {
		err = loaded.validate()
	}
	arts, call.err = loaded, err
}

func (a Artifacts) validate() error {
	if a.Vectorizer == nil || a.Classifier == nil {
		return errors.New("incomplete artifacts")
	}
	if a.Vectorizer.Len() != a.Classifier.Dim() {
		return fmt.Errorf("vectorizer has %d features, classifier expects %d", a.Vectorizer.Len(), a.Classifier.Dim())
	}
	return nil
}
