// Package retrain builds the model artifacts offline. Train fits a model on the base corpus and evaluates it on
// a holdout part, Retrain fits on the whole corpus plus labeled user feedback. Both replace the artifact pair
// atomically, the serving process picks the new pair up on restart.
package retrain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/sms-spam/app/model"
	"github.com/umputun/sms-spam/app/storage"
	"github.com/umputun/sms-spam/lib/bayes"
)

//go:generate moq --out mocks/feedback_reader.go --pkg mocks --with-resets --skip-ensure . FeedbackReader

// ErrInsufficientData returned when there are not enough samples to train, nothing is written in this case
var ErrInsufficientData = errors.New("insufficient data")

// DefaultMinFeedback is the minimal number of labeled feedback records for retraining
const DefaultMinFeedback = 10

// holdout split parameters of Train
const (
	splitSeed     = 42
	holdoutShare  = 0.2
	minHoldoutLen = 1
)

// FeedbackReader provides labeled feedback
type FeedbackReader interface {
	ReadLabeled(ctx context.Context) ([]storage.LabeledMessage, error)
}

// Params of a Job
type Params struct {
	CorpusFile     string
	VectorizerFile string
	ClassifierFile string
	ManifestFile   string // optional
	MinFeedback    int    // DefaultMinFeedback if zero
	Alpha          float64
	Feedback       FeedbackReader // used by Retrain only
	Normalizer     model.Normalizer
}

// Job makes new artifacts from the corpus and feedback
type Job struct {
	Params
}

// Result describes a completed training run
type Result struct {
	RunID           string
	CorpusSamples   int
	FeedbackSamples int
	Vocabulary      int
	Holdout         *bayes.Report // Train only
}

// New makes a Job with defaults applied
func New(p Params) *Job {
	if p.MinFeedback == 0 {
		p.MinFeedback = DefaultMinFeedback
	}
	if p.Alpha <= 0 {
		p.Alpha = bayes.DefaultAlpha
	}
	return &Job{Params: p}
}

// Retrain fits a new model on the corpus and all labeled feedback and replaces artifacts.
// Returns ErrInsufficientData without touching artifacts if there is less than MinFeedback labeled records.
func (j *Job) Retrain(ctx context.Context) (Result, error) {
	if j.Feedback == nil {
		return Result{}, errors.New("no feedback reader")
	}
	feedback, err := j.Feedback.ReadLabeled(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("can't read feedback: %w", err)
	}
	if len(feedback) < j.MinFeedback {
		return Result{}, fmt.Errorf("%w: %d labeled feedback records, need at least %d",
			ErrInsufficientData, len(feedback), j.MinFeedback)
	}

	corpus, err := LoadCorpusFile(j.CorpusFile)
	if err != nil {
		return Result{}, err
	}
	samples := make([]Sample, 0, len(corpus)+len(feedback))
	samples = append(samples, corpus...)
	for _, f := range feedback {
		samples = append(samples, Sample{Text: f.Message, Label: f.Label})
	}
	log.Printf("[INFO] retraining on %d samples, corpus: %d, feedback: %d", len(samples), len(corpus), len(feedback))

	texts, labels, err := j.normalize(ctx, samples)
	if err != nil {
		return Result{}, err
	}
	vec, err := bayes.FitVectorizer(texts)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInsufficientData, err)
	}
	clf, err := bayes.FitClassifier(transform(vec, texts), labels, j.Alpha)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInsufficientData, err)
	}

	res := Result{RunID: uuid.New().String(), CorpusSamples: len(corpus), FeedbackSamples: len(feedback),
		Vocabulary: vec.Len()}
	if err := j.save(vec, clf, "retrain", res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Train fits a model on the corpus only. Samples are shuffled with a fixed seed, the first 20% kept for
// evaluation and the model fitted on the rest. The vocabulary is learned from all samples.
func (j *Job) Train(ctx context.Context) (Result, error) {
	corpus, err := LoadCorpusFile(j.CorpusFile)
	if err != nil {
		return Result{}, err
	}
	if len(corpus) < 2 {
		return Result{}, fmt.Errorf("%w: %d samples in corpus", ErrInsufficientData, len(corpus))
	}
	log.Printf("[INFO] training on %d samples", len(corpus))

	texts, labels, err := j.normalize(ctx, corpus)
	if err != nil {
		return Result{}, err
	}
	vec, err := bayes.FitVectorizer(texts)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInsufficientData, err)
	}
	xs := transform(vec, texts)

	perm := rand.New(rand.NewSource(splitSeed)).Perm(len(xs)) //nolint:gosec // reproducible split, not security
	testLen := max(int(float64(len(xs))*holdoutShare+0.5), minHoldoutLen)
	var trainX, testX []bayes.Vector
	var trainY, testY []bayes.Label
	for i, idx := range perm {
		if i < testLen {
			testX, testY = append(testX, xs[idx]), append(testY, labels[idx])
			continue
		}
		trainX, trainY = append(trainX, xs[idx]), append(trainY, labels[idx])
	}

	clf, err := bayes.FitClassifier(trainX, trainY, j.Alpha)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInsufficientData, err)
	}
	report, err := bayes.Evaluate(clf, testX, testY)
	if err != nil {
		return Result{}, fmt.Errorf("can't evaluate model: %w", err)
	}
	log.Printf("[INFO] holdout accuracy %.4f on %d samples\n%s", report.Accuracy, report.Total, report)

	res := Result{RunID: uuid.New().String(), CorpusSamples: len(corpus), Vocabulary: vec.Len(), Holdout: &report}
	if err := j.save(vec, clf, "train", res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// normalize prepares texts the same way the serving path does
func (j *Job) normalize(ctx context.Context, samples []Sample) (texts []string, labels []bayes.Label, err error) {
	texts = make([]string, len(samples))
	labels = make([]bayes.Label, len(samples))
	for i, s := range samples {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		texts[i] = j.Normalizer.Normalize(s.Text)
		labels[i] = s.Label
	}
	return texts, labels, nil
}

func transform(vec *bayes.Vectorizer, texts []string) []bayes.Vector {
	res := make([]bayes.Vector, len(texts))
	for i, t := range texts {
		res[i] = vec.Transform(t)
	}
	return res
}

// save writes the artifact pair and manifest together
func (j *Job) save(vec *bayes.Vectorizer, clf *bayes.Classifier, mode string, res Result) error {
	files := []artifact{
		{path: j.VectorizerFile, write: vec.Write},
		{path: j.ClassifierFile, write: clf.Write},
	}
	if j.ManifestFile != "" {
		m := model.Manifest{RunID: res.RunID, Mode: mode, TrainedAt: time.Now().UTC(), CorpusSamples: res.CorpusSamples,
			FeedbackSamples: res.FeedbackSamples, Vocabulary: res.Vocabulary, Alpha: j.Alpha, Holdout: res.Holdout}
		files = append(files, artifact{path: j.ManifestFile, write: func(w io.Writer) error { return m.Write(w) }})
	}
	if err := writeAll(files...); err != nil {
		return fmt.Errorf("can't save model: %w", err)
	}
	log.Printf("[INFO] model saved, run %s, vocabulary %d, files: %s, %s", res.RunID, res.Vocabulary,
		j.VectorizerFile, j.ClassifierFile)
	return nil
}
