package retrain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/sms-spam/app/model"
	"github.com/umputun/sms-spam/app/retrain/mocks"
	"github.com/umputun/sms-spam/app/storage"
	"github.com/umputun/sms-spam/lib/bayes"
	"github.com/umputun/sms-spam/lib/textproc"
)

const testCorpus = `label,text
spam,"WINNER! Claim your free prize now"
spam,"Free cash reward, text WIN now"
spam,"Urgent: you won a free holiday, claim now"
spam,"Win a brand new phone, free entry"
spam,"Claim free cash prize today"
ham,"Are we meeting for lunch tomorrow?"
ham,"I will call you later tonight"
ham,"See you at lunch, running late"
ham,"Can you pick up milk on the way home"
ham,"Happy birthday, see you at dinner"
`

func writeCorpus(t *testing.T, dir, data string) string {
	t.Helper()
	file := filepath.Join(dir, "spam_ham_dataset.csv")
	require.NoError(t, os.WriteFile(file, []byte(data), 0o600))
	return file
}

func testParams(t *testing.T, fb FeedbackReader) Params {
	t.Helper()
	dir := t.TempDir()
	return Params{
		CorpusFile:     writeCorpus(t, dir, testCorpus),
		VectorizerFile: filepath.Join(dir, "models", "cv-transform.json"),
		ClassifierFile: filepath.Join(dir, "models", "spam-sms-mnb-model.json"),
		ManifestFile:   filepath.Join(dir, "models", "manifest.yml"),
		Feedback:       fb,
		Normalizer:     textproc.NewNormalizer(100),
	}
}

func feedbackReader(n int, label bayes.Label) *mocks.FeedbackReaderMock {
	return &mocks.FeedbackReaderMock{ReadLabeledFunc: func(ctx context.Context) ([]storage.LabeledMessage, error) {
		res := make([]storage.LabeledMessage, n)
		for i := range res {
			res[i] = storage.LabeledMessage{Message: fmt.Sprintf("Your lottery ticket #%d has been selected", i), Label: label}
		}
		return res, nil
	}}
}

func TestNew_Defaults(t *testing.T) {
	job := New(Params{})
	assert.Equal(t, DefaultMinFeedback, job.MinFeedback)
	assert.InDelta(t, bayes.DefaultAlpha, job.Alpha, 1e-9)

	job = New(Params{MinFeedback: 3, Alpha: 0.5})
	assert.Equal(t, 3, job.MinFeedback)
	assert.InDelta(t, 0.5, job.Alpha, 1e-9)
}

func TestJob_Retrain(t *testing.T) {
	fb := feedbackReader(10, bayes.Spam)
	p := testParams(t, fb)

	store := model.NewStore(model.FileLoader{VectorizerFile: p.VectorizerFile, ClassifierFile: p.ClassifierFile},
		textproc.NewNormalizer(10))
	_, err := store.Classify("lottery ticket selected")
	require.ErrorIs(t, err, model.ErrModelUnavailable, "no artifacts yet")

	res, err := New(p).Retrain(context.Background())
	require.NoError(t, err)
	assert.Len(t, fb.ReadLabeledCalls(), 1)
	assert.Equal(t, 10, res.CorpusSamples)
	assert.Equal(t, 10, res.FeedbackSamples)
	assert.NotEmpty(t, res.RunID)
	assert.Positive(t, res.Vocabulary)
	assert.Nil(t, res.Holdout)

	// store retries the load and picks up the new pair
	cl, err := store.Classify("lottery ticket selected")
	require.NoError(t, err)
	assert.Equal(t, bayes.Spam, cl.Label, "learned from feedback")
	cl, err = store.Classify("see you at lunch")
	require.NoError(t, err)
	assert.Equal(t, bayes.Ham, cl.Label)

	m, err := model.ReadManifestFile(p.ManifestFile)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, m.RunID)
	assert.Equal(t, "retrain", m.Mode)
	assert.Equal(t, 10, m.FeedbackSamples)
	assert.Equal(t, res.Vocabulary, m.Vocabulary)
	assert.WithinDuration(t, time.Now(), m.TrainedAt, time.Minute)
}

func TestJob_RetrainInsufficientFeedback(t *testing.T) {
	p := testParams(t, feedbackReader(9, bayes.Spam))

	// existing pair from an earlier run
	_, err := New(p).Train(context.Background())
	require.NoError(t, err)
	files := []string{p.VectorizerFile, p.ClassifierFile, p.ManifestFile}
	before := make(map[string][]byte)
	modTimes := make(map[string]time.Time)
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		before[f] = data
		st, err := os.Stat(f)
		require.NoError(t, err)
		modTimes[f] = st.ModTime()
	}

	_, err = New(p).Retrain(context.Background())
	require.ErrorIs(t, err, ErrInsufficientData)
	assert.Contains(t, err.Error(), "9 labeled feedback records, need at least 10")

	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.Equal(t, before[f], data, "content of %s unchanged", f)
		st, err := os.Stat(f)
		require.NoError(t, err)
		assert.Equal(t, modTimes[f], st.ModTime(), "mod time of %s unchanged", f)
	}

	p.MinFeedback = 5
	_, err = New(p).Retrain(context.Background())
	assert.NoError(t, err, "lower threshold passes")
}

func TestJob_RetrainNoArtifactsOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(p *Params)
		wantErr error
	}{
		{"no feedback", func(p *Params) { p.Feedback = feedbackReader(0, bayes.Spam) }, ErrInsufficientData},
		{"feedback read error", func(p *Params) {
			p.Feedback = &mocks.FeedbackReaderMock{ReadLabeledFunc: func(context.Context) ([]storage.LabeledMessage, error) {
				return nil, fmt.Errorf("%w: db is gone", storage.ErrPersistence)
			}}
		}, storage.ErrPersistence},
		{"missing corpus", func(p *Params) { p.CorpusFile = filepath.Join(t.TempDir(), "nope.csv") }, os.ErrNotExist},
		{"no feedback reader", func(p *Params) { p.Feedback = nil }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(t, feedbackReader(10, bayes.Spam))
			tt.prepare(&p)
			_, err := New(p).Retrain(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			_, err = os.Stat(p.VectorizerFile)
			assert.True(t, errors.Is(err, os.ErrNotExist))
			_, err = os.Stat(p.ClassifierFile)
			assert.True(t, errors.Is(err, os.ErrNotExist))
		})
	}
}

func TestJob_Train(t *testing.T) {
	p := testParams(t, nil)
	res, err := New(p).Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, res.CorpusSamples)
	assert.Equal(t, 0, res.FeedbackSamples)
	require.NotNil(t, res.Holdout)
	assert.Equal(t, 2, res.Holdout.Total)
	assert.GreaterOrEqual(t, res.Holdout.Accuracy, 0.0)
	assert.LessOrEqual(t, res.Holdout.Accuracy, 1.0)

	m, err := model.ReadManifestFile(p.ManifestFile)
	require.NoError(t, err)
	assert.Equal(t, "train", m.Mode)
	require.NotNil(t, m.Holdout)
	assert.Equal(t, *res.Holdout, *m.Holdout)

	store := model.NewStore(model.FileLoader{VectorizerFile: p.VectorizerFile, ClassifierFile: p.ClassifierFile,
		ManifestFile: p.ManifestFile}, textproc.NewNormalizer(10))
	require.True(t, store.EnsureLoaded())
	assert.Equal(t, res.RunID, store.Manifest().RunID)

	// same corpus, same split and same model
	vec1, err := os.ReadFile(p.VectorizerFile)
	require.NoError(t, err)
	clf1, err := os.ReadFile(p.ClassifierFile)
	require.NoError(t, err)
	res2, err := New(p).Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, *res.Holdout, *res2.Holdout)
	vec2, err := os.ReadFile(p.VectorizerFile)
	require.NoError(t, err)
	clf2, err := os.ReadFile(p.ClassifierFile)
	require.NoError(t, err)
	assert.Equal(t, vec1, vec2)
	assert.Equal(t, clf1, clf2)
}

func TestJob_TrainThenClassify(t *testing.T) {
	p := testParams(t, nil)
	_, err := New(p).Train(context.Background())
	require.NoError(t, err)

	store := model.NewStore(model.FileLoader{VectorizerFile: p.VectorizerFile, ClassifierFile: p.ClassifierFile,
		ManifestFile: p.ManifestFile}, textproc.NewNormalizer(10))

	tests := []struct {
		msg  string
		want bayes.Label
	}{
		{"Win a free prize now!!!", bayes.Spam},
		{"Let's meet for lunch tomorrow", bayes.Ham},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			res, err := store.Classify(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Label)
			assert.GreaterOrEqual(t, res.Confidence, 0.5)
			assert.LessOrEqual(t, res.Confidence, 1.0)
		})
	}
	assert.Equal(t, int64(1), store.LoadAttempts())
}

func TestJob_TrainWithoutManifest(t *testing.T) {
	p := testParams(t, nil)
	p.ManifestFile = ""
	_, err := New(p).Train(context.Background())
	require.NoError(t, err)
	assertOnlyFiles(t, filepath.Dir(p.VectorizerFile), "cv-transform.json", "spam-sms-mnb-model.json")
}

func TestJob_TrainInsufficient(t *testing.T) {
	tests := []struct {
		name   string
		corpus string
	}{
		{"empty", "label,text\n"},
		{"single row", "label,text\nspam,win cash\n"},
		{"single class", "label,text\nspam,win cash\nspam,free prize\nspam,claim now\n"},
		{"no tokens", "label,text\nspam,!!!\nham,a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(t, nil)
			p.CorpusFile = writeCorpus(t, t.TempDir(), tt.corpus)
			_, err := New(p).Train(context.Background())
			assert.ErrorIs(t, err, ErrInsufficientData)
			_, err = os.Stat(p.VectorizerFile)
			assert.True(t, errors.Is(err, os.ErrNotExist))
		})
	}
}

func TestJob_Canceled(t *testing.T) {
	p := testParams(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(p).Train(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
