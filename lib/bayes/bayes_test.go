package bayes

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testCorpus = []string{"free prize win", "win cash", "meet lunch", "lunch tomorrow meet"}
	testLabels = []Label{Spam, Spam, Ham, Ham}
)

func fitTest(t *testing.T, corpus []string, labels []Label) (*Vectorizer, *Classifier) {
	t.Helper()
	vec, err := FitVectorizer(corpus)
	require.NoError(t, err)
	xs := make([]Vector, len(corpus))
	for i, doc := range corpus {
		xs[i] = vec.Transform(doc)
	}
	clf, err := FitClassifier(xs, labels, DefaultAlpha)
	require.NoError(t, err)
	return vec, clf
}

// dense returns the full representation of the vector
func dense(v Vector) []float64 {
	res := make([]float64, v.Dim)
	for i, idx := range v.Indices {
		res[idx] = v.Counts[i]
	}
	return res
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"free", "prize", "win"}, Tokens("free prize win"))
	assert.Equal(t, []string{"ok", "lar"}, Tokens("ok lar u"), "single character tokens dropped")
	assert.Equal(t, []string{"foo_bar", "42"}, Tokens("Foo_Bar, 42!"))
	assert.Empty(t, Tokens(""))
	assert.Empty(t, Tokens("  a b c "))
}

func TestFitVectorizer(t *testing.T) {
	vec, err := FitVectorizer(testCorpus)
	require.NoError(t, err)
	assert.Equal(t, []string{"cash", "free", "lunch", "meet", "prize", "tomorrow", "win"}, vec.terms)
	assert.Equal(t, 7, vec.Len())

	idx, ok := vec.vocabulary["win"]
	assert.True(t, ok)
	assert.Equal(t, 6, idx)
	_, ok = vec.vocabulary["unknown"]
	assert.False(t, ok)

	_, err = FitVectorizer([]string{"", "a b"})
	assert.Error(t, err, "no tokens in corpus")
	_, err = FitVectorizer(nil)
	assert.Error(t, err)
}

func TestVectorizer_Transform(t *testing.T) {
	vec, err := FitVectorizer(testCorpus)
	require.NoError(t, err)

	tests := []struct {
		name    string
		text    string
		indices []int
		counts  []float64
	}{
		{"known tokens", "win free", []int{1, 6}, []float64{1, 1}},
		{"repeated tokens", "win win cash win", []int{0, 6}, []float64{1, 3}},
		{"unknown tokens ignored", "win lottery jackpot", []int{6}, []float64{1}},
		{"all unknown", "lottery jackpot", nil, nil},
		{"empty", "", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := vec.Transform(tt.text)
			assert.Equal(t, 7, v.Dim)
			assert.Equal(t, tt.indices, v.Indices)
			assert.Equal(t, tt.counts, v.Counts)
			assert.Equal(t, len(tt.indices) == 0, v.IsZero())
			assert.Len(t, dense(v), 7)
		})
	}

	v := vec.Transform("win win cash")
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 0, 2}, dense(v))
}

func TestFitClassifier_Errors(t *testing.T) {
	x := Vector{Dim: 2, Indices: []int{0}, Counts: []float64{1}}
	tests := []struct {
		name  string
		xs    []Vector
		ys    []Label
		alpha float64
	}{
		{"no samples", nil, nil, 1},
		{"labels mismatch", []Vector{x, x}, []Label{Spam}, 1},
		{"bad alpha", []Vector{x, x}, []Label{Spam, Ham}, 0},
		{"dimension mismatch", []Vector{x, {Dim: 3}}, []Label{Spam, Ham}, 1},
		{"invalid label", []Vector{x, x}, []Label{Spam, Label(2)}, 1},
		{"single class", []Vector{x, x}, []Label{Spam, Spam}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitClassifier(tt.xs, tt.ys, tt.alpha)
			assert.Error(t, err)
		})
	}
}

func TestClassifier_Predict(t *testing.T) {
	vec, clf := fitTest(t, testCorpus, testLabels)
	assert.Equal(t, 7, clf.Dim())

	tests := []struct {
		name     string
		text     string
		expected Label
		spamProb float64
	}{
		{"spam tokens", "free prize", Spam, 0.8},
		{"ham tokens", "meet lunch", Ham, 0.1},
		{"mixed, more ham", "free meet lunch", Ham, 2.0 / 11},
		{"zero vector, equal priors", "", Ham, 0.5},
		{"unknown tokens only", "lottery", Ham, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := vec.Transform(tt.text)
			assert.Equal(t, tt.expected, clf.Predict(x))
			proba := clf.PredictProba(x)
			assert.InDelta(t, tt.spamProb, proba[Spam], 1e-9)
			assert.InDelta(t, 1.0, proba[Spam]+proba[Ham], 1e-9)
		})
	}
}

func TestClassifier_MajorityClassOnZeroVector(t *testing.T) {
	corpus := []string{"win cash", "free prize", "claim prize", "meet lunch"}
	labels := []Label{Spam, Spam, Spam, Ham}
	vec, clf := fitTest(t, corpus, labels)
	x := vec.Transform("")
	assert.Equal(t, Spam, clf.Predict(x))
	assert.InDelta(t, 0.75, clf.PredictProba(x)[Spam], 1e-9)
}

func TestClassifier_OutOfRangeIndicesIgnored(t *testing.T) {
	_, clf := fitTest(t, testCorpus, testLabels)
	x := Vector{Dim: 100, Indices: []int{-1, 50}, Counts: []float64{3, 4}}
	assert.Equal(t, Ham, clf.Predict(x))
	assert.InDelta(t, 0.5, clf.PredictProba(x)[Spam], 1e-9)
}

func TestClassifier_LongMessageNoUnderflow(t *testing.T) {
	vec, clf := fitTest(t, testCorpus, testLabels)
	x := vec.Transform(strings.Repeat("win prize free cash ", 2000))
	proba := clf.PredictProba(x)
	assert.Equal(t, Spam, clf.Predict(x))
	assert.InDelta(t, 1.0, proba[Spam], 1e-9)
}

func TestCodec_WriteRead(t *testing.T) {
	vec, clf := fitTest(t, testCorpus, testLabels)

	var vbuf, cbuf bytes.Buffer
	require.NoError(t, vec.Write(&vbuf))
	require.NoError(t, clf.Write(&cbuf))

	vec2, err := ReadVectorizer(&vbuf)
	require.NoError(t, err)
	clf2, err := ReadClassifier(&cbuf)
	require.NoError(t, err)

	assert.Equal(t, vec.terms, vec2.terms)
	for _, text := range []string{"free prize", "meet lunch", "", "win tomorrow cash"} {
		assert.Equal(t, clf.PredictProba(vec.Transform(text)), clf2.PredictProba(vec2.Transform(text)), text)
	}
}

func TestCodec_ReadCorrupted(t *testing.T) {
	t.Run("vectorizer", func(t *testing.T) {
		tests := []struct {
			name string
			data string
		}{
			{"not json", "blah"},
			{"empty", ""},
			{"wrong kind", `{"kind":"multinomial-nb","version":1,"vocabulary":["a"]}`},
			{"wrong version", `{"kind":"count-vectorizer","version":2,"vocabulary":["aa"]}`},
			{"empty vocabulary", `{"kind":"count-vectorizer","version":1,"vocabulary":[]}`},
			{"not sorted", `{"kind":"count-vectorizer","version":1,"vocabulary":["bb","aa"]}`},
			{"duplicates", `{"kind":"count-vectorizer","version":1,"vocabulary":["aa","aa"]}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ReadVectorizer(strings.NewReader(tt.data))
				assert.Error(t, err)
			})
		}
	})

	t.Run("classifier", func(t *testing.T) {
		tests := []struct {
			name string
			data string
		}{
			{"not json", "{{{"},
			{"wrong kind", `{"kind":"count-vectorizer","version":1}`},
			{"bad alpha", `{"kind":"multinomial-nb","version":1,"alpha":0,"dim":1,"class_count":[1,1],"feature_count":[[1],[1]]}`},
			{"bad dim", `{"kind":"multinomial-nb","version":1,"alpha":1,"dim":0,"class_count":[1,1],"feature_count":[[],[]]}`},
			{"missing class", `{"kind":"multinomial-nb","version":1,"alpha":1,"dim":1,"class_count":[0,1],"feature_count":[[1],[1]]}`},
			{"short features", `{"kind":"multinomial-nb","version":1,"alpha":1,"dim":2,"class_count":[1,1],"feature_count":[[1],[1,1]]}`},
			{"negative count", `{"kind":"multinomial-nb","version":1,"alpha":1,"dim":1,"class_count":[1,1],"feature_count":[[-1],[1]]}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ReadClassifier(strings.NewReader(tt.data))
				assert.Error(t, err)
			})
		}
	})
}

func TestEvaluate(t *testing.T) {
	vec, clf := fitTest(t, testCorpus, testLabels)
	texts := []string{"free prize", "win cash", "meet lunch", "free lunch meet", "win prize"}
	labels := []Label{Spam, Spam, Ham, Spam, Ham}
	xs := make([]Vector, len(texts))
	for i, text := range texts {
		xs[i] = vec.Transform(text)
	}

	rep, err := Evaluate(clf, xs, labels)
	require.NoError(t, err)
	// predictions: spam, spam, ham, ham, spam
	assert.Equal(t, [2][2]int{{1, 1}, {1, 2}}, rep.Confusion)
	assert.Equal(t, 5, rep.Total)
	assert.InDelta(t, 0.6, rep.Accuracy, 1e-9)
	assert.InDelta(t, 2.0/3, rep.Classes[Spam].Precision, 1e-9)
	assert.InDelta(t, 2.0/3, rep.Classes[Spam].Recall, 1e-9)
	assert.InDelta(t, 0.5, rep.Classes[Ham].Precision, 1e-9)
	assert.InDelta(t, 0.5, rep.Classes[Ham].Recall, 1e-9)
	assert.Equal(t, 3, rep.Classes[Spam].Support)
	assert.Equal(t, 2, rep.Classes[Ham].Support)
	t.Log("\n" + rep.String())
	assert.Contains(t, rep.String(), "Not Spam")
	assert.Contains(t, rep.String(), "accuracy")

	_, err = Evaluate(clf, xs, labels[:1])
	assert.Error(t, err)
	empty, err := Evaluate(clf, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Spam", Spam.String())
	assert.Equal(t, "Not Spam", Ham.String())
	assert.Equal(t, "Label(5)", Label(5).String())
	assert.NoError(t, Spam.Validate())
	assert.Error(t, Label(-1).Validate())

	for inp, want := range map[string]Label{"spam": Spam, "SPAM": Spam, "1": Spam, "ham": Ham, "Not Spam": Ham, " 0 ": Ham} {
		l, err := ParseLabel(inp)
		require.NoError(t, err, inp)
		assert.Equal(t, want, l, inp)
	}
	_, err := ParseLabel("maybe")
	assert.Error(t, err)
}
