package bayes

import (
	"errors"
	"fmt"
	"math"
)

// DefaultAlpha is the default additive (Laplace) smoothing parameter
const DefaultAlpha = 1.0

// Classifier is a multinomial naive Bayes classifier over token count vectors.
// Immutable after FitClassifier, safe for concurrent use.
type Classifier struct {
	alpha          float64
	dim            int
	classCount     [nClasses]float64   // number of training documents by class
	featureCount   [nClasses][]float64 // sum of feature values by class
	classLogPrior  [nClasses]float64
	featureLogProb [nClasses][]float64
}

// FitClassifier learns class priors and feature likelihoods from vectors and their labels.
// All vectors should have the same dimension and both classes should be present.
func FitClassifier(xs []Vector, ys []Label, alpha float64) (*Classifier, error) {
	if len(xs) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("samples and labels mismatch, %d != %d", len(xs), len(ys))
	}
	if alpha <= 0 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return nil, fmt.Errorf("invalid smoothing alpha %v", alpha)
	}

	dim := xs[0].Dim
	res := &Classifier{alpha: alpha, dim: dim}
	for c := 0; c < nClasses; c++ {
		res.featureCount[c] = make([]float64, dim)
	}

	for i, x := range xs {
		if x.Dim != dim {
			return nil, fmt.Errorf("sample %d has dimension %d, expected %d", i, x.Dim, dim)
		}
		if err := ys[i].Validate(); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		res.classCount[ys[i]]++
		for j, idx := range x.Indices {
			res.featureCount[ys[i]][idx] += x.Counts[j]
		}
	}

	for c := 0; c < nClasses; c++ {
		if res.classCount[c] == 0 {
			return nil, fmt.Errorf("no samples for class %q", Label(c))
		}
	}

	res.updateLogProbs()
	return res, nil
}

// updateLogProbs calculates smoothed log probabilities from counts
func (c *Classifier) updateLogProbs() {
	total := 0.0
	for _, n := range c.classCount {
		total += n
	}
	for class := 0; class < nClasses; class++ {
		c.classLogPrior[class] = math.Log(c.classCount[class] / total)

		sum := 0.0
		for _, v := range c.featureCount[class] {
			sum += v
		}
		denominator := math.Log(sum + c.alpha*float64(c.dim))
		c.featureLogProb[class] = make([]float64, c.dim)
		for j, v := range c.featureCount[class] {
			c.featureLogProb[class][j] = math.Log(v+c.alpha) - denominator
		}
	}
}

// Dim returns the dimension of vectors the classifier was trained on
func (c *Classifier) Dim() int {
	return c.dim
}

// Predict returns the most probable label for the vector, Ham on a tie
func (c *Classifier) Predict(x Vector) Label {
	jll := c.jointLogLikelihood(x)
	if jll[Spam] > jll[Ham] {
		return Spam
	}
	return Ham
}

// PredictProba returns probabilities of each class, indexed by Label
func (c *Classifier) PredictProba(x Vector) [nClasses]float64 {
	return softmax(c.jointLogLikelihood(x))
}

// jointLogLikelihood calculates unnormalized log posterior for each class.
// Elements out of the trained dimension are ignored, zero vector gets priors only.
func (c *Classifier) jointLogLikelihood(x Vector) [nClasses]float64 {
	res := c.classLogPrior
	for class := 0; class < nClasses; class++ {
		for j, idx := range x.Indices {
			if idx < 0 || idx >= c.dim {
				continue
			}
			res[class] += x.Counts[j] * c.featureLogProb[class][idx]
		}
	}
	return res
}

// softmax converts log probabilities to normalized probabilities, shifted by max to avoid underflow
func softmax(logProbs [nClasses]float64) [nClasses]float64 {
	maxLog := math.Inf(-1)
	for _, lp := range logProbs {
		maxLog = math.Max(maxLog, lp)
	}

	var probs [nClasses]float64
	sum := 0.0
	for i, lp := range logProbs {
		probs[i] = math.Exp(lp - maxLog)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
