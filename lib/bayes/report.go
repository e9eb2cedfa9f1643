package bayes

import (
	"fmt"
	"strings"
)

// ClassMetrics holds per-class quality metrics
type ClassMetrics struct {
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	Support   int     `json:"support" yaml:"support"`
}

// Report is a result of classifier evaluation on a labeled set
type Report struct {
	Accuracy  float64                 `json:"accuracy" yaml:"accuracy"`
	Confusion [nClasses][nClasses]int `json:"confusion" yaml:"confusion"` // [actual][predicted]
	Classes   [nClasses]ClassMetrics  `json:"classes" yaml:"classes"`
	Total     int                     `json:"total" yaml:"total"`
}

// Evaluate predicts every vector and compares with expected labels
func Evaluate(c *Classifier, xs []Vector, ys []Label) (Report, error) {
	if len(xs) != len(ys) {
		return Report{}, fmt.Errorf("samples and labels mismatch, %d != %d", len(xs), len(ys))
	}
	res := Report{Total: len(xs)}
	if len(xs) == 0 {
		return res, nil
	}
	for i, x := range xs {
		if err := ys[i].Validate(); err != nil {
			return Report{}, fmt.Errorf("sample %d: %w", i, err)
		}
		res.Confusion[ys[i]][c.Predict(x)]++
	}
	res.calc()
	return res, nil
}

func (r *Report) calc() {
	correct := 0
	for class := 0; class < nClasses; class++ {
		correct += r.Confusion[class][class]
	}
	r.Accuracy = float64(correct) / float64(r.Total)

	for class := 0; class < nClasses; class++ {
		tp := r.Confusion[class][class]
		predicted, actual := 0, 0
		for other := 0; other < nClasses; other++ {
			predicted += r.Confusion[other][class]
			actual += r.Confusion[class][other]
		}
		m := ClassMetrics{Support: actual}
		if predicted > 0 {
			m.Precision = float64(tp) / float64(predicted)
		}
		if actual > 0 {
			m.Recall = float64(tp) / float64(actual)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[class] = m
	}
}

// String renders the report as a text table
func (r Report) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support"))
	for class := 0; class < nClasses; class++ {
		m := r.Classes[class]
		sb.WriteString(fmt.Sprintf("%12s %10.2f %10.2f %10.2f %10d\n", Label(class), m.Precision, m.Recall, m.F1, m.Support))
	}
	sb.WriteString(fmt.Sprintf("%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.Total))
	return sb.String()
}
