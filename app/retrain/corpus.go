package retrain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/umputun/sms-spam/lib/bayes"
)

// Sample is a labeled message
type Sample struct {
	Text  string
	Label bayes.Label
}

// LoadCorpus reads labeled messages from csv with a header. The header should have "label" column
// and "text" or "message" column, other columns are ignored. Labels are ham/spam or 0/1.
func LoadCorpus(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty corpus, no header")
		}
		return nil, fmt.Errorf("can't read corpus header: %w", err)
	}
	labelCol, textCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "label":
			labelCol = i
		case "text", "message":
			if textCol < 0 {
				textCol = i
			}
		}
	}
	if labelCol < 0 || textCol < 0 {
		return nil, fmt.Errorf("corpus header %v should have label and text columns", header)
	}

	var res []Sample
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("can't read corpus: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if labelCol >= len(rec) || textCol >= len(rec) {
			return nil, fmt.Errorf("line %d: expected at least %d columns, got %d", line, max(labelCol, textCol)+1, len(rec))
		}
		label, err := bayes.ParseLabel(rec[labelCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		res = append(res, Sample{Text: rec[textCol], Label: label})
	}
	return res, nil
}

// LoadCorpusFile reads corpus from csv file
func LoadCorpusFile(path string) ([]Sample, error) {
	fh, err := os.Open(path) //nolint:gosec // path is from app config
	if err != nil {
		return nil, fmt.Errorf("can't open corpus: %w", err)
	}
	defer fh.Close()
	res, err := LoadCorpus(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
