// Package bayes provides the count vectorizer and the multinomial naive Bayes classifier used for spam detection.
// Both are fit once at training time and treated as immutable afterwards, safe for concurrent reads.
package bayes

import (
	"fmt"
	"strings"
)

// Label is a class of a message
type Label int

// enum of labels, values match the stored feedback and training data
const (
	Ham  Label = 0
	Spam Label = 1
)

// nClasses is the number of classes, the model is binary
const nClasses = 2

// String returns human-readable label
func (l Label) String() string {
	switch l {
	case Ham:
		return "Not Spam"
	case Spam:
		return "Spam"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Validate checks if label is a known one
func (l Label) Validate() error {
	if l != Ham && l != Spam {
		return fmt.Errorf("invalid label %d", int(l))
	}
	return nil
}

// ParseLabel parses label from string, accepts "spam", "ham", "not spam", "1" and "0", case-insensitive
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spam", "1":
		return Spam, nil
	case "ham", "not spam", "notspam", "0":
		return Ham, nil
	}
	return 0, fmt.Errorf("can't parse label %q", s)
}
