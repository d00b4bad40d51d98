// Package classifier wraps the external zero-shot classification model.
//
// The model itself is a black box: it receives a prompt and the full label set
// and returns an independent confidence per label (multi-label, scores need
// not sum to one).
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrFailure is returned when the model produced no usable output.
// Callers must not interpret partial results accompanying it.
var ErrFailure = errors.New("classification failed")

// Scores maps label name to confidence in [0, 1].
type Scores map[string]float64

// Missing returns the labels without a score, in input order.
func (s Scores) Missing(labels []string) []string {
	var missing []string
	for _, l := range labels {
		if _, ok := s[l]; !ok {
			missing = append(missing, l)
		}
	}
	return missing
}

// Covers checks that every label has a score in [0, 1].
func (s Scores) Covers(labels []string) error {
	if missing := s.Missing(labels); len(missing) > 0 {
		return fmt.Errorf("%w: no score for %s", ErrFailure, strings.Join(missing, ", "))
	}
	for _, l := range labels {
		if v := s[l]; !(v >= 0 && v <= 1) {
			return fmt.Errorf("%w: score %v for %q outside [0,1]", ErrFailure, v, l)
		}
	}
	return nil
}

// Classifier scores a prompt against a set of candidate labels.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, prompt string, labels []string) (Scores, error)
}

// Func adapts an ordinary function to the Classifier interface.
type Func func(ctx context.Context, prompt string, labels []string) (Scores, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, prompt string, labels []string) (Scores, error) {
	return f(ctx, prompt, labels)
}

// checkInput enforces the adapter's input constraints before any model call.
func checkInput(prompt string, labels []string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: empty prompt", ErrFailure)
	}
	if len(labels) == 0 {
		return fmt.Errorf("%w: no candidate labels", ErrFailure)
	}
	return nil
}
