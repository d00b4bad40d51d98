package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// WithTimeout bounds every call to c. An expired deadline is reported as ErrFailure.
func WithTimeout(c Classifier, d time.Duration) Classifier {
	if d <= 0 {
		return c
	}

	return Func(func(ctx context.Context, prompt string, labels []string) (Scores, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		scores, err := c.Classify(ctx, prompt, labels)
		switch {
		case err == nil:
			return scores, nil
		case errors.Is(err, ErrFailure):
			return nil, err
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: timed out after %s", ErrFailure, d)
		default:
			return nil, fmt.Errorf("%w: %w", ErrFailure, err)
		}
	})
}

// WithLimit allows at most n concurrent calls to c; further callers wait
// until a slot frees up or their context ends.
func WithLimit(c Classifier, n int) Classifier {
	if n <= 0 {
		return c
	}

	sem := semaphore.NewWeighted(int64(n))
	return Func(func(ctx context.Context, prompt string, labels []string) (Scores, error) {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("%w: waiting for model slot: %w", ErrFailure, err)
		}
		defer sem.Release(1)

		return c.Classify(ctx, prompt, labels)
	})
}
