package adcopy

import (
	"context"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

// GenerateFunc produces an asset for a prompt.
type GenerateFunc func(ctx context.Context, prompt string) (*capability.Result, error)

// ReviseFunc rewrites a prompt after a failed attempt, typically to relax
// whatever the provider rejected. Returning the prompt unchanged is valid.
type ReviseFunc func(prompt string, attempt int, err error) string

// RetryWithRevision runs gen up to attempts times, revising the prompt
// between attempts. Configuration, not-implemented and validation errors
// are not retried: they will not resolve by rephrasing. The last error is
// returned when the budget is exhausted.
func RetryWithRevision(ctx context.Context, attempts int, prompt string, gen GenerateFunc, revise ReviseFunc) (*capability.Result, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := gen(ctx, prompt)
		if err == nil {
			return res, nil
		}
		lastErr = err

		switch apperrors.KindOf(err) {
		case apperrors.KindConfiguration, apperrors.KindNotImplemented, apperrors.KindValidation:
			return nil, err
		}

		if revise != nil && attempt < attempts {
			prompt = revise(prompt, attempt, err)
		}
	}
	return nil, lastErr
}
