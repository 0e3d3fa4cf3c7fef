// Package failover runs a unit of work against an ordered list of backends,
// moving to the next backend on any failure.
package failover

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// AttemptError is the failure of one backend
type AttemptError struct {
	Backend string
	Err     error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

// ExhaustedError is returned when every backend failed
type ExhaustedError struct {
	Attempts []AttemptError
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "no backends configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return fmt.Sprintf("all %d backends failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

// Unwrap exposes every attempt error to errors.Is / errors.As
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Run tries attempt against each backend in order and returns the first success.
// It stops early when ctx is done, returning ctx.Err() wrapped with the attempts made so far.
func Run[T any](ctx context.Context, backends []string, attempt func(ctx context.Context, backend string) (T, error)) (T, error) {
	var zero T
	exhausted := &ExhaustedError{}

	for i, backend := range backends {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("failover stopped after %d attempts: %w", i, err)
		}

		result, err := attempt(ctx, backend)
		if err == nil {
			if i > 0 {
				logrus.Infof("Backend %s succeeded after %d failed attempts", backend, i)
			}
			return result, nil
		}

		exhausted.Attempts = append(exhausted.Attempts, AttemptError{Backend: backend, Err: err})
		if i < len(backends)-1 {
			logrus.Warnf("Backend %s failed, trying %s: %v", backend, backends[i+1], err)
		} else {
			logrus.Warnf("Backend %s failed: %v", backend, err)
		}
	}

	return zero, exhausted
}
