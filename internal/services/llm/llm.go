// Package llm talks to the remote language-model backends used for idea
// proposal and content generation. Every backend reports failures as
// *RemoteError so callers can tell rate limiting apart from other failures.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Prompt is a system/user message pair
type Prompt struct {
	System string
	User   string
}

// Backend performs one completion call
type Backend interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// RemoteError is the failure of one remote call.
// Status is zero when no HTTP response was received (transport error, timeout, empty body).
type RemoteError struct {
	Backend     string
	Status      int
	Message     string
	RateLimited bool
	RetryAfter  time.Duration
	Err         error
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString(e.Backend)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.RateLimited {
		b.WriteString(" (rate limited)")
	}
	return b.String()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError builds a RemoteError, flagging HTTP 429 as a rate limit
func NewRemoteError(backend string, status int, message string, err error) *RemoteError {
	return &RemoteError{
		Backend:     backend,
		Status:      status,
		Message:     message,
		RateLimited: status == http.StatusTooManyRequests,
		Err:         err,
	}
}

// IsRateLimit reports whether err (or any error it wraps) is a rate-limited RemoteError
func IsRateLimit(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.RateLimited
}

// RetryAfter returns the server-suggested wait of a rate-limited error
func RetryAfter(err error) (time.Duration, bool) {
	var remote *RemoteError
	if !errors.As(err, &remote) || !remote.RateLimited || remote.RetryAfter <= 0 {
		return 0, false
	}
	return remote.RetryAfter, true
}

// ParseRetryAfter parses a Retry-After header value (delta seconds or HTTP date)
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// asRemoteError converts any failure of a backend call into a *RemoteError
func asRemoteError(backend string, err error) *RemoteError {
	var remote *RemoteError
	if errors.As(err, &remote) {
		if remote.Backend == "" {
			remote.Backend = backend
		}
		return remote
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewRemoteError(backend, 0, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewRemoteError(backend, 0, "request cancelled", err)
	}
	return NewRemoteError(backend, 0, err.Error(), err)
}
