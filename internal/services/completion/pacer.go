package completion

import (
	"context"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/config"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/llm"
)

// Pacer spaces out generation units. The base delay depends on the content type
// just generated; consecutive rate-limited failures double it up to MaxDelay,
// and a server Retry-After hint is honored when longer.
type Pacer struct {
	TextDelay  time.Duration
	VideoDelay time.Duration
	MaxDelay   time.Duration

	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewPacer(cfg config.PacingConfig) *Pacer {
	return &Pacer{
		TextDelay:  cfg.TextDelay,
		VideoDelay: cfg.VideoDelay,
		MaxDelay:   cfg.MaxDelay,
		Sleep:      sleepContext,
	}
}

// Delay returns the wait after a unit of type ct. streak is the number of
// consecutive rate-limited failures including this one; err is the unit's failure, if any.
func (p *Pacer) Delay(ct models.ContentType, streak int, err error) time.Duration {
	d := p.VideoDelay
	if ct == models.ContentTypeText {
		d = p.TextDelay
	}
	for i := 0; i < streak && d > 0; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
	}
	if retry, ok := llm.RetryAfter(err); ok && retry > d {
		d = retry
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Wait sleeps for the unit's delay. It returns ctx.Err() if ctx ends first.
func (p *Pacer) Wait(ctx context.Context, ct models.ContentType, streak int, err error) error {
	d := p.Delay(ct, streak, err)
	if d <= 0 {
		return ctx.Err()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
