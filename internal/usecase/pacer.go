package usecase

import (
	"context"
	"time"

	"github.com/vxgen/ProductCheck/internal/config"
	"golang.org/x/time/rate"
)

const (
	PacingFixed       = "fixed"
	PacingTokenBucket = "token_bucket"
)

// Pacer spaces consecutive scan items apart.
type Pacer interface {
	Wait(ctx context.Context) error
}

func NewPacer(conf *config.Config) Pacer {
	cooldown := conf.Scan.Cooldown
	if conf.Scan.Pacing == PacingTokenBucket {
		return NewTokenBucketPacer(cooldown)
	}
	return NewFixedPacer(cooldown)
}

type fixedPacer struct {
	interval time.Duration
}

// NewFixedPacer sleeps the full interval on every Wait.
func NewFixedPacer(interval time.Duration) Pacer {
	return &fixedPacer{interval: interval}
}

func (p *fixedPacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type tokenBucketPacer struct {
	limiter *rate.Limiter
}

// NewTokenBucketPacer allows one item per interval, counting the time the
// item itself took, so slow captures are not followed by a full cooldown.
func NewTokenBucketPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return &tokenBucketPacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	l.Allow()
	return &tokenBucketPacer{limiter: l}
}

func (p *tokenBucketPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
