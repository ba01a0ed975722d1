// Package embedding holds provider-independent embedding decorators.
// Provider adapters live in the subpackages.
package embedding

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/logger"
)

// Ensure Paced implements the interface.
var _ driven.EmbeddingService = (*Paced)(nil)

// Backoff defaults.
const (
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultMaxDelay  = 30 * time.Second
)

// PacedConfig configures a Paced embedding service.
type PacedConfig struct {
	// RequestsPerMinute caps the sustained call rate. Zero disables pacing.
	RequestsPerMinute int

	// MaxRetries bounds retries of transient failures. Zero disables retries.
	MaxRetries int

	// BaseDelay is the first backoff interval; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff interval.
	MaxDelay time.Duration
}

// Paced wraps an EmbeddingService with a token-bucket limiter and retries
// transient failures with exponential backoff. A rate-limited response
// also holds back every other caller until the backoff expires.
type Paced struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
	cfg     PacedConfig

	mu      sync.Mutex
	retryAt time.Time

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPaced wraps next. It returns next unchanged when neither pacing nor
// retries are configured.
func NewPaced(next driven.EmbeddingService, cfg PacedConfig) driven.EmbeddingService {
	if cfg.RequestsPerMinute <= 0 && cfg.MaxRetries <= 0 {
		return next
	}
	return newPaced(next, cfg)
}

func newPaced(next driven.EmbeddingService, cfg PacedConfig) *Paced {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Paced{
		next:    next,
		limiter: limiter,
		cfg:     cfg,
		sleep:   sleepContext,
	}
}

// Embed generates a vector embedding for the given text.
func (p *Paced) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := p.do(ctx, func() error {
		var err error
		out, err = p.next.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch generates embeddings for multiple texts. A batch counts as
// one request against the limiter.
func (p *Paced) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := p.do(ctx, func() error {
		var err error
		out, err = p.next.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// Dimensions returns the wrapped service's dimensions.
func (p *Paced) Dimensions() int {
	return p.next.Dimensions()
}

// ModelName returns the wrapped service's model.
func (p *Paced) ModelName() string {
	return p.next.ModelName()
}

// Ping is not paced.
func (p *Paced) Ping(ctx context.Context) error {
	return p.next.Ping(ctx)
}

// Close closes the wrapped service.
func (p *Paced) Close() error {
	return p.next.Close()
}

func (p *Paced) do(ctx context.Context, call func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err := p.wait(ctx); err != nil {
			return err
		}

		err = call()
		if err == nil || !domain.IsTransient(err) || attempt >= p.cfg.MaxRetries {
			return err
		}

		delay := p.backoff(attempt)
		if isRateLimit(err) {
			p.holdUntil(time.Now().Add(delay))
		}
		logger.Debug("embedding %s: transient failure (attempt %d/%d), retrying in %s: %v",
			p.next.ModelName(), attempt+1, p.cfg.MaxRetries+1, delay, err)

		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (p *Paced) wait(ctx context.Context) error {
	p.mu.Lock()
	retryAt := p.retryAt
	p.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		if err := p.sleep(ctx, d); err != nil {
			return err
		}
	}
	return p.limiter.Wait(ctx)
}

func (p *Paced) holdUntil(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t.After(p.retryAt) {
		p.retryAt = t
	}
}

func (p *Paced) backoff(attempt int) time.Duration {
	d := p.cfg.BaseDelay << attempt
	if d <= 0 || d > p.cfg.MaxDelay {
		return p.cfg.MaxDelay
	}
	return d
}

func isRateLimit(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
