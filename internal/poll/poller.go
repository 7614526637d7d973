// Package poll drives long-running provider jobs: submit happens at the
// call site, then the poller queries status at a fixed interval until a
// terminal state or the attempt budget runs out. Fixed polling (rather
// than webhooks) is forced by the client-only deployment: there is no
// server to receive callbacks.
package poll

import (
	"context"
	"time"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
	"github.com/adforge/core/internal/shared/logger"
)

// Status is the provider-agnostic job status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status ends the job's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Update is one status-check observation.
type Update struct {
	Status         Status
	Result         *capability.Result
	Progress       int // 0-100, provider-reported where available
	FailureMessage string
}

// CheckFunc queries the status of a submitted job.
type CheckFunc func(ctx context.Context) (*Update, error)

// ProgressFunc observes poll progress (attempt count and latest update).
type ProgressFunc func(attempt int, u *Update)

// Poller runs the retry/poll loop.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	clock       Clock
	log         *logger.Logger
	onProgress  ProgressFunc
	onAttempt   func(provider capability.ProviderID, attempt int)
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock substitutes the clock (fake clocks in tests).
func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithProgress registers a progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Poller) { p.onProgress = fn }
}

// WithAttemptHook registers a hook fired before every status check,
// successful or not. Used for poll metrics.
func WithAttemptHook(fn func(provider capability.ProviderID, attempt int)) Option {
	return func(p *Poller) { p.onAttempt = fn }
}

// New creates a poller with a fixed interval and attempt budget.
func New(interval time.Duration, maxAttempts int, opts ...Option) *Poller {
	p := &Poller{
		interval:    interval,
		maxAttempts: maxAttempts,
		clock:       RealClock{},
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxAttempts < 1 {
		p.maxAttempts = 1
	}
	return p
}

// Wait polls check until a terminal status, the attempt budget, or context
// cancellation. Within one job the checks are strictly sequential.
//
// Outcomes are kept distinguishable for callers:
//   - provider-reported failure  -> provider error
//   - budget exhausted           -> timeout error ("we gave up waiting")
//   - succeeded without an asset -> provider error wrapping ErrEmptyResult
//
// A status check that itself fails (network blip) consumes an attempt but
// does not abort the job.
func (p *Poller) Wait(ctx context.Context, provider capability.ProviderID, check CheckFunc) (*capability.Result, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if p.onAttempt != nil {
			p.onAttempt(provider, attempt)
		}
		u, err := check(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.Warn("status check failed, will retry",
				logger.String("provider", string(provider)),
				logger.Int("attempt", attempt),
				logger.Err(err),
			)
		case u.Status == StatusSucceeded:
			if u.Result == nil || u.Result.URL == "" {
				// "Succeeded" with nothing to retrieve is a contract
				// violation, not a valid success.
				return nil, apperrors.Provider(string(provider), "provider reported success but returned no asset", apperrors.ErrEmptyResult)
			}
			p.report(attempt, u)
			return u.Result, nil
		case u.Status == StatusFailed:
			return nil, apperrors.Provider(string(provider), u.FailureMessage, nil)
		default:
			p.report(attempt, u)
		}

		if attempt == p.maxAttempts {
			break
		}
		if err := p.clock.Sleep(ctx, p.interval); err != nil {
			return nil, err
		}
	}

	return nil, apperrors.Timeout(string(provider), p.maxAttempts)
}

func (p *Poller) report(attempt int, u *Update) {
	if p.onProgress != nil {
		p.onProgress(attempt, u)
	}
}
