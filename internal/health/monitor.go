// Package health runs advisory connectivity checks against configured
// providers. Results are cached for display only; they never gate
// generation. Configured() stays the single source of truth for whether
// a provider is usable.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/adforge/core/internal/capability"
	"github.com/adforge/core/internal/shared/config"
	"github.com/adforge/core/internal/shared/logger"
)

// Status is the cached connectivity verdict for one provider.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusReachable Status = "reachable"
	StatusFailing   Status = "failing"
)

// Report is one provider's cached check outcome.
type Report struct {
	Provider  capability.ProviderID `json:"provider"`
	Status    Status                `json:"status"`
	Detail    string                `json:"detail,omitempty"`
	CheckedAt time.Time             `json:"checked_at"`
}

// Target couples a provider identity with its connectivity test.
type Target struct {
	Provider capability.Provider
	Tester   capability.ConnectivityTester
}

// Monitor checks provider connectivity behind per-provider circuit
// breakers so a dead endpoint is not hammered on every refresh.
type Monitor struct {
	mu       sync.RWMutex
	targets  []Target
	breakers map[capability.ProviderID]*gobreaker.CircuitBreaker[any]
	reports  map[capability.ProviderID]Report

	cfg config.HealthConfig
	log *logger.Logger
}

// NewMonitor creates a monitor over the given targets.
func NewMonitor(targets []Target, cfg config.HealthConfig, log *logger.Logger) *Monitor {
	if log == nil {
		log = logger.Nop()
	}
	m := &Monitor{
		targets:  targets,
		breakers: make(map[capability.ProviderID]*gobreaker.CircuitBreaker[any], len(targets)),
		reports:  make(map[capability.ProviderID]Report, len(targets)),
		cfg:      cfg,
		log:      log,
	}
	for _, t := range targets {
		m.reports[t.Provider.ID()] = Report{Provider: t.Provider.ID(), Status: StatusUnknown}
	}
	return m
}

// Check tests one provider and updates its cached report. An unconfigured
// provider is skipped and stays Unknown: there is nothing meaningful to
// test without a credential.
func (m *Monitor) Check(ctx context.Context, id capability.ProviderID) Report {
	var target *Target
	for i := range m.targets {
		if m.targets[i].Provider.ID() == id {
			target = &m.targets[i]
			break
		}
	}
	if target == nil || !target.Provider.Configured() {
		return m.report(id)
	}

	checkCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	breaker := m.getOrCreateBreaker(id)
	_, err := breaker.Execute(func() (any, error) {
		return nil, target.Tester.TestConnection(checkCtx)
	})

	report := Report{Provider: id, Status: StatusReachable, CheckedAt: time.Now()}
	if err != nil {
		report.Status = StatusFailing
		report.Detail = err.Error()
		m.log.Warn("connectivity check failed",
			logger.String("provider", string(id)),
			logger.Err(err),
		)
	}

	m.mu.Lock()
	m.reports[id] = report
	m.mu.Unlock()
	return report
}

// CheckAll tests every configured target sequentially.
func (m *Monitor) CheckAll(ctx context.Context) []Report {
	out := make([]Report, 0, len(m.targets))
	for _, t := range m.targets {
		out = append(out, m.Check(ctx, t.Provider.ID()))
	}
	return out
}

// Report returns the cached report for one provider.
func (m *Monitor) Report(id capability.ProviderID) Report {
	return m.report(id)
}

func (m *Monitor) report(id capability.ProviderID) Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.reports[id]; ok {
		return r
	}
	return Report{Provider: id, Status: StatusUnknown}
}

// Reports returns every cached report in target order.
func (m *Monitor) Reports() []Report {
	out := make([]Report, 0, len(m.targets))
	for _, t := range m.targets {
		out = append(out, m.report(t.Provider.ID()))
	}
	return out
}

func (m *Monitor) getOrCreateBreaker(id capability.ProviderID) *gobreaker.CircuitBreaker[any] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if breaker, ok := m.breakers[id]; ok {
		return breaker
	}

	threshold := m.cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        string(id),
		MaxRequests: m.cfg.MaxHalfOpenRequests,
		Timeout:     m.cfg.CircuitTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	m.breakers[id] = breaker
	return breaker
}
