// Package poller schedules dedup cycles with error isolation.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/arsal072-sys/protonsms072/internal/feed"
)

// Engine runs one polling cycle.
type Engine interface {
	RunCycle(ctx context.Context) error
}

// Alerter delivers a one-time operator alert when the feed session is
// rejected.
type Alerter interface {
	AlertSessionExpired(ctx context.Context) error
}

// Poller invokes the engine on a fixed cadence. Cycle failures are
// logged and the loop keeps ticking; an authentication rejection
// switches to a slower cadence and raises a debounced operator alert.
type Poller struct {
	engine   Engine
	alerter  Alerter
	log      *slog.Logger
	tick     time.Duration
	authTick time.Duration
	alerted  bool
}

// New creates a Poller with the default 10s/60s cadences.
func New(engine Engine, alerter Alerter, log *slog.Logger) *Poller {
	return &Poller{
		engine:   engine,
		alerter:  alerter,
		log:      log,
		tick:     10 * time.Second,
		authTick: 60 * time.Second,
	}
}

// SetIntervals overrides the normal and auth-rejected tick intervals.
func (p *Poller) SetIntervals(tick, authTick time.Duration) {
	p.tick = tick
	p.authTick = authTick
}

// Run executes cycles until ctx is cancelled. Shutdown is honored
// between cycles only: a cycle already started runs to completion so
// the watermark commit is never cut short.
func (p *Poller) Run(ctx context.Context) {
	for {
		wait := p.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// runOnce executes one cycle and returns the wait before the next.
func (p *Poller) runOnce(ctx context.Context) time.Duration {
	err := p.engine.RunCycle(context.WithoutCancel(ctx))
	switch {
	case err == nil:
		p.alerted = false
		return p.tick
	case errors.Is(err, feed.ErrAuthRejected):
		p.log.Warn("feed session rejected, slowing poll cadence", "error", err)
		p.sendAlert(ctx)
		return p.authTick
	default:
		p.log.Error("polling cycle failed", "error", err)
		return p.tick
	}
}

// sendAlert raises the operator alert at most once until a cycle
// succeeds again.
func (p *Poller) sendAlert(ctx context.Context) {
	if p.alerted || p.alerter == nil {
		return
	}
	if err := p.alerter.AlertSessionExpired(ctx); err != nil {
		p.log.Error("send session alert", "error", err)
		return
	}
	p.alerted = true
}
