package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arsal072-sys/protonsms072/internal/feed"
)

type scriptedEngine struct {
	errs  []error
	calls int
}

func (s *scriptedEngine) RunCycle(_ context.Context) error {
	err := s.errs[s.calls%len(s.errs)]
	s.calls++
	return err
}

type mockAlerter struct {
	alerts int
	err    error
}

func (m *mockAlerter) AlertSessionExpired(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.alerts++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPoller(engine Engine, alerter Alerter) *Poller {
	p := New(engine, alerter, discardLogger())
	p.SetIntervals(10*time.Second, 60*time.Second)
	return p
}

func TestCadence(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"success uses normal tick", nil, 10 * time.Second},
		{"generic failure uses normal tick", errors.New("boom"), 10 * time.Second},
		{"auth rejection slows down", feed.ErrAuthRejected, 60 * time.Second},
		{"wrapped auth rejection slows down", fmt.Errorf("sampling: %w", feed.ErrAuthRejected), 60 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPoller(&scriptedEngine{errs: []error{tt.err}}, &mockAlerter{})
			if got := p.runOnce(context.Background()); got != tt.want {
				t.Errorf("wait = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlertIsDebounced(t *testing.T) {
	engine := &scriptedEngine{errs: []error{feed.ErrAuthRejected}}
	alerter := &mockAlerter{}
	p := newTestPoller(engine, alerter)

	for i := 0; i < 5; i++ {
		p.runOnce(context.Background())
	}
	if alerter.alerts != 1 {
		t.Errorf("alerts = %d, want 1 while the condition persists", alerter.alerts)
	}
}

func TestAlertRearmsAfterRecovery(t *testing.T) {
	engine := &scriptedEngine{errs: []error{
		feed.ErrAuthRejected, // alert
		feed.ErrAuthRejected, // debounced
		nil,                  // session replaced, condition clears
		feed.ErrAuthRejected, // alert again
	}}
	alerter := &mockAlerter{}
	p := newTestPoller(engine, alerter)

	for i := 0; i < 4; i++ {
		p.runOnce(context.Background())
	}
	if alerter.alerts != 2 {
		t.Errorf("alerts = %d, want 2 across two rejection episodes", alerter.alerts)
	}
}

func TestFailedAlertRetriesNextTick(t *testing.T) {
	engine := &scriptedEngine{errs: []error{feed.ErrAuthRejected}}
	alerter := &mockAlerter{err: errors.New("sink down")}
	p := newTestPoller(engine, alerter)

	p.runOnce(context.Background())
	alerter.err = nil
	p.runOnce(context.Background())

	if alerter.alerts != 1 {
		t.Errorf("alerts = %d, want 1 after the sink recovers", alerter.alerts)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	engine := &scriptedEngine{errs: []error{nil}}
	p := newTestPoller(engine, &mockAlerter{})
	p.SetIntervals(time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if engine.calls == 0 {
		t.Error("engine never ran")
	}
}
