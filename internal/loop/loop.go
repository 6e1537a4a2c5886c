// Package loop runs the control goroutine. It is the only caller of the
// bridge controller: every tick it collects status, publishes it, runs at
// most one queued command and then sleeps for the configured interval.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openbench/phasebridge/internal/command"
	"github.com/openbench/phasebridge/internal/events"
	"github.com/openbench/phasebridge/internal/models"
	"github.com/openbench/phasebridge/internal/status"
)

const queueSize = 8

// Bridge is what the loop needs from the controller.
type Bridge interface {
	command.Bridge
	Shutdown(ctx context.Context) error
}

type request struct {
	cmd   command.Command
	reply chan result
}

type result struct {
	state models.BridgeState
	err   *models.AppError
}

// Loop owns the controller and serializes every command against it.
type Loop struct {
	bridge Bridge
	drv    command.GateDriver
	rep    *status.Reporter
	bus    *events.Bus

	reqs chan request
	done chan struct{}

	mu       sync.Mutex
	latest   models.Status
	interval time.Duration
	pending  *models.Config
	screen   bool
}

// New creates a loop. drv may be nil when no gate driver is fitted.
func New(b Bridge, drv command.GateDriver, rep *status.Reporter, bus *events.Bus, cfg models.Config) *Loop {
	l := &Loop{
		bridge: b,
		drv:    drv,
		rep:    rep,
		bus:    bus,
		reqs:   make(chan request, queueSize),
		done:   make(chan struct{}),
	}
	l.apply(cfg)
	return l
}

// Run drives the loop until ctx is cancelled, then returns the bridge to
// Manual mode with every leg off.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("loop: started", "interval", l.Interval())
	defer close(l.done)
	for {
		l.tick(ctx)

		t := time.NewTimer(l.Interval())
		select {
		case <-ctx.Done():
			t.Stop()
			l.drain()
			// ctx is done; the shutdown sequence still needs the bus.
			if err := l.bridge.Shutdown(context.WithoutCancel(ctx)); err != nil {
				slog.Error("loop: shutdown failed", "err", err)
				return err
			}
			slog.Info("loop: stopped")
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	l.mu.Lock()
	cfg := l.pending
	l.pending = nil
	l.mu.Unlock()
	if cfg != nil {
		l.rep.Sampler().SetGain(int32(cfg.SenseGain))
	}

	st := l.rep.Collect(ctx, l.bridge.State(ctx))
	l.mu.Lock()
	l.latest = st
	l.mu.Unlock()
	l.bus.Publish(st)

	select {
	case req := <-l.reqs:
		state, err := req.cmd.Apply(ctx, l.bridge, l.drv)
		if err != nil && err.Code != models.CodeNoChange {
			slog.Warn("loop: command rejected", "kind", req.cmd.Kind, "code", err.Code, "msg", err.Message)
		}
		req.reply <- result{state: state, err: err}
	default:
	}
}

// drain answers every queued command with BUSY.
func (l *Loop) drain() {
	for {
		select {
		case req := <-l.reqs:
			req.reply <- result{err: models.ErrBusy}
		default:
			return
		}
	}
}

// Submit queues cmd for the next tick and waits for its result. A full queue
// returns BUSY straight away, as does a loop that has stopped.
func (l *Loop) Submit(ctx context.Context, cmd command.Command) (models.BridgeState, *models.AppError) {
	req := request{cmd: cmd, reply: make(chan result, 1)}
	select {
	case <-l.done:
		return models.BridgeState{}, models.ErrBusy
	default:
	}
	select {
	case l.reqs <- req:
	default:
		return models.BridgeState{}, models.ErrBusy
	}
	select {
	case res := <-req.reply:
		return res.state, res.err
	case <-l.done:
		return models.BridgeState{}, models.ErrBusy
	case <-ctx.Done():
		return models.BridgeState{}, models.ErrBusy
	}
}

// Latest returns a copy of the last published status.
func (l *Loop) Latest() models.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest.DeepCopy()
}

// Interval returns the current tick interval.
func (l *Loop) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}

// Screen reports whether the console status screen is enabled.
func (l *Loop) Screen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.screen
}

// Reconfigure applies the runtime fields of cfg. The interval takes effect
// after the current sleep and the sense gain on the next tick.
func (l *Loop) Reconfigure(cfg models.Config) {
	l.apply(cfg)
	slog.Info("loop: reconfigured", "interval_ms", cfg.LoopIntervalMS, "sense_gain", cfg.SenseGain, "screen", cfg.Screen)
}

func (l *Loop) apply(cfg models.Config) {
	ms := cfg.LoopIntervalMS
	if ms < models.MinLoopIntervalMS || ms > models.MaxLoopIntervalMS {
		ms = models.DefaultLoopIntervalMS
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.interval = time.Duration(ms) * time.Millisecond
	l.screen = cfg.Screen
	l.pending = &cfg
}
