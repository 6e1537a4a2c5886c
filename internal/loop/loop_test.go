package loop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openbench/phasebridge/internal/command"
	"github.com/openbench/phasebridge/internal/controller"
	"github.com/openbench/phasebridge/internal/events"
	"github.com/openbench/phasebridge/internal/feedback"
	"github.com/openbench/phasebridge/internal/gatedrv"
	"github.com/openbench/phasebridge/internal/hall"
	"github.com/openbench/phasebridge/internal/hardware"
	"github.com/openbench/phasebridge/internal/loop"
	"github.com/openbench/phasebridge/internal/models"
	"github.com/openbench/phasebridge/internal/phase"
	"github.com/openbench/phasebridge/internal/pwm"
	"github.com/openbench/phasebridge/internal/status"
)

type fixture struct {
	mock *hardware.Mock
	bus  *events.Bus
	loop *loop.Loop
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	m := hardware.NewMock()
	g := hardware.NewGPIO(m)
	ctrl, err := controller.New(ctx, g, hardware.NewTimer(m), pwm.DefaultConfig())
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}
	drv, err := gatedrv.New(ctx, g)
	if err != nil {
		t.Fatalf("gatedrv.New: %v", err)
	}
	rep := status.NewReporter(feedback.NewSampler(hardware.NewADC(m), 0), hall.NewDecoder(g), drv)
	bus := events.NewBus()
	cfg := models.DefaultConfig()
	cfg.LoopIntervalMS = models.MinLoopIntervalMS
	return &fixture{mock: m, bus: bus, loop: loop.New(ctrl, drv, rep, bus, cfg)}
}

// start runs the loop and returns a stop function that waits for Run.
func (f *fixture) start(t *testing.T) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- f.loop.Run(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-errc:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("loop did not stop")
			return nil
		}
	}
}

func TestSubmit_RunsCommands(t *testing.T) {
	f := newFixture(t)
	stop := f.start(t)
	ctx := context.Background()

	st, err := f.loop.Submit(ctx, command.Command{Kind: command.SetMode, Mode: phase.Commutated})
	if err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if st.Mode != "commutated" {
		t.Errorf("mode = %q, want commutated", st.Mode)
	}

	st, err = f.loop.Submit(ctx, command.Command{Kind: command.SetDuty, Phase: phase.C, Percent: 25})
	if err != nil {
		t.Fatalf("SetDuty: %v", err)
	}
	if st.Phases[2].Duty != 25 {
		t.Errorf("duty c = %d, want 25", st.Phases[2].Duty)
	}

	_, err = f.loop.Submit(ctx, command.Command{Kind: command.SetLeg, Phase: phase.A, Leg: phase.HighSideOn})
	if !models.IsCode(err, models.CodeWrongMode) {
		t.Errorf("SetLeg in commutated: err = %v, want WRONG_MODE", err)
	}

	if err := stop(); !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}

	// Shutdown returns the bridge to manual with every line a low output.
	for _, p := range phase.Phases {
		hi, lo := phase.Pins(p)
		for _, pin := range []hardware.Pin{hi, lo} {
			if f.mock.Mode(pin) != hardware.ModeOutput || f.mock.Level(pin) {
				t.Errorf("%s after shutdown: mode %s level %v", pin, f.mock.Mode(pin), f.mock.Level(pin))
			}
		}
	}
}

func TestRun_PublishesStatus(t *testing.T) {
	f := newFixture(t)
	ch := f.bus.Subscribe("test")
	defer f.bus.Unsubscribe("test")
	stop := f.start(t)
	defer stop()

	var last models.Status
	for i := 0; i < 3; i++ {
		select {
		case last = <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("no status published")
		}
	}
	if last.Seq < 3 {
		t.Errorf("seq = %d, want >= 3", last.Seq)
	}
	if last.Bridge.Mode != "manual" {
		t.Errorf("bridge mode = %q, want manual", last.Bridge.Mode)
	}
	if got := f.loop.Latest(); got.Seq < last.Seq {
		t.Errorf("Latest().Seq = %d, want >= %d", got.Seq, last.Seq)
	}
}

func TestSubmit_AfterStop(t *testing.T) {
	f := newFixture(t)
	stop := f.start(t)
	_ = stop()

	_, err := f.loop.Submit(context.Background(), command.Command{Kind: command.Query})
	if !models.IsCode(err, models.CodeBusy) {
		t.Errorf("Submit after stop: err = %v, want BUSY", err)
	}
}

func TestSubmit_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.loop.Submit(ctx, command.Command{Kind: command.Query})
	if !models.IsCode(err, models.CodeBusy) {
		t.Errorf("Submit with cancelled ctx: err = %v, want BUSY", err)
	}
}

func TestReconfigure(t *testing.T) {
	f := newFixture(t)
	if got := f.loop.Interval(); got != models.MinLoopIntervalMS*time.Millisecond {
		t.Errorf("Interval() = %v", got)
	}

	cfg := models.DefaultConfig()
	cfg.LoopIntervalMS = 250
	cfg.Screen = false
	f.loop.Reconfigure(cfg)
	if got := f.loop.Interval(); got != 250*time.Millisecond {
		t.Errorf("Interval() = %v, want 250ms", got)
	}
	if f.loop.Screen() {
		t.Error("Screen() = true after disabling")
	}

	cfg.LoopIntervalMS = 0
	f.loop.Reconfigure(cfg)
	if got := f.loop.Interval(); got != models.DefaultLoopIntervalMS*time.Millisecond {
		t.Errorf("out-of-range interval: Interval() = %v, want default", got)
	}
}
