package command_test

import (
	"context"
	"testing"

	"github.com/openbench/phasebridge/internal/command"
	"github.com/openbench/phasebridge/internal/controller"
	"github.com/openbench/phasebridge/internal/gatedrv"
	"github.com/openbench/phasebridge/internal/hardware"
	"github.com/openbench/phasebridge/internal/models"
	"github.com/openbench/phasebridge/internal/phase"
	"github.com/openbench/phasebridge/internal/pwm"
)

func setup(t *testing.T) (*hardware.Mock, *controller.Controller, *gatedrv.Driver) {
	t.Helper()
	m := hardware.NewMock()
	ctx := context.Background()
	g := hardware.NewGPIO(m)
	c, err := controller.New(ctx, g, hardware.NewTimer(m), pwm.DefaultConfig())
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}
	d, err := gatedrv.New(ctx, g)
	if err != nil {
		t.Fatalf("gatedrv.New: %v", err)
	}
	return m, c, d
}

func TestApply(t *testing.T) {
	_, c, d := setup(t)
	ctx := context.Background()

	steps := []struct {
		cmd      command.Command
		wantMode string
		wantCode string
	}{
		{command.Command{Kind: command.Query}, "manual", ""},
		{command.Command{Kind: command.SetLeg, Phase: phase.A, Leg: phase.HighSideOn}, "manual", ""},
		{command.Command{Kind: command.SetDuty, Phase: phase.A, Percent: 10}, "manual", models.CodeWrongMode},
		{command.Command{Kind: command.SetMode, Mode: phase.Commutated}, "commutated", ""},
		{command.Command{Kind: command.SetMode, Mode: phase.Commutated}, "commutated", models.CodeNoChange},
		{command.Command{Kind: command.SetDuty, Phase: phase.B, Percent: 75}, "commutated", ""},
		{command.Command{Kind: command.SetMode, Mode: phase.Manual}, "manual", ""},
		{command.Command{Kind: command.Kind(42)}, "manual", models.CodeBadRequest},
	}
	for i, s := range steps {
		st, err := s.cmd.Apply(ctx, c, d)
		if s.wantCode == "" && err != nil {
			t.Fatalf("step %d (%s): unexpected error %v", i, s.cmd.Kind, err)
		}
		if s.wantCode != "" && !models.IsCode(err, s.wantCode) {
			t.Fatalf("step %d (%s): err = %v, want %s", i, s.cmd.Kind, err, s.wantCode)
		}
		if st.Mode != s.wantMode {
			t.Errorf("step %d (%s): mode = %q, want %q", i, s.cmd.Kind, st.Mode, s.wantMode)
		}
	}
}

func TestApply_Driver(t *testing.T) {
	m, c, d := setup(t)
	ctx := context.Background()

	if _, err := (command.Command{Kind: command.Driver, Driver: command.DriverOn}).Apply(ctx, c, d); err != nil {
		t.Fatalf("drv on: %v", err)
	}
	if !m.Level(hardware.PinDrvEnable) {
		t.Error("enable line low after drv on")
	}
	if _, err := (command.Command{Kind: command.Driver, Driver: command.DriverOff}).Apply(ctx, c, d); err != nil {
		t.Fatalf("drv off: %v", err)
	}
	if m.Level(hardware.PinDrvEnable) {
		t.Error("enable line high after drv off")
	}

	for _, op := range []command.DriverOp{command.DriverRegs, command.DriverGain, command.DriverReset} {
		_, err := command.Command{Kind: command.Driver, Driver: op}.Apply(ctx, c, d)
		if !models.IsCode(err, models.CodeUnsupported) {
			t.Errorf("driver op %d: err = %v, want UNSUPPORTED", op, err)
		}
	}

	if _, err := (command.Command{Kind: command.Driver}).Apply(ctx, c, nil); !models.IsCode(err, models.CodeInternal) {
		t.Errorf("nil driver: err = %v, want INTERNAL", err)
	}

	m.SetFailWrite(true)
	if _, err := (command.Command{Kind: command.Driver, Driver: command.DriverOn}).Apply(ctx, c, d); !models.IsCode(err, models.CodeHardware) {
		t.Errorf("failing bus: err = %v, want HARDWARE", err)
	}
}
