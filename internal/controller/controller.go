// Package controller implements the bridge mode state machine. In Manual mode
// it holds the drive lines as outputs; in Commutated mode the lines live
// inside a running PWM engine. It is never both and never neither.
//
// A Controller is not safe for concurrent use. The control loop owns it and
// serializes every call.
package controller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openbench/phasebridge/internal/hardware"
	"github.com/openbench/phasebridge/internal/models"
	"github.com/openbench/phasebridge/internal/phase"
	"github.com/openbench/phasebridge/internal/pwm"
)

// Controller is the bridge mode state machine.
type Controller struct {
	tim hardware.Timer
	cfg pwm.Config

	// Exactly one of these is set.
	lines  *phase.Lines
	engine *pwm.Engine
}

// New claims the drive lines and starts in Manual mode with every leg
// BothOff.
func New(ctx context.Context, g hardware.GPIO, tim hardware.Timer, cfg pwm.Config) (*Controller, error) {
	if _, err := cfg.Period(); err != nil {
		return nil, err
	}
	lines, err := phase.Claim(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	slog.Info("controller: bridge ready", "mode", phase.Manual)
	return &Controller{tim: tim, cfg: cfg, lines: lines}, nil
}

// Mode returns the current bridge mode.
func (c *Controller) Mode() phase.Mode {
	if c.engine != nil {
		return phase.Commutated
	}
	return phase.Manual
}

// State returns a snapshot of the bridge. In Commutated mode the period is
// read live from the timer; a failed read leaves it zero.
func (c *Controller) State(ctx context.Context) models.BridgeState {
	st := models.BridgeState{
		Mode:   c.Mode().String(),
		Phases: make([]models.PhaseState, 0, len(phase.Phases)),
	}
	if c.engine != nil {
		if arr, err := c.engine.Period(ctx); err == nil {
			st.Period = arr
		}
	}
	for _, p := range phase.Phases {
		ps := models.PhaseState{Phase: p.String()}
		if c.engine != nil {
			ps.Leg = "pwm"
			ps.Duty = c.engine.Duty(p)
			ps.Compare = c.engine.Compare(p)
		} else {
			ps.Leg = c.lines.Leg(p).String()
		}
		st.Phases = append(st.Phases, ps)
	}
	return st
}

// SetLeg switches one leg in Manual mode.
func (c *Controller) SetLeg(ctx context.Context, p phase.Phase, s phase.LegState) (models.BridgeState, *models.AppError) {
	if !p.Valid() {
		return c.State(ctx), models.ErrBadRequest(fmt.Sprintf("invalid leg %d", uint8(p)))
	}
	if c.lines == nil {
		return c.State(ctx), models.ErrWrongMode("legs can only be switched in manual mode")
	}
	if err := c.lines.SetLeg(ctx, p, s); err != nil {
		slog.Error("controller: set leg failed", "leg", p, "state", s, "err", err)
		return c.State(ctx), models.ErrHardware(err.Error())
	}
	slog.Info("controller: leg switched", "leg", p, "state", s)
	return c.State(ctx), nil
}

// EnterCommutated hands the lines to the timer and starts PWM at 50% on
// every phase. If a step fails the lines are taken back as outputs and the
// bridge stays in Manual mode.
func (c *Controller) EnterCommutated(ctx context.Context) (models.BridgeState, *models.AppError) {
	if c.engine != nil {
		return c.State(ctx), models.ErrNoChange("already in commutated mode")
	}

	pl, err := c.lines.IntoPWM(ctx)
	c.lines = nil
	if err != nil {
		c.reclaim(ctx, pl)
		slog.Error("controller: route lines to timer failed", "err", err)
		return c.State(ctx), models.ErrHardware(err.Error())
	}

	eng, err := pwm.Start(ctx, c.tim, pl, c.cfg)
	if err != nil {
		c.reclaim(ctx, pl)
		slog.Error("controller: pwm start failed", "err", err)
		return c.State(ctx), models.ErrHardware(err.Error())
	}
	c.engine = eng
	slog.Info("controller: mode changed", "mode", phase.Commutated)
	return c.State(ctx), nil
}

// reclaim moves lines back into Manual ownership after a failed transition.
func (c *Controller) reclaim(ctx context.Context, pl *phase.PWMLines) {
	lines, err := pl.IntoOutputs(ctx)
	if err != nil {
		slog.Error("controller: reclaim lines failed", "err", err)
	}
	c.lines = lines
}

// EnterManual stops PWM and takes the lines back as outputs with every leg
// BothOff.
func (c *Controller) EnterManual(ctx context.Context) (models.BridgeState, *models.AppError) {
	if c.engine == nil {
		return c.State(ctx), models.ErrNoChange("already in manual mode")
	}

	lines, err := c.engine.Stop(ctx)
	c.engine = nil
	c.lines = lines
	if err != nil {
		slog.Error("controller: pwm stop failed", "err", err)
		return c.State(ctx), models.ErrHardware(err.Error())
	}
	slog.Info("controller: mode changed", "mode", phase.Manual)
	return c.State(ctx), nil
}

// SetDuty sets one phase duty in Commutated mode. Out-of-range values are
// clamped to [0,100].
func (c *Controller) SetDuty(ctx context.Context, p phase.Phase, percent int) (models.BridgeState, *models.AppError) {
	if !p.Valid() {
		return c.State(ctx), models.ErrBadRequest(fmt.Sprintf("invalid phase %d", uint8(p)))
	}
	if c.engine == nil {
		return c.State(ctx), models.ErrWrongMode("duty can only be set in commutated mode")
	}
	if err := c.engine.UpdateDuty(ctx, p, percent); err != nil {
		slog.Error("controller: duty update failed", "phase", p, "err", err)
		return c.State(ctx), models.ErrHardware(err.Error())
	}
	return c.State(ctx), nil
}

// SetMode dispatches to EnterManual or EnterCommutated.
func (c *Controller) SetMode(ctx context.Context, m phase.Mode) (models.BridgeState, *models.AppError) {
	switch m {
	case phase.Manual:
		return c.EnterManual(ctx)
	case phase.Commutated:
		return c.EnterCommutated(ctx)
	}
	return c.State(ctx), models.ErrBadRequest(fmt.Sprintf("invalid mode %d", uint8(m)))
}

// Shutdown returns the bridge to Manual mode with every leg off.
func (c *Controller) Shutdown(ctx context.Context) error {
	if c.engine != nil {
		if _, err := c.EnterManual(ctx); err != nil {
			return err
		}
	}
	for _, p := range phase.Phases {
		if err := c.lines.SetLeg(ctx, p, phase.BothOff); err != nil {
			return fmt.Errorf("controller: shutdown: %w", err)
		}
	}
	return nil
}
