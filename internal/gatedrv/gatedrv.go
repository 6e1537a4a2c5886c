// Package gatedrv controls the gate driver's discrete lines. The driver's
// serial register interface is not used.
package gatedrv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openbench/phasebridge/internal/hardware"
)

// ErrUnsupported is returned for driver register operations.
var ErrUnsupported = errors.New("gatedrv: not supported")

// Driver owns the enable, offset-calibration and fault lines.
type Driver struct {
	gpio    hardware.GPIO
	enabled bool
}

// New configures the lines: enable low, offset calibration held low, fault
// as input.
func New(ctx context.Context, g hardware.GPIO) (*Driver, error) {
	if err := g.ConfigureOutput(ctx, hardware.PinDrvEnable, false); err != nil {
		return nil, fmt.Errorf("gatedrv: enable line: %w", err)
	}
	if err := g.ConfigureOutput(ctx, hardware.PinDrvOffsetCal, false); err != nil {
		return nil, fmt.Errorf("gatedrv: offset calibration line: %w", err)
	}
	if err := g.ConfigureInput(ctx, hardware.PinDrvFault); err != nil {
		return nil, fmt.Errorf("gatedrv: fault line: %w", err)
	}
	return &Driver{gpio: g}, nil
}

// SetEnabled drives the enable line.
func (d *Driver) SetEnabled(ctx context.Context, on bool) error {
	if err := d.gpio.Set(ctx, hardware.PinDrvEnable, on); err != nil {
		return fmt.Errorf("gatedrv: enable=%v: %w", on, err)
	}
	d.enabled = on
	slog.Info("gatedrv: driver enable", "enabled", on)
	return nil
}

// Enabled returns the last enable level written.
func (d *Driver) Enabled() bool { return d.enabled }

// Fault reports whether the driver is signalling a fault (line low).
func (d *Driver) Fault(ctx context.Context) (bool, error) {
	level, err := d.gpio.Get(ctx, hardware.PinDrvFault)
	if err != nil {
		return false, fmt.Errorf("gatedrv: fault read: %w", err)
	}
	return !level, nil
}

// DumpRegisters would read the driver's status registers over its serial
// interface.
func (d *Driver) DumpRegisters(ctx context.Context) error { return ErrUnsupported }

// SetGain would program the current-sense amplifier gain register.
func (d *Driver) SetGain(ctx context.Context, gain int) error { return ErrUnsupported }

// Reset would issue a driver register reset.
func (d *Driver) Reset(ctx context.Context) error { return ErrUnsupported }
