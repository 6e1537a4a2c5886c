package phase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openbench/phasebridge/internal/hardware"
)

// Lines is the Manual owner: the six drive lines as push-pull outputs.
// A nil gpio means the lines have been moved away.
type Lines struct {
	gpio hardware.GPIO
	legs [3]LegState
}

// Claim takes the six drive lines as outputs with every leg BothOff. The
// output latch is cleared before each pin is switched to output mode.
func Claim(ctx context.Context, g hardware.GPIO) (*Lines, error) {
	l := &Lines{gpio: g}
	return l, l.configure(ctx)
}

func (l *Lines) configure(ctx context.Context) error {
	for _, p := range Phases {
		hi, lo := Pins(p)
		for _, pin := range []hardware.Pin{hi, lo} {
			if err := l.gpio.ConfigureOutput(ctx, pin, false); err != nil {
				return fmt.Errorf("phase: claim %s: %w", pin, err)
			}
		}
	}
	return nil
}

// SetLeg drives leg p to state s. The line being turned off is always written
// before the line being turned on, so the two sides of a leg are never
// asserted together.
func (l *Lines) SetLeg(ctx context.Context, p Phase, s LegState) error {
	if l.gpio == nil {
		return ErrReleased
	}
	if !p.Valid() {
		return fmt.Errorf("phase: invalid leg %d", uint8(p))
	}
	hi, lo := Pins(p)

	var off, on []hardware.Pin
	switch s {
	case BothOff:
		off = []hardware.Pin{hi, lo}
	case HighSideOn:
		off, on = []hardware.Pin{lo}, []hardware.Pin{hi}
	case LowSideOn:
		off, on = []hardware.Pin{hi}, []hardware.Pin{lo}
	default:
		return fmt.Errorf("phase: invalid leg state %d", uint8(s))
	}

	for _, pin := range off {
		if err := l.gpio.Set(ctx, pin, false); err != nil {
			l.safeOff(ctx, p)
			return fmt.Errorf("phase: leg %s deassert %s: %w", p, pin, err)
		}
	}
	for _, pin := range on {
		if err := l.gpio.Set(ctx, pin, true); err != nil {
			l.safeOff(ctx, p)
			return fmt.Errorf("phase: leg %s assert %s: %w", p, pin, err)
		}
	}
	l.legs[p] = s
	slog.Debug("phase: leg set", "leg", p, "state", s)
	return nil
}

// safeOff makes a best-effort attempt to leave leg p with both lines low
// after a failed write.
func (l *Lines) safeOff(ctx context.Context, p Phase) {
	hi, lo := Pins(p)
	_ = l.gpio.Set(ctx, hi, false)
	_ = l.gpio.Set(ctx, lo, false)
	l.legs[p] = BothOff
}

// Leg returns the last state set on leg p.
func (l *Lines) Leg(p Phase) LegState {
	return l.legs[p]
}

// Legs returns the state of all three legs.
func (l *Lines) Legs() [3]LegState {
	return l.legs
}

// Released reports whether the lines have been moved to another owner.
func (l *Lines) Released() bool { return l.gpio == nil }

// IntoPWM moves the lines to the timer alternate function. Every line is
// driven low first. The returned owner holds the lines even when err is
// non-nil; l is inert afterwards in both cases.
func (l *Lines) IntoPWM(ctx context.Context) (*PWMLines, error) {
	if l.gpio == nil {
		return nil, ErrReleased
	}
	g := l.gpio
	l.gpio = nil
	l.legs = [3]LegState{}

	pl := &PWMLines{gpio: g}
	for _, p := range Phases {
		hi, lo := Pins(p)
		for _, pin := range []hardware.Pin{hi, lo} {
			if err := g.Set(ctx, pin, false); err != nil {
				return pl, fmt.Errorf("phase: release %s: %w", pin, err)
			}
		}
	}
	for _, p := range Phases {
		hi, lo := Pins(p)
		for _, pin := range []hardware.Pin{hi, lo} {
			if err := g.ConfigureAlternate(ctx, pin, hardware.AFTim1); err != nil {
				return pl, fmt.Errorf("phase: route %s to timer: %w", pin, err)
			}
		}
	}
	return pl, nil
}

// PWMLines is the Commutated owner: the six lines routed to the timer's
// complementary outputs. It has no way to drive a line directly.
type PWMLines struct {
	gpio hardware.GPIO
}

// Released reports whether the lines have been moved to another owner.
func (pl *PWMLines) Released() bool { return pl.gpio == nil }

// IntoOutputs moves the lines back to push-pull outputs with every leg
// BothOff. The returned owner holds the lines even when err is non-nil; pl
// is inert afterwards in both cases.
func (pl *PWMLines) IntoOutputs(ctx context.Context) (*Lines, error) {
	if pl.gpio == nil {
		return nil, ErrReleased
	}
	l := &Lines{gpio: pl.gpio}
	pl.gpio = nil
	return l, l.configure(ctx)
}
