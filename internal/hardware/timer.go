package hardware

import (
	"context"
	"fmt"
)

// Timer is the register-level capability of the advanced-control timer that
// drives the bridge.
type Timer interface {
	// Reset enables the timer clock and pulses its peripheral reset, leaving
	// every timer register at its reset value.
	Reset(ctx context.Context) error

	Read(ctx context.Context, reg TimerReg) (uint32, error)
	Write(ctx context.Context, reg TimerReg, val uint32) error

	// Modify clears then sets bits of one timer register.
	Modify(ctx context.Context, reg TimerReg, clear, set uint32) error
}

// BusTimer is a Timer backed by TIM1 registers on a Bus.
type BusTimer struct {
	bus  Bus
	base Addr
}

// NewTimer returns the TIM1 capability on the given bus.
func NewTimer(bus Bus) *BusTimer {
	return &BusTimer{bus: bus, base: BaseTIM1}
}

func (t *BusTimer) Reset(ctx context.Context) error {
	if err := Modify(ctx, t.bus, RCCAPB2ENR, 0, RCCAPB2TIM1); err != nil {
		return fmt.Errorf("tim1: clock enable: %w", err)
	}
	if err := Modify(ctx, t.bus, RCCAPB2RSTR, 0, RCCAPB2TIM1); err != nil {
		return fmt.Errorf("tim1: assert reset: %w", err)
	}
	if err := Modify(ctx, t.bus, RCCAPB2RSTR, RCCAPB2TIM1, 0); err != nil {
		return fmt.Errorf("tim1: release reset: %w", err)
	}
	return nil
}

func (t *BusTimer) Read(ctx context.Context, reg TimerReg) (uint32, error) {
	return t.bus.Read(ctx, t.base+Addr(reg))
}

func (t *BusTimer) Write(ctx context.Context, reg TimerReg, val uint32) error {
	return t.bus.Write(ctx, t.base+Addr(reg), val)
}

func (t *BusTimer) Modify(ctx context.Context, reg TimerReg, clear, set uint32) error {
	return Modify(ctx, t.bus, t.base+Addr(reg), clear, set)
}

var _ Timer = (*BusTimer)(nil)
