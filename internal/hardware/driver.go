// Package hardware provides the hardware abstraction layer for the power stage.
// Every peripheral the bridge uses (timer, GPIO, ADC) is reached through a
// 32-bit register Bus; the real implementation talks to the board MCU over the
// register link, the mock emulates the few peripheral behaviours the bridge
// depends on.
package hardware

import (
	"context"
	"errors"
)

// Addr is a 32-bit peripheral register address in the board MCU's memory map.
type Addr uint32

// ErrTimeout is returned when a peripheral does not signal completion within
// its polling budget (e.g. an ADC conversion that never sets EOC).
var ErrTimeout = errors.New("hardware: peripheral timeout")

// Bus is the register access interface all peripheral capabilities are built on.
type Bus interface {
	// Init brings the link up. Must be called before any other method.
	Init(ctx context.Context) error

	// Read reads one 32-bit register.
	Read(ctx context.Context, addr Addr) (uint32, error)

	// Write writes one 32-bit register.
	Write(ctx context.Context, addr Addr, val uint32) error

	// IsReal returns true for a real hardware link, false for a mock.
	IsReal() bool
}

// Modify performs a read-modify-write: bits in clear are cleared, then bits in
// set are set.
func Modify(ctx context.Context, b Bus, addr Addr, clear, set uint32) error {
	v, err := b.Read(ctx, addr)
	if err != nil {
		return err
	}
	return b.Write(ctx, addr, (v&^clear)|set)
}

// HardwareError is returned when a hardware operation fails.
type HardwareError struct {
	msg string
}

func (e HardwareError) Error() string { return e.msg }

// ErrHardware creates a new hardware error.
func ErrHardware(msg string) error { return HardwareError{msg: msg} }
