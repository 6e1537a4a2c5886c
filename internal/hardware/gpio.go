package hardware

import (
	"context"
	"fmt"
)

// GPIO is the digital line capability of the board MCU.
type GPIO interface {
	// EnableClocks turns on the GPIO port clocks. Must precede any configuration.
	EnableClocks(ctx context.Context) error

	// ConfigureOutput makes pin a push-pull output. The output latch is written
	// with level before the mode switch so the pin never drives a stale value.
	ConfigureOutput(ctx context.Context, pin Pin, level bool) error

	// ConfigureAlternate routes pin to peripheral alternate function af.
	ConfigureAlternate(ctx context.Context, pin Pin, af uint8) error

	// ConfigureInput makes pin a floating input.
	ConfigureInput(ctx context.Context, pin Pin) error

	// ConfigureAnalog disconnects the digital path so the ADC can sample pin.
	ConfigureAnalog(ctx context.Context, pin Pin) error

	// Set drives an output pin high (true) or low (false).
	Set(ctx context.Context, pin Pin, level bool) error

	// Get reads the input level of pin.
	Get(ctx context.Context, pin Pin) (bool, error)
}

// BusGPIO implements GPIO on the STM32 GPIO register blocks.
type BusGPIO struct {
	bus Bus
}

// NewGPIO returns the GPIO capability on the given bus.
func NewGPIO(bus Bus) *BusGPIO {
	return &BusGPIO{bus: bus}
}

func (g *BusGPIO) EnableClocks(ctx context.Context) error {
	var en uint32
	for p := PortA; p <= PortD; p++ {
		en |= RCCAHB1GPIOA << uint(p)
	}
	if err := Modify(ctx, g.bus, RCCAHB1ENR, 0, en); err != nil {
		return fmt.Errorf("gpio: clock enable: %w", err)
	}
	return nil
}

func (g *BusGPIO) ConfigureOutput(ctx context.Context, pin Pin, level bool) error {
	if err := g.Set(ctx, pin, level); err != nil {
		return err
	}
	return g.setMode(ctx, pin, ModeOutput)
}

func (g *BusGPIO) ConfigureAlternate(ctx context.Context, pin Pin, af uint8) error {
	reg, mask, val := AFField(pin.Num, af)
	if err := Modify(ctx, g.bus, PortBase(pin.Port)+reg, mask, val); err != nil {
		return fmt.Errorf("gpio: %s select AF%d: %w", pin, af, err)
	}
	return g.setMode(ctx, pin, ModeAlternate)
}

func (g *BusGPIO) ConfigureInput(ctx context.Context, pin Pin) error {
	return g.setMode(ctx, pin, ModeInput)
}

func (g *BusGPIO) ConfigureAnalog(ctx context.Context, pin Pin) error {
	return g.setMode(ctx, pin, ModeAnalog)
}

func (g *BusGPIO) Set(ctx context.Context, pin Pin, level bool) error {
	bit := uint32(1) << pin.Num
	if !level {
		bit <<= 16
	}
	if err := g.bus.Write(ctx, PortBase(pin.Port)+GPIOBsrr, bit); err != nil {
		return fmt.Errorf("gpio: %s set %v: %w", pin, level, err)
	}
	return nil
}

func (g *BusGPIO) Get(ctx context.Context, pin Pin) (bool, error) {
	v, err := g.bus.Read(ctx, PortBase(pin.Port)+GPIOIdr)
	if err != nil {
		return false, fmt.Errorf("gpio: %s read: %w", pin, err)
	}
	return v&(1<<pin.Num) != 0, nil
}

func (g *BusGPIO) setMode(ctx context.Context, pin Pin, mode PinMode) error {
	mask, val := ModeField(pin.Num, mode)
	if err := Modify(ctx, g.bus, PortBase(pin.Port)+GPIOModer, mask, val); err != nil {
		return fmt.Errorf("gpio: %s mode %s: %w", pin, mode, err)
	}
	return nil
}

var _ GPIO = (*BusGPIO)(nil)
