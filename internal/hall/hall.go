// Package hall reads the three rotor position sensors.
package hall

import (
	"context"
	"fmt"

	"github.com/openbench/phasebridge/internal/hardware"
)

// State is one raw sample of the hall inputs.
type State struct {
	A      bool  `json:"a"`
	B      bool  `json:"b"`
	C      bool  `json:"c"`
	Sector uint8 `json:"sector"`
}

// Sector packs three hall levels into a<<2 | b<<1 | c.
func Sector(a, b, c bool) uint8 {
	var s uint8
	if a {
		s |= 1 << 2
	}
	if b {
		s |= 1 << 1
	}
	if c {
		s |= 1
	}
	return s
}

// Decoder samples the hall inputs. There is no debouncing and no edge
// latching; each Read reflects the pins at that moment.
type Decoder struct {
	gpio hardware.GPIO
	pins [3]hardware.Pin
}

// NewDecoder returns a decoder on the board's hall pins.
func NewDecoder(g hardware.GPIO) *Decoder {
	return &Decoder{
		gpio: g,
		pins: [3]hardware.Pin{hardware.PinHallA, hardware.PinHallB, hardware.PinHallC},
	}
}

// Setup puts the hall pins in input mode.
func (d *Decoder) Setup(ctx context.Context) error {
	for _, pin := range d.pins {
		if err := d.gpio.ConfigureInput(ctx, pin); err != nil {
			return fmt.Errorf("hall: %s: %w", pin, err)
		}
	}
	return nil
}

func (d *Decoder) Read(ctx context.Context) (State, error) {
	var lv [3]bool
	for i, pin := range d.pins {
		v, err := d.gpio.Get(ctx, pin)
		if err != nil {
			return State{}, fmt.Errorf("hall: %w", err)
		}
		lv[i] = v
	}
	return State{A: lv[0], B: lv[1], C: lv[2], Sector: Sector(lv[0], lv[1], lv[2])}, nil
}
