//go:build linux

package hardware

import (
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	// Bench host header pins wired to the power stage MCU (BCM numbering).
	pinNRST  = "GPIO17" // Active-low reset signal
	pinBOOT0 = "GPIO27" // Bootloader mode selection (0=firmware, 1=bootloader)
)

// resetMCU pulses the power stage MCU reset from the bench host.
//
// Reset sequence:
//  1. Initialize GPIO host driver
//  2. Set NRST low to assert reset
//  3. Set BOOT0 to determine boot mode
//  4. Hold reset for 1ms (hardware requires >300ns)
//  5. Release NRST (set high) to exit reset
//
// Resetting the MCU also resets TIM1 and every GPIO to input, so all six
// bridge lines float until the controller claims them.
func resetMCU(bootloader bool) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio: host init failed: %w", err)
	}

	nrstPin := gpioreg.ByName(pinNRST)
	if nrstPin == nil {
		return fmt.Errorf("gpio: failed to open %s (NRST)", pinNRST)
	}
	boot0Pin := gpioreg.ByName(pinBOOT0)
	if boot0Pin == nil {
		return fmt.Errorf("gpio: failed to open %s (BOOT0)", pinBOOT0)
	}

	if err := nrstPin.Out(gpio.Low); err != nil {
		return fmt.Errorf("gpio: failed to assert NRST: %w", err)
	}

	boot0Level := gpio.Low
	if bootloader {
		boot0Level = gpio.High
	}
	if err := boot0Pin.Out(boot0Level); err != nil {
		return fmt.Errorf("gpio: failed to set BOOT0: %w", err)
	}

	time.Sleep(1 * time.Millisecond)

	if err := nrstPin.Out(gpio.High); err != nil {
		return fmt.Errorf("gpio: failed to release NRST: %w", err)
	}

	slog.Debug("gpio: MCU reset complete",
		"nrst_pin", pinNRST,
		"boot0_pin", pinBOOT0,
		"bootloader", bootloader)
	return nil
}
