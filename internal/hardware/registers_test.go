package hardware_test

import (
	"testing"

	"github.com/openbench/phasebridge/internal/hardware"
)

func TestPortBase(t *testing.T) {
	tests := []struct {
		port hardware.Port
		base hardware.Addr
	}{
		{hardware.PortA, 0x40020000},
		{hardware.PortB, 0x40020400},
		{hardware.PortC, 0x40020800},
		{hardware.PortD, 0x40020C00},
	}
	for _, tc := range tests {
		if got := hardware.PortBase(tc.port); got != tc.base {
			t.Errorf("PortBase(%d) = 0x%08X, want 0x%08X", tc.port, got, tc.base)
		}
	}
}

func TestModeField(t *testing.T) {
	tests := []struct {
		pin  uint8
		mode hardware.PinMode
		mask uint32
		val  uint32
	}{
		{0, hardware.ModeOutput, 0x3, 0x1},
		{8, hardware.ModeAlternate, 0x3 << 16, 0x2 << 16},
		{15, hardware.ModeAnalog, 0x3 << 30, 0x3 << 30},
		{13, hardware.ModeInput, 0x3 << 26, 0},
	}
	for _, tc := range tests {
		mask, val := hardware.ModeField(tc.pin, tc.mode)
		if mask != tc.mask || val != tc.val {
			t.Errorf("ModeField(%d, %s) = (0x%08X, 0x%08X), want (0x%08X, 0x%08X)",
				tc.pin, tc.mode, mask, val, tc.mask, tc.val)
		}
	}
}

func TestAFField(t *testing.T) {
	tests := []struct {
		pin  uint8
		reg  hardware.Addr
		mask uint32
		val  uint32
	}{
		{8, hardware.GPIOAfrh, 0xF, 0x1},         // PA8
		{10, hardware.GPIOAfrh, 0xF << 8, 0x100}, // PA10
		{15, hardware.GPIOAfrh, 0xF << 28, 0x1 << 28},
		{3, hardware.GPIOAfrl, 0xF << 12, 0x1 << 12},
	}
	for _, tc := range tests {
		reg, mask, val := hardware.AFField(tc.pin, hardware.AFTim1)
		if reg != tc.reg || mask != tc.mask || val != tc.val {
			t.Errorf("AFField(%d) = (0x%02X, 0x%08X, 0x%08X), want (0x%02X, 0x%08X, 0x%08X)",
				tc.pin, reg, mask, val, tc.reg, tc.mask, tc.val)
		}
	}
}

func TestSMPField(t *testing.T) {
	reg, mask, val := hardware.SMPField(hardware.ChanVB, hardware.SampleCycles28)
	if reg != hardware.ADCSMPR2 || mask != 7<<3 || val != 2<<3 {
		t.Errorf("SMPField(ch1) = (0x%08X, 0x%X, 0x%X)", reg, mask, val)
	}
	reg, mask, val = hardware.SMPField(hardware.ChanVIn, hardware.SampleCycles28)
	if reg != hardware.ADCSMPR1 || mask != 7<<9 || val != 2<<9 {
		t.Errorf("SMPField(ch13) = (0x%08X, 0x%X, 0x%X)", reg, mask, val)
	}
}

func TestTimerPreloaded(t *testing.T) {
	for _, reg := range []hardware.TimerReg{hardware.TimARR, hardware.TimCCR1, hardware.TimCCR2, hardware.TimCCR3} {
		if !hardware.TimerPreloaded(reg) {
			t.Errorf("TimerPreloaded(%s) = false, want true", reg)
		}
	}
	for _, reg := range []hardware.TimerReg{hardware.TimCR1, hardware.TimCCER, hardware.TimBDTR} {
		if hardware.TimerPreloaded(reg) {
			t.Errorf("TimerPreloaded(%s) = true, want false", reg)
		}
	}
}

func TestTimerRegString(t *testing.T) {
	if got := hardware.TimBDTR.String(); got != "BDTR" {
		t.Errorf("TimBDTR = %q, want BDTR", got)
	}
	if got := hardware.TimerReg(0x48).String(); got != "TIM+0x48" {
		t.Errorf("TimerReg(0x48) = %q", got)
	}
}

func TestPinString(t *testing.T) {
	if got := hardware.PinAH.String(); got != "PA8" {
		t.Errorf("PinAH = %q, want PA8", got)
	}
	if got := hardware.PinCL.String(); got != "PB15" {
		t.Errorf("PinCL = %q, want PB15", got)
	}
	if got := hardware.PinHallA.String(); got != "PC13" {
		t.Errorf("PinHallA = %q, want PC13", got)
	}
}

func TestAnalogPinsCoverNineChannels(t *testing.T) {
	if len(hardware.AnalogPins) != 9 {
		t.Fatalf("AnalogPins has %d channels, want 9", len(hardware.AnalogPins))
	}
	for ch, pin := range hardware.AnalogPins {
		if pin.Port == hardware.PortA && uint8(ch) != pin.Num {
			t.Errorf("channel %d mapped to %s, want PA%d", ch, pin, ch)
		}
	}
}
