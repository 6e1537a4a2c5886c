package hardware

import "fmt"

// Port is a GPIO port index (A=0).
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD
)

// Pin identifies one GPIO line on the board MCU.
type Pin struct {
	Port Port
	Num  uint8
}

func (p Pin) String() string { return fmt.Sprintf("P%c%d", 'A'+rune(p.Port), p.Num) }

// PinMode is the MODER configuration of a pin.
type PinMode uint8

const (
	ModeInput PinMode = iota
	ModeOutput
	ModeAlternate
	ModeAnalog
)

func (m PinMode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeOutput:
		return "output"
	case ModeAlternate:
		return "alternate"
	case ModeAnalog:
		return "analog"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ADCChannel is an ADC1 input channel number.
type ADCChannel uint8

// SampleTime is an ADC SMPR code.
type SampleTime uint8

// SampleCycles28 is the sample time used for every feedback channel.
const SampleCycles28 SampleTime = 2

// CoreClockHz is the timer kernel clock. The board runs from the 8 MHz HSE with
// no PLL, so TIM1 is clocked at 8 MHz.
const CoreClockHz = 8_000_000

// AFTim1 is the alternate function number that routes TIM1 to the bridge pins.
const AFTim1 uint8 = 1

// Bridge drive lines, high/low side per leg.
var (
	PinAH = Pin{PortA, 8}
	PinAL = Pin{PortB, 13}
	PinBH = Pin{PortA, 9}
	PinBL = Pin{PortB, 14}
	PinCH = Pin{PortA, 10}
	PinCL = Pin{PortB, 15}
)

// Hall sensor inputs.
var (
	PinHallA = Pin{PortC, 13}
	PinHallB = Pin{PortC, 14}
	PinHallC = Pin{PortC, 15}
)

// Gate driver control lines.
var (
	PinDrvEnable    = Pin{PortB, 5}
	PinDrvOffsetCal = Pin{PortB, 1}
	PinDrvFault     = Pin{PortB, 4} // active low
)

// Analog feedback channels (ADC1).
const (
	ChanVA        ADCChannel = 0  // PA0
	ChanVB        ADCChannel = 1  // PA1
	ChanVC        ADCChannel = 2  // PA2
	ChanTempFET   ADCChannel = 3  // PA3
	ChanIC        ADCChannel = 10 // PC0
	ChanIB        ADCChannel = 11 // PC1
	ChanIA        ADCChannel = 12 // PC2
	ChanVIn       ADCChannel = 13 // PC3
	ChanTempMotor ADCChannel = 14 // PC4
)

// AnalogPins maps each feedback channel to the pin that must be in analog mode.
var AnalogPins = map[ADCChannel]Pin{
	ChanVA:        {PortA, 0},
	ChanVB:        {PortA, 1},
	ChanVC:        {PortA, 2},
	ChanTempFET:   {PortA, 3},
	ChanIC:        {PortC, 0},
	ChanIB:        {PortC, 1},
	ChanIA:        {PortC, 2},
	ChanVIn:       {PortC, 3},
	ChanTempMotor: {PortC, 4},
}
