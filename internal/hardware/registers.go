package hardware

import "fmt"

// STM32F4 peripheral base addresses used by the power stage.
const (
	BaseGPIOA Addr = 0x40020000
	BaseGPIOB Addr = 0x40020400
	BaseGPIOC Addr = 0x40020800
	BaseGPIOD Addr = 0x40020C00
	BaseRCC   Addr = 0x40023800
	BaseTIM1  Addr = 0x40010000
	BaseADC1  Addr = 0x40012000
)

// RCC registers and bits.
const (
	RCCAHB1ENR  Addr = BaseRCC + 0x30
	RCCAPB2RSTR Addr = BaseRCC + 0x24
	RCCAPB2ENR  Addr = BaseRCC + 0x44

	RCCAPB2TIM1  uint32 = 1 << 0 // TIM1EN / TIM1RST
	RCCAPB2ADC1  uint32 = 1 << 8 // ADC1EN
	RCCAHB1GPIOA uint32 = 1 << 0 // GPIOAEN; GPIOB..D follow
)

// GPIO register offsets from a port base.
const (
	GPIOModer   Addr = 0x00 // 2 bits per pin: 00 input, 01 output, 10 alternate, 11 analog
	GPIOOtyper  Addr = 0x04
	GPIOOspeedr Addr = 0x08
	GPIOPupdr   Addr = 0x0C
	GPIOIdr     Addr = 0x10
	GPIOOdr     Addr = 0x14
	GPIOBsrr    Addr = 0x18 // low half sets, high half resets; write-only
	GPIOAfrl    Addr = 0x20 // 4 bits per pin 0-7
	GPIOAfrh    Addr = 0x24 // 4 bits per pin 8-15
)

// TimerReg is a register offset inside an advanced-control timer block.
type TimerReg uint32

// TIM1 register offsets.
const (
	TimCR1   TimerReg = 0x00
	TimCR2   TimerReg = 0x04
	TimSMCR  TimerReg = 0x08
	TimDIER  TimerReg = 0x0C
	TimSR    TimerReg = 0x10
	TimEGR   TimerReg = 0x14
	TimCCMR1 TimerReg = 0x18
	TimCCMR2 TimerReg = 0x1C
	TimCCER  TimerReg = 0x20
	TimCNT   TimerReg = 0x24
	TimPSC   TimerReg = 0x28
	TimARR   TimerReg = 0x2C
	TimRCR   TimerReg = 0x30
	TimCCR1  TimerReg = 0x34
	TimCCR2  TimerReg = 0x38
	TimCCR3  TimerReg = 0x3C
	TimCCR4  TimerReg = 0x40
	TimBDTR  TimerReg = 0x44
)

var timerRegNames = map[TimerReg]string{
	TimCR1: "CR1", TimCR2: "CR2", TimSMCR: "SMCR", TimDIER: "DIER",
	TimSR: "SR", TimEGR: "EGR", TimCCMR1: "CCMR1", TimCCMR2: "CCMR2",
	TimCCER: "CCER", TimCNT: "CNT", TimPSC: "PSC", TimARR: "ARR",
	TimRCR: "RCR", TimCCR1: "CCR1", TimCCR2: "CCR2", TimCCR3: "CCR3",
	TimCCR4: "CCR4", TimBDTR: "BDTR",
}

func (r TimerReg) String() string {
	if n, ok := timerRegNames[r]; ok {
		return n
	}
	return fmt.Sprintf("TIM+0x%02X", uint32(r))
}

// CR1 bits.
const (
	CR1CEN       uint32 = 1 << 0 // counter enable
	CR1UDIS      uint32 = 1 << 1 // update disable (shadow registers keep their value)
	CR1CMSCenter uint32 = 1 << 5 // CMS=01: center-aligned mode 1
	CR1CMSMask   uint32 = 3 << 5
	CR1ARPE      uint32 = 1 << 7 // auto-reload preload
	CR1CKDMask   uint32 = 3 << 8 // CKD=00: tDTS = tCK_INT
)

// CR2 bits.
const (
	CR2CCPC  uint32 = 1 << 0 // capture/compare control preload
	CR2OIS1  uint32 = 1 << 8
	CR2OIS1N uint32 = 1 << 9
	CR2OIS2  uint32 = 1 << 10
	CR2OIS2N uint32 = 1 << 11
	CR2OIS3  uint32 = 1 << 12
	CR2OIS3N uint32 = 1 << 13
)

// EGR bits.
const EGRUG uint32 = 1 << 0

// CCMR output-compare fields. Channel 1/3 sit in the low byte, 2 in the high byte
// of CCMR1.
const (
	CCMROC1PE    uint32 = 1 << 3
	CCMROC1MMask uint32 = 7 << 4
	CCMROC1MPWM1 uint32 = 6 << 4
	CCMROC2PE    uint32 = 1 << 11
	CCMROC2MMask uint32 = 7 << 12
	CCMROC2MPWM1 uint32 = 6 << 12
)

// CCER bits for channels 1-3.
const (
	CCERCC1E  uint32 = 1 << 0
	CCERCC1P  uint32 = 1 << 1
	CCERCC1NE uint32 = 1 << 2
	CCERCC2E  uint32 = 1 << 4
	CCERCC2P  uint32 = 1 << 5
	CCERCC2NE uint32 = 1 << 6
	CCERCC3E  uint32 = 1 << 8
	CCERCC3P  uint32 = 1 << 9
	CCERCC3NE uint32 = 1 << 10
)

// BDTR fields.
const (
	BDTRDTGMask uint32 = 0xFF
	BDTRLOCK    uint32 = 3 << 8
	BDTROSSI    uint32 = 1 << 10
	BDTROSSR    uint32 = 1 << 11
	BDTRBKE     uint32 = 1 << 12
	BDTRBKP     uint32 = 1 << 13
	BDTRAOE     uint32 = 1 << 14
	BDTRMOE     uint32 = 1 << 15
)

// ADC1 registers and bits.
const (
	ADCSR    Addr = BaseADC1 + 0x00
	ADCCR1   Addr = BaseADC1 + 0x04
	ADCCR2   Addr = BaseADC1 + 0x08
	ADCSMPR1 Addr = BaseADC1 + 0x0C // channels 10-18
	ADCSMPR2 Addr = BaseADC1 + 0x10 // channels 0-9
	ADCSQR1  Addr = BaseADC1 + 0x2C
	ADCSQR3  Addr = BaseADC1 + 0x34
	ADCDR    Addr = BaseADC1 + 0x4C

	ADCSREOC     uint32 = 1 << 1
	ADCCR2ADON   uint32 = 1 << 0
	ADCCR2SWSTRT uint32 = 1 << 30
	ADCSQR3Mask  uint32 = 0x1F
)

// TimerPreloaded reports whether a timer register is double-buffered (writes
// land in a preload register and reach the active register on an update event).
func TimerPreloaded(reg TimerReg) bool {
	switch reg {
	case TimARR, TimPSC, TimRCR, TimCCR1, TimCCR2, TimCCR3, TimCCR4:
		return true
	}
	return false
}

// PortBase returns the register block base of a GPIO port.
func PortBase(p Port) Addr {
	return BaseGPIOA + Addr(p)*0x400
}

// ModeField returns the MODER mask and value for pin n in the given mode.
func ModeField(n uint8, mode PinMode) (mask, val uint32) {
	shift := uint32(n) * 2
	return 3 << shift, uint32(mode) << shift
}

// AFField returns the AFR register, mask and value that select alternate
// function af on pin n.
func AFField(n uint8, af uint8) (reg Addr, mask, val uint32) {
	reg = GPIOAfrl
	if n >= 8 {
		reg = GPIOAfrh
		n -= 8
	}
	shift := uint32(n) * 4
	return reg, 0xF << shift, uint32(af&0xF) << shift
}

// SMPField returns the sample-time register, mask and value for an ADC channel.
func SMPField(ch ADCChannel, st SampleTime) (reg Addr, mask, val uint32) {
	reg = ADCSMPR2
	n := uint32(ch)
	if n >= 10 {
		reg = ADCSMPR1
		n -= 10
	}
	shift := n * 3
	return reg, 7 << shift, uint32(st&7) << shift
}
