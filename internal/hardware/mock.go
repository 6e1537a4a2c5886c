package hardware

import (
	"context"
	"sync"
)

// Access is one register write recorded by the Mock.
type Access struct {
	Addr Addr
	Val  uint32
}

// Mock is a thread-safe in-memory register bus for testing and development.
// It emulates just enough peripheral behaviour for the bridge:
//   - GPIO: BSRR updates ODR, IDR reflects programmed inputs and driven outputs.
//   - TIM1: ARR/CCRx are double-buffered; the preload value reaches the active
//     register on an update event unless CR1.UDIS is set. RCC reset clears the block.
//   - ADC1: SWSTART loads DR with the programmed sample for the SQR3 channel and sets EOC.
type Mock struct {
	mu        sync.Mutex
	mem       map[Addr]uint32
	active    map[Addr]uint32 // TIM1 shadow registers
	inputs    map[Pin]bool
	samples   map[ADCChannel]uint16
	writes    []Access
	pairs     [][2]Pin
	overlaps  int
	updates   int
	failWrite bool
	failRead  bool
}

// NewMock creates a mock bus with every register at zero.
func NewMock() *Mock {
	return &Mock{
		mem:     make(map[Addr]uint32),
		active:  make(map[Addr]uint32),
		inputs:  make(map[Pin]bool),
		samples: make(map[ADCChannel]uint16),
	}
}

// SetFailWrite configures the mock to fail all write operations.
func (m *Mock) SetFailWrite(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = fail
}

// SetFailRead configures the mock to fail all read operations.
func (m *Mock) SetFailRead(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead = fail
}

func (m *Mock) Init(ctx context.Context) error {
	return nil
}

func (m *Mock) IsReal() bool { return false }

func (m *Mock) Write(ctx context.Context, addr Addr, val uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return ErrHardware("mock: write failure configured")
	}
	m.writes = append(m.writes, Access{Addr: addr, Val: val})

	if port, off, ok := gpioOffset(addr); ok {
		switch off {
		case GPIOBsrr:
			odr := PortBase(port) + GPIOOdr
			v := m.mem[odr]
			v |= val & 0xFFFF
			v &^= val >> 16
			m.mem[odr] = v
		default:
			m.mem[addr] = val
		}
		m.checkPairs()
		return nil
	}

	if reg, ok := timerOffset(addr); ok {
		switch {
		case reg == TimEGR:
			if val&EGRUG != 0 && m.mem[BaseTIM1+Addr(TimCR1)]&CR1UDIS == 0 {
				m.transfer()
			}
		case TimerPreloaded(reg):
			m.mem[addr] = val
			if !m.preloadEnabled(reg) {
				m.active[addr] = val
			}
		default:
			m.mem[addr] = val
		}
		return nil
	}

	switch addr {
	case RCCAPB2RSTR:
		m.mem[addr] = val
		if val&RCCAPB2TIM1 != 0 {
			for a := range m.mem {
				if _, ok := timerOffset(a); ok {
					delete(m.mem, a)
				}
			}
			m.active = make(map[Addr]uint32)
			m.updates = 0
		}
	case ADCCR2:
		if val&ADCCR2SWSTRT != 0 {
			ch := ADCChannel(m.mem[ADCSQR3] & ADCSQR3Mask)
			m.mem[ADCDR] = uint32(m.samples[ch])
			m.mem[ADCSR] |= ADCSREOC
			val &^= ADCCR2SWSTRT
		}
		m.mem[addr] = val
	default:
		m.mem[addr] = val
	}
	return nil
}

func (m *Mock) Read(ctx context.Context, addr Addr) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead {
		return 0, ErrHardware("mock: read failure configured")
	}
	if port, off, ok := gpioOffset(addr); ok && off == GPIOIdr {
		v := m.mem[PortBase(port)+GPIOOdr]
		for pin, level := range m.inputs {
			if pin.Port == port && level {
				v |= 1 << pin.Num
			}
		}
		return v, nil
	}
	if addr == ADCDR {
		m.mem[ADCSR] &^= ADCSREOC
	}
	return m.mem[addr], nil
}

// UpdateEvent simulates a timer period boundary. Preload registers are
// transferred to the active registers unless CR1.UDIS is set. Reports whether
// a transfer happened.
func (m *Mock) UpdateEvent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mem[BaseTIM1+Addr(TimCR1)]&CR1UDIS != 0 {
		return false
	}
	m.transfer()
	return true
}

// Updates returns how many preload transfers have happened since the last timer reset.
func (m *Mock) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// Active returns the active (shadow) value of a double-buffered timer register.
func (m *Mock) Active(reg TimerReg) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[BaseTIM1+Addr(reg)]
}

// TimerReg returns the written (preload) value of a timer register.
func (m *Mock) TimerReg(reg TimerReg) uint32 {
	return m.Reg(BaseTIM1 + Addr(reg))
}

// Reg returns a raw register value for testing purposes.
func (m *Mock) Reg(addr Addr) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mem[addr]
}

// Level returns the output latch state of pin.
func (m *Mock) Level(pin Pin) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mem[PortBase(pin.Port)+GPIOOdr]&(1<<pin.Num) != 0
}

// Mode returns the configured MODER mode of pin.
func (m *Mock) Mode(pin Pin) PinMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modeLocked(pin)
}

// AF returns the alternate function selected for pin.
func (m *Mock) AF(pin Pin) uint8 {
	reg, _, _ := AFField(pin.Num, 0)
	v := m.Reg(PortBase(pin.Port) + reg)
	return uint8(v>>(uint(pin.Num%8)*4)) & 0xF
}

// SetInput programs the level an input pin reads back.
func (m *Mock) SetInput(pin Pin, level bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[pin] = level
}

// SetSample programs the raw code the next conversion of ch returns.
func (m *Mock) SetSample(ch ADCChannel, raw uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[ch] = raw
}

// WatchPair records every moment both pins are outputs driven high at once.
func (m *Mock) WatchPair(a, b Pin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs = append(m.pairs, [2]Pin{a, b})
}

// Overlaps returns how many GPIO writes left a watched pair both driven high.
func (m *Mock) Overlaps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlaps
}

// Writes returns a copy of the write log.
func (m *Mock) Writes() []Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Access, len(m.writes))
	copy(out, m.writes)
	return out
}

// ResetWrites clears the write log.
func (m *Mock) ResetWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}

func (m *Mock) transfer() {
	for _, reg := range []TimerReg{TimARR, TimPSC, TimRCR, TimCCR1, TimCCR2, TimCCR3, TimCCR4} {
		a := BaseTIM1 + Addr(reg)
		m.active[a] = m.mem[a]
	}
	m.updates++
}

func (m *Mock) preloadEnabled(reg TimerReg) bool {
	cr1 := m.mem[BaseTIM1+Addr(TimCR1)]
	ccmr1 := m.mem[BaseTIM1+Addr(TimCCMR1)]
	ccmr2 := m.mem[BaseTIM1+Addr(TimCCMR2)]
	switch reg {
	case TimARR:
		return cr1&CR1ARPE != 0
	case TimCCR1:
		return ccmr1&CCMROC1PE != 0
	case TimCCR2:
		return ccmr1&CCMROC2PE != 0
	case TimCCR3:
		return ccmr2&CCMROC1PE != 0
	case TimCCR4:
		return ccmr2&CCMROC2PE != 0
	}
	// PSC and RCR are always buffered.
	return true
}

func (m *Mock) modeLocked(pin Pin) PinMode {
	mask, _ := ModeField(pin.Num, 0)
	v := m.mem[PortBase(pin.Port)+GPIOModer] & mask
	return PinMode(v >> (uint(pin.Num) * 2))
}

func (m *Mock) checkPairs() {
	for _, p := range m.pairs {
		a, b := p[0], p[1]
		if m.modeLocked(a) != ModeOutput || m.modeLocked(b) != ModeOutput {
			continue
		}
		la := m.mem[PortBase(a.Port)+GPIOOdr]&(1<<a.Num) != 0
		lb := m.mem[PortBase(b.Port)+GPIOOdr]&(1<<b.Num) != 0
		if la && lb {
			m.overlaps++
		}
	}
}

func gpioOffset(addr Addr) (Port, Addr, bool) {
	if addr < BaseGPIOA || addr >= BaseGPIOD+0x400 {
		return 0, 0, false
	}
	rel := addr - BaseGPIOA
	return Port(rel / 0x400), rel % 0x400, true
}

func timerOffset(addr Addr) (TimerReg, bool) {
	if addr < BaseTIM1 || addr >= BaseTIM1+0x400 {
		return 0, false
	}
	return TimerReg(addr - BaseTIM1), true
}

var _ Bus = (*Mock)(nil)
