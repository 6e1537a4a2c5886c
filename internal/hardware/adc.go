package hardware

import (
	"context"
	"fmt"
)

// maxEOCPolls bounds the wait for an ADC conversion. A conversion at 28
// sample cycles finishes well within one register-link round trip, so a
// handful of polls is plenty.
const maxEOCPolls = 16

// ADC is the analog sampling capability.
type ADC interface {
	// Init powers the converter and selects single-conversion sequences.
	Init(ctx context.Context) error

	// Convert performs one blocking single conversion of ch and returns the
	// raw 12-bit code.
	Convert(ctx context.Context, ch ADCChannel, st SampleTime) (uint16, error)
}

// BusADC implements ADC on the ADC1 register block.
type BusADC struct {
	bus Bus
}

// NewADC returns the ADC1 capability on the given bus.
func NewADC(bus Bus) *BusADC {
	return &BusADC{bus: bus}
}

func (a *BusADC) Init(ctx context.Context) error {
	if err := Modify(ctx, a.bus, RCCAPB2ENR, 0, RCCAPB2ADC1); err != nil {
		return fmt.Errorf("adc: clock enable: %w", err)
	}
	// One conversion per sequence (SQR1.L = 0).
	if err := a.bus.Write(ctx, ADCSQR1, 0); err != nil {
		return fmt.Errorf("adc: sequence length: %w", err)
	}
	if err := Modify(ctx, a.bus, ADCCR2, 0, ADCCR2ADON); err != nil {
		return fmt.Errorf("adc: power on: %w", err)
	}
	return nil
}

func (a *BusADC) Convert(ctx context.Context, ch ADCChannel, st SampleTime) (uint16, error) {
	reg, mask, val := SMPField(ch, st)
	if err := Modify(ctx, a.bus, reg, mask, val); err != nil {
		return 0, fmt.Errorf("adc: ch%d sample time: %w", ch, err)
	}
	if err := a.bus.Write(ctx, ADCSQR3, uint32(ch)&ADCSQR3Mask); err != nil {
		return 0, fmt.Errorf("adc: ch%d select: %w", ch, err)
	}
	if err := Modify(ctx, a.bus, ADCCR2, 0, ADCCR2SWSTRT); err != nil {
		return 0, fmt.Errorf("adc: ch%d start: %w", ch, err)
	}
	for i := 0; i < maxEOCPolls; i++ {
		sr, err := a.bus.Read(ctx, ADCSR)
		if err != nil {
			return 0, fmt.Errorf("adc: ch%d status: %w", ch, err)
		}
		if sr&ADCSREOC == 0 {
			continue
		}
		dr, err := a.bus.Read(ctx, ADCDR)
		if err != nil {
			return 0, fmt.Errorf("adc: ch%d data: %w", ch, err)
		}
		return uint16(dr & 0xFFF), nil
	}
	return 0, fmt.Errorf("adc: ch%d: %w", ch, ErrTimeout)
}

var _ ADC = (*BusADC)(nil)
