package feedback

import (
	"context"
	"fmt"

	"github.com/openbench/phasebridge/internal/hardware"
)

// Kind says how a channel's pin voltage maps to a physical value.
type Kind uint8

const (
	KindVoltage Kind = iota // resistor-divided supply or phase voltage
	KindCurrent             // shunt + sense amplifier
	KindRaw                 // pin voltage only (thermistors)
)

// Unit returns the unit of the channel's Value.
func (k Kind) Unit() string {
	if k == KindCurrent {
		return "mA"
	}
	return "mV"
}

// Channel is one analog feedback input.
type Channel struct {
	Name string
	ADC  hardware.ADCChannel
	Kind Kind
}

// Channel names.
const (
	VA        = "v_a"
	VB        = "v_b"
	VC        = "v_c"
	IA        = "i_a"
	IB        = "i_b"
	IC        = "i_c"
	VIn       = "v_in"
	TempFET   = "t_fet"
	TempMotor = "t_motor"
)

// Channels is the board's feedback table.
var Channels = []Channel{
	{VA, hardware.ChanVA, KindVoltage},
	{VB, hardware.ChanVB, KindVoltage},
	{VC, hardware.ChanVC, KindVoltage},
	{IA, hardware.ChanIA, KindCurrent},
	{IB, hardware.ChanIB, KindCurrent},
	{IC, hardware.ChanIC, KindCurrent},
	{VIn, hardware.ChanVIn, KindVoltage},
	{TempFET, hardware.ChanTempFET, KindRaw},
	{TempMotor, hardware.ChanTempMotor, KindRaw},
}

// Lookup returns the channel with the given name.
func Lookup(name string) (Channel, bool) {
	for _, ch := range Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// Reading is one converted sample.
type Reading struct {
	Channel string `json:"channel"`
	Raw     uint16 `json:"raw"`
	PinMV   int32  `json:"pin_mv"`
	Value   int32  `json:"value"`
	Unit    string `json:"unit"`
}

// Sampler converts fresh ADC samples. Nothing is cached: every Read starts a
// new conversion.
type Sampler struct {
	adc  hardware.ADC
	gain int32
}

// NewSampler returns a sampler using the given sense amplifier gain. A gain
// of zero selects SenseGain.
func NewSampler(adc hardware.ADC, gain int32) *Sampler {
	if gain <= 0 {
		gain = SenseGain
	}
	return &Sampler{adc: adc, gain: gain}
}

// SetGain changes the sense amplifier gain used for current channels.
func (s *Sampler) SetGain(gain int32) {
	if gain > 0 {
		s.gain = gain
	}
}

// Gain returns the sense amplifier gain in use.
func (s *Sampler) Gain() int32 { return s.gain }

// Read samples ch and converts it.
func (s *Sampler) Read(ctx context.Context, ch Channel) (Reading, error) {
	raw, err := s.adc.Convert(ctx, ch.ADC, hardware.SampleCycles28)
	if err != nil {
		return Reading{}, fmt.Errorf("feedback: %s: %w", ch.Name, err)
	}
	return s.Convert(ch, raw), nil
}

// Convert turns a raw sample from ch into a Reading.
func (s *Sampler) Convert(ch Channel, raw uint16) Reading {
	pin := SampleToMillivolts(raw, VDDA)
	r := Reading{Channel: ch.Name, Raw: raw, PinMV: int32(pin), Unit: ch.Kind.Unit()}
	switch ch.Kind {
	case KindVoltage:
		r.Value = int32(ResistorDividerInverse(DividerTop, DividerBottom, pin))
	case KindCurrent:
		r.Value = int32(VoltageToCurrent(pin, SenseMidpoint, Shunt, s.gain))
	default:
		r.Value = int32(pin)
	}
	return r
}

// ReadAll samples every channel in table order.
func (s *Sampler) ReadAll(ctx context.Context) ([]Reading, error) {
	out := make([]Reading, 0, len(Channels))
	for _, ch := range Channels {
		r, err := s.Read(ctx, ch)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Setup enables the ADC and puts every feedback pin in analog mode.
func Setup(ctx context.Context, g hardware.GPIO, adc hardware.ADC) error {
	for _, ch := range Channels {
		pin := hardware.AnalogPins[ch.ADC]
		if err := g.ConfigureAnalog(ctx, pin); err != nil {
			return fmt.Errorf("feedback: %s pin %s: %w", ch.Name, pin, err)
		}
	}
	if err := adc.Init(ctx); err != nil {
		return fmt.Errorf("feedback: %w", err)
	}
	return nil
}
