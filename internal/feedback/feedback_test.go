package feedback_test

import (
	"context"
	"testing"

	"github.com/openbench/phasebridge/internal/feedback"
	"github.com/openbench/phasebridge/internal/hardware"
)

func TestResistorDividerInverse(t *testing.T) {
	got := feedback.ResistorDividerInverse(34900, 4990, 1000)
	if got != 7993 {
		t.Errorf("ResistorDividerInverse(34900, 4990, 1000) = %d, want 7993", got)
	}
	if got := feedback.ResistorDividerInverse(34900, 0, 1000); got != 0 {
		t.Errorf("zero bottom resistor = %d, want 0", got)
	}
}

func TestVoltageToCurrent(t *testing.T) {
	tests := []struct {
		mv   feedback.MilliVolts
		want feedback.MilliAmperes
	}{
		{1750, 500},
		{1650, 0},
		{1550, -500},
		{1651, 5},
		{3300, 8250},
	}
	for _, tc := range tests {
		got := feedback.VoltageToCurrent(tc.mv, 1650, 10_000, 20)
		if got != tc.want {
			t.Errorf("VoltageToCurrent(%d) = %d, want %d", tc.mv, got, tc.want)
		}
	}
	if got := feedback.VoltageToCurrent(1750, 1650, 0, 20); got != 0 {
		t.Errorf("zero shunt = %d, want 0", got)
	}
}

func TestSampleToMillivolts(t *testing.T) {
	tests := []struct {
		sample uint16
		want   feedback.MilliVolts
	}{
		{0, 0},
		{4095, 3300},
		{1241, 1000},
		{2048, 1650},
		{2172, 1750},
	}
	for _, tc := range tests {
		if got := feedback.SampleToMillivolts(tc.sample, feedback.VDDA); got != tc.want {
			t.Errorf("SampleToMillivolts(%d) = %d, want %d", tc.sample, got, tc.want)
		}
	}
}

func TestSampler_Read(t *testing.T) {
	m := hardware.NewMock()
	adc := hardware.NewADC(m)
	ctx := context.Background()
	if err := feedback.Setup(ctx, hardware.NewGPIO(m), adc); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	m.SetSample(hardware.ChanVA, 1241)
	m.SetSample(hardware.ChanIB, 2172)
	m.SetSample(hardware.ChanTempFET, 2048)

	s := feedback.NewSampler(adc, 0)
	tests := []struct {
		name  string
		value int32
		unit  string
	}{
		{feedback.VA, 7993, "mV"},
		{feedback.IB, 500, "mA"},
		{feedback.TempFET, 1650, "mV"},
	}
	for _, tc := range tests {
		ch, ok := feedback.Lookup(tc.name)
		if !ok {
			t.Fatalf("Lookup(%s) failed", tc.name)
		}
		r, err := s.Read(ctx, ch)
		if err != nil {
			t.Fatalf("Read(%s): %v", tc.name, err)
		}
		if r.Value != tc.value || r.Unit != tc.unit {
			t.Errorf("Read(%s) = %d %s, want %d %s", tc.name, r.Value, r.Unit, tc.value, tc.unit)
		}
	}
}

func TestSampler_ResamplesEveryRead(t *testing.T) {
	m := hardware.NewMock()
	adc := hardware.NewADC(m)
	s := feedback.NewSampler(adc, 0)
	ch, _ := feedback.Lookup(feedback.VIn)
	ctx := context.Background()

	m.SetSample(hardware.ChanVIn, 1241)
	first, _ := s.Read(ctx, ch)
	m.SetSample(hardware.ChanVIn, 0)
	second, _ := s.Read(ctx, ch)
	if first.Value == second.Value {
		t.Errorf("second read returned %d, want a fresh conversion", second.Value)
	}
}

func TestSampler_Gain(t *testing.T) {
	s := feedback.NewSampler(hardware.NewADC(hardware.NewMock()), 0)
	if s.Gain() != feedback.SenseGain {
		t.Errorf("default gain = %d, want %d", s.Gain(), feedback.SenseGain)
	}
	s.SetGain(40)
	ch, _ := feedback.Lookup(feedback.IA)
	if r := s.Convert(ch, 2172); r.Value != 250 {
		t.Errorf("current at gain 40 = %d, want 250", r.Value)
	}
	s.SetGain(0)
	if s.Gain() != 40 {
		t.Errorf("SetGain(0) changed gain to %d", s.Gain())
	}
}

func TestSampler_ReadAll(t *testing.T) {
	m := hardware.NewMock()
	s := feedback.NewSampler(hardware.NewADC(m), 0)
	rs, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rs) != len(feedback.Channels) {
		t.Errorf("ReadAll returned %d readings, want %d", len(rs), len(feedback.Channels))
	}

	m.SetFailRead(true)
	if _, err := s.ReadAll(context.Background()); err == nil {
		t.Error("ReadAll succeeded on failing bus")
	}
}
