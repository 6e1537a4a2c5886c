// Package feedback converts raw ADC codes from the power stage into
// millivolts and milliamperes. All arithmetic is integer.
package feedback

// MilliVolts is a signed voltage in mV.
type MilliVolts int32

// MilliAmperes is a signed current in mA.
type MilliAmperes int32

// Ohms is a resistance in Ω.
type Ohms int32

// MicroOhms is a resistance in µΩ.
type MicroOhms int32

// Board constants.
const (
	VDDA         MilliVolts = 3300 // ADC full-scale reference
	adcFullScale            = 4095 // 12-bit converter

	DividerTop    Ohms       = 34900
	DividerBottom Ohms       = 4990
	Shunt         MicroOhms  = 10_000
	SenseMidpoint MilliVolts = 1650
	SenseGain                = 20
)

// SampleToMillivolts converts a 12-bit sample to the voltage at the ADC pin.
func SampleToMillivolts(sample uint16, vref MilliVolts) MilliVolts {
	return MilliVolts(int64(sample) * int64(vref) / adcFullScale)
}

// ResistorDividerInverse returns the voltage at the top of a divider whose
// tap reads mv: mv * (top + bottom) / bottom, truncated.
func ResistorDividerInverse(top, bottom Ohms, mv MilliVolts) MilliVolts {
	if bottom == 0 {
		return 0
	}
	return MilliVolts(int64(mv) * int64(top+bottom) / int64(bottom))
}

// VoltageToCurrent converts a current-sense amplifier output to mA:
// (mv - midpoint) * 1e6 / shunt / gain. Positive current reads above the
// midpoint.
func VoltageToCurrent(mv, midpoint MilliVolts, shunt MicroOhms, gain int32) MilliAmperes {
	if shunt == 0 || gain == 0 {
		return 0
	}
	return MilliAmperes(int64(mv-midpoint) * 1_000_000 / int64(shunt) / int64(gain))
}
