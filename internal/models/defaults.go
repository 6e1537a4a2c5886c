package models

// Config defaults and limits.
const (
	DefaultLoopIntervalMS = 50
	MinLoopIntervalMS     = 5
	MaxLoopIntervalMS     = 5000
	DefaultSenseGain      = 20
	MaxSenseGain          = 200
)

// Config is the runtime-tunable daemon configuration stored on disk. PWM
// frequency and dead time are fixed by the firmware build and are not here.
type Config struct {
	LoopIntervalMS int  `json:"loop_interval_ms"`
	SenseGain      int  `json:"sense_gain"`
	Screen         bool `json:"screen"`         // render the VT100 status screen on the console
	DriverOnBoot   bool `json:"driver_on_boot"` // enable the gate driver at startup
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		LoopIntervalMS: DefaultLoopIntervalMS,
		SenseGain:      DefaultSenseGain,
		Screen:         true,
		DriverOnBoot:   false,
	}
}

// Apply merges a partial update into c and reports any invalid field.
func (c *Config) Apply(u ConfigUpdate) *AppError {
	if u.LoopIntervalMS != nil {
		v := *u.LoopIntervalMS
		if v < MinLoopIntervalMS || v > MaxLoopIntervalMS {
			e := ErrBadRequest("loop interval out of range")
			e.Field = "loop_interval_ms"
			return e
		}
		c.LoopIntervalMS = v
	}
	if u.SenseGain != nil {
		v := *u.SenseGain
		if v < 1 || v > MaxSenseGain {
			e := ErrBadRequest("sense gain out of range")
			e.Field = "sense_gain"
			return e
		}
		c.SenseGain = v
	}
	if u.Screen != nil {
		c.Screen = *u.Screen
	}
	return nil
}
