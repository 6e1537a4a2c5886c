package models

// ModeUpdate is the PUT body for changing the bridge mode.
type ModeUpdate struct {
	Mode string `json:"mode"`
}

// LegUpdate is the PATCH body for switching one leg in manual mode.
type LegUpdate struct {
	State string `json:"state"`
}

// DutyUpdate is the PATCH body for one phase duty in commutated mode.
type DutyUpdate struct {
	Percent *int `json:"percent"`
}

// DriverUpdate is the PUT body for the gate driver enable line.
type DriverUpdate struct {
	Enabled *bool `json:"enabled"`
}

// ConfigUpdate is the PATCH body for runtime configuration.
type ConfigUpdate struct {
	LoopIntervalMS *int  `json:"loop_interval_ms,omitempty"`
	SenseGain      *int  `json:"sense_gain,omitempty"`
	Screen         *bool `json:"screen,omitempty"`
}

// Reply is the console-style result of a command.
type Reply struct {
	Result string       `json:"result"`
	Bridge *BridgeState `json:"bridge,omitempty"`
}
