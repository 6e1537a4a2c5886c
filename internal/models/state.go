package models

import "time"

// PhaseState is one leg of the bridge as seen by the operator.
type PhaseState struct {
	Phase   string `json:"phase"`
	Leg     string `json:"leg"`               // off, high, low; "pwm" while commutated
	Duty    int    `json:"duty"`              // percent, commutated only
	Compare uint32 `json:"compare,omitempty"` // compare register value, commutated only
}

// BridgeState is a read-only snapshot of the bridge controller.
type BridgeState struct {
	Mode   string       `json:"mode"`
	Period uint32       `json:"period,omitempty"` // live ARR, commutated only
	Phases []PhaseState `json:"phases"`
}

// Duties returns the duty of each phase in channel order.
func (b BridgeState) Duties() []int {
	out := make([]int, len(b.Phases))
	for i, p := range b.Phases {
		out[i] = p.Duty
	}
	return out
}

// Analog is one converted feedback channel.
type Analog struct {
	Channel string `json:"channel"`
	Raw     uint16 `json:"raw"`
	Value   int32  `json:"value"`
	Unit    string `json:"unit"`
}

// Hall is one raw hall sensor sample.
type Hall struct {
	A      bool  `json:"a"`
	B      bool  `json:"b"`
	C      bool  `json:"c"`
	Sector uint8 `json:"sector"`
}

// Driver is the gate driver line state.
type Driver struct {
	Enabled bool `json:"enabled"`
	Fault   bool `json:"fault"`
}

// Status is the full report published once per control loop cycle.
type Status struct {
	Time    time.Time   `json:"time"`
	Seq     uint64      `json:"seq"`
	Bridge  BridgeState `json:"bridge"`
	Driver  Driver      `json:"driver"`
	Hall    Hall        `json:"hall"`
	Analogs []Analog    `json:"analogs"`
	Errors  []string    `json:"errors,omitempty"`
}

// DeepCopy returns a copy that shares no slices with s.
func (s Status) DeepCopy() Status {
	cp := s
	cp.Bridge.Phases = append([]PhaseState(nil), s.Bridge.Phases...)
	cp.Analogs = append([]Analog(nil), s.Analogs...)
	cp.Errors = append([]string(nil), s.Errors...)
	return cp
}

// Analog returns the reading for the named channel.
func (s Status) Analog(name string) (Analog, bool) {
	for _, a := range s.Analogs {
		if a.Channel == name {
			return a, true
		}
	}
	return Analog{}, false
}
