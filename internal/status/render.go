package status

import (
	"fmt"
	"io"
	"strings"

	"github.com/openbench/phasebridge/internal/feedback"
	"github.com/openbench/phasebridge/internal/models"
)

// Render writes the console status screen for st.
func Render(w io.Writer, st models.Status) error {
	var b strings.Builder
	b.WriteString(ClearScreen)

	fmt.Fprintf(&b, "DRV enabled?: %v\r\n", st.Driver.Enabled)
	if st.Driver.Fault {
		fmt.Fprintf(&b, "%sDRV FAULT%s\r\n", Red, Default)
	} else {
		fmt.Fprintf(&b, "%sDRV OK%s\r\n", Green, Default)
	}

	fmt.Fprintf(&b, "V_IN: %s\r\n\r\n", analogLine(st, feedback.VIn))

	phases := []struct {
		label, v, i string
	}{
		{"A", feedback.VA, feedback.IA},
		{"B", feedback.VB, feedback.IB},
		{"C", feedback.VC, feedback.IC},
	}
	for i, p := range phases {
		fmt.Fprintf(&b, "%s: %s\r\n", p.label, bridgeLine(st.Bridge, i))
		fmt.Fprintf(&b, "%s\r\n", analogLine(st, p.v))
		fmt.Fprintf(&b, "%s\r\n\r\n", analogLine(st, p.i))
	}

	fmt.Fprintf(&b, "T_FET: %s\tT_MOTOR: %s\r\n", analogLine(st, feedback.TempFET), analogLine(st, feedback.TempMotor))
	fmt.Fprintf(&b, "Halls: (%v, %v, %v) sector %d\r\n", st.Hall.A, st.Hall.B, st.Hall.C, st.Hall.Sector)
	fmt.Fprintf(&b, "Mode: %s\r\n", st.Bridge.Mode)

	for _, e := range st.Errors {
		fmt.Fprintf(&b, "%s%s%s\r\n", Yellow, e, Default)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func analogLine(st models.Status, name string) string {
	a, ok := st.Analog(name)
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("Raw=%d\t%d%s", a.Raw, a.Value, a.Unit)
}

func bridgeLine(b models.BridgeState, i int) string {
	if i >= len(b.Phases) {
		return ""
	}
	p := b.Phases[i]
	if p.Leg == "pwm" {
		return fmt.Sprintf("pwm %d%%", p.Duty)
	}
	return p.Leg
}
