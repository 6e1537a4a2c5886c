package status_test

import (
	"context"
	"strings"
	"testing"

	"github.com/openbench/phasebridge/internal/feedback"
	"github.com/openbench/phasebridge/internal/gatedrv"
	"github.com/openbench/phasebridge/internal/hall"
	"github.com/openbench/phasebridge/internal/hardware"
	"github.com/openbench/phasebridge/internal/models"
	"github.com/openbench/phasebridge/internal/status"
)

func newReporter(t *testing.T) (*hardware.Mock, *gatedrv.Driver, *status.Reporter) {
	t.Helper()
	m := hardware.NewMock()
	g := hardware.NewGPIO(m)
	drv, err := gatedrv.New(context.Background(), g)
	if err != nil {
		t.Fatalf("gatedrv.New: %v", err)
	}
	s := feedback.NewSampler(hardware.NewADC(m), 0)
	return m, drv, status.NewReporter(s, hall.NewDecoder(g), drv)
}

func manualBridge() models.BridgeState {
	return models.BridgeState{Mode: "manual", Phases: []models.PhaseState{
		{Phase: "a", Leg: "high"}, {Phase: "b", Leg: "off"}, {Phase: "c", Leg: "low"},
	}}
}

func TestCollect(t *testing.T) {
	m, _, r := newReporter(t)
	ctx := context.Background()
	m.SetInput(hardware.PinDrvFault, true)
	m.SetInput(hardware.PinHallA, true)
	m.SetInput(hardware.PinHallC, true)
	m.SetSample(hardware.ChanVIn, 1241)
	m.SetSample(hardware.ChanIA, 2172)

	st := r.Collect(ctx, manualBridge())
	if st.Seq != 1 {
		t.Errorf("seq = %d, want 1", st.Seq)
	}
	if st.Driver.Fault {
		t.Error("fault reported with fault line high")
	}
	if st.Hall.Sector != 5 {
		t.Errorf("hall sector = %d, want 5", st.Hall.Sector)
	}
	if len(st.Analogs) != len(feedback.Channels) {
		t.Fatalf("analogs = %d, want %d", len(st.Analogs), len(feedback.Channels))
	}
	if a, _ := st.Analog(feedback.VIn); a.Value != 7993 {
		t.Errorf("v_in = %d, want 7993", a.Value)
	}
	if a, _ := st.Analog(feedback.IA); a.Value != 500 || a.Unit != "mA" {
		t.Errorf("i_a = %d %s, want 500 mA", a.Value, a.Unit)
	}
	if len(st.Errors) != 0 {
		t.Errorf("errors = %v", st.Errors)
	}

	if next := r.Collect(ctx, manualBridge()); next.Seq != 2 {
		t.Errorf("second seq = %d, want 2", next.Seq)
	}
}

func TestCollect_ReadFailuresReported(t *testing.T) {
	m, _, r := newReporter(t)
	m.SetFailRead(true)
	st := r.Collect(context.Background(), manualBridge())
	if len(st.Errors) == 0 {
		t.Fatal("no errors recorded on failing bus")
	}
	if st.Bridge.Mode != "manual" {
		t.Errorf("bridge mode = %q, want manual", st.Bridge.Mode)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		fault bool
		want  string
	}{
		{"ok", false, status.Green + "DRV OK" + status.Default},
		{"fault", true, status.Red + "DRV FAULT" + status.Default},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := models.Status{
				Bridge:  manualBridge(),
				Driver:  models.Driver{Enabled: true, Fault: tc.fault},
				Hall:    models.Hall{A: true, C: true, Sector: 5},
				Analogs: []models.Analog{{Channel: feedback.VIn, Raw: 1241, Value: 7993, Unit: "mV"}},
			}
			var b strings.Builder
			if err := status.Render(&b, st); err != nil {
				t.Fatalf("Render: %v", err)
			}
			out := b.String()
			if !strings.HasPrefix(out, status.ClearScreen) {
				t.Error("screen not cleared first")
			}
			for _, want := range []string{tc.want, "V_IN: Raw=1241\t7993mV", "A: high", "sector 5", "Mode: manual"} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestRender_Commutated(t *testing.T) {
	st := models.Status{Bridge: models.BridgeState{Mode: "commutated", Phases: []models.PhaseState{
		{Phase: "a", Leg: "pwm", Duty: 50}, {Phase: "b", Leg: "pwm", Duty: 75}, {Phase: "c", Leg: "pwm", Duty: 50},
	}}}
	var b strings.Builder
	_ = status.Render(&b, st)
	if !strings.Contains(b.String(), "B: pwm 75%") {
		t.Errorf("commutated duty missing:\n%s", b.String())
	}
}
