// Package status collects the per-cycle view of the power stage: gate driver
// lines, converted feedback, hall state and bridge mode.
package status

import (
	"context"
	"time"

	"github.com/openbench/phasebridge/internal/feedback"
	"github.com/openbench/phasebridge/internal/hall"
	"github.com/openbench/phasebridge/internal/models"
)

// FaultSource reads the gate driver lines.
type FaultSource interface {
	Enabled() bool
	Fault(ctx context.Context) (bool, error)
}

// Reporter samples everything a status report shows. Every call re-reads the
// hardware; nothing is cached between reports.
type Reporter struct {
	sampler *feedback.Sampler
	hall    *hall.Decoder
	drv     FaultSource
	seq     uint64
	now     func() time.Time
}

// NewReporter builds a reporter. drv may be nil when no gate driver is fitted.
func NewReporter(s *feedback.Sampler, h *hall.Decoder, drv FaultSource) *Reporter {
	return &Reporter{sampler: s, hall: h, drv: drv, now: time.Now}
}

// Sampler returns the feedback sampler in use.
func (r *Reporter) Sampler() *feedback.Sampler { return r.sampler }

// Collect builds one report around the given bridge snapshot. Read failures
// are recorded in Status.Errors and do not stop the rest of the report.
func (r *Reporter) Collect(ctx context.Context, bridge models.BridgeState) models.Status {
	r.seq++
	st := models.Status{
		Time:    r.now(),
		Seq:     r.seq,
		Bridge:  bridge,
		Analogs: make([]models.Analog, 0, len(feedback.Channels)),
	}

	if r.drv != nil {
		st.Driver.Enabled = r.drv.Enabled()
		fault, err := r.drv.Fault(ctx)
		if err != nil {
			st.Errors = append(st.Errors, err.Error())
		}
		st.Driver.Fault = fault
	}

	for _, ch := range feedback.Channels {
		rd, err := r.sampler.Read(ctx, ch)
		if err != nil {
			st.Errors = append(st.Errors, err.Error())
			continue
		}
		st.Analogs = append(st.Analogs, models.Analog{
			Channel: rd.Channel,
			Raw:     rd.Raw,
			Value:   rd.Value,
			Unit:    rd.Unit,
		})
	}

	hs, err := r.hall.Read(ctx)
	if err != nil {
		st.Errors = append(st.Errors, err.Error())
	} else {
		st.Hall = models.Hall{A: hs.A, B: hs.B, C: hs.C, Sector: hs.Sector}
	}
	return st
}
