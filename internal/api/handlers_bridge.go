package api

import (
	"net/http"

	"github.com/openbench/phasebridge/internal/command"
	"github.com/openbench/phasebridge/internal/models"
	"github.com/openbench/phasebridge/internal/phase"
)

func (h *Handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loop.Latest())
}

func (h *Handlers) getBridge(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, command.Command{Kind: command.Query})
}

func (h *Handlers) setMode(w http.ResponseWriter, r *http.Request) {
	var upd models.ModeUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	m, err := phase.ParseMode(upd.Mode)
	if err != nil {
		writeError(w, models.ErrBadRequest("mode must be manual or commutated"))
		return
	}
	h.submit(w, r, command.Command{Kind: command.SetMode, Mode: m})
}

func (h *Handlers) setLeg(w http.ResponseWriter, r *http.Request) {
	p, appErr := phaseParam(r, "leg")
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	var upd models.LegUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	s, err := phase.ParseLegState(upd.State)
	if err != nil {
		writeError(w, models.ErrBadRequest("state must be off, high or low"))
		return
	}
	h.submit(w, r, command.Command{Kind: command.SetLeg, Phase: p, Leg: s})
}

func (h *Handlers) setDuty(w http.ResponseWriter, r *http.Request) {
	p, appErr := phaseParam(r, "phase")
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	var upd models.DutyUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	if upd.Percent == nil {
		writeError(w, models.ErrBadRequest("percent is required"))
		return
	}
	h.submit(w, r, command.Command{Kind: command.SetDuty, Phase: p, Percent: *upd.Percent})
}

func (h *Handlers) setDriver(w http.ResponseWriter, r *http.Request) {
	var upd models.DriverUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	if upd.Enabled == nil {
		writeError(w, models.ErrBadRequest("enabled is required"))
		return
	}
	op := command.DriverOff
	if *upd.Enabled {
		op = command.DriverOn
	}
	h.submit(w, r, command.Command{Kind: command.Driver, Driver: op})
}
