package api

import (
	"log/slog"
	"net/http"

	"github.com/openbench/phasebridge/internal/models"
)

func (h *Handlers) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Load()
	if err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// setConfig applies a partial update, persists it and hands the runtime
// fields to the loop.
func (h *Handlers) setConfig(w http.ResponseWriter, r *http.Request) {
	var upd models.ConfigUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}

	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()

	cfg, err := h.store.Load()
	if err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	if appErr := cfg.Apply(upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	if err := h.store.Save(cfg); err != nil {
		slog.Error("api: config save failed", "err", err)
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	h.loop.Reconfigure(*cfg)
	writeJSON(w, http.StatusOK, cfg)
}
