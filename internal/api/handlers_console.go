package api

import (
	"errors"
	"net/http"

	"github.com/openbench/phasebridge/internal/console"
	"github.com/openbench/phasebridge/internal/models"
)

type consoleRequest struct {
	Line string `json:"line"`
}

// runConsole accepts one console line and answers with the console reply.
func (h *Handlers) runConsole(w http.ResponseWriter, r *http.Request) {
	var req consoleRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	cmd, err := console.Parse(req.Line)
	var pe *console.ParseError
	switch {
	case errors.Is(err, console.ErrHelp):
		writeJSON(w, http.StatusOK, models.Reply{Result: console.Help})
		return
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, models.Reply{Result: pe.Reply})
		return
	case err != nil:
		writeError(w, err)
		return
	}

	st, appErr := h.loop.Submit(r.Context(), cmd)
	if appErr != nil && appErr.Code != models.CodeNoChange {
		writeJSON(w, appErr.Status, models.Reply{Result: appErr.Message, Bridge: &st})
		return
	}
	writeJSON(w, http.StatusOK, models.Reply{Result: "Ok", Bridge: &st})
}
