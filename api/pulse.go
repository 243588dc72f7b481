package api

import (
	"net/http"

	"github.com/CodyCMAC/cmac-jobforge/internal/pulse"
)

type PulseHandler struct {
	refresher *pulse.Refresher
}

func NewPulseHandler(ref *pulse.Refresher) *PulseHandler {
	return &PulseHandler{refresher: ref}
}

// GetPulse serves the cached dashboard snapshot. The refresher keeps it
// current; this handler never touches the store.
func (h *PulseHandler) GetPulse(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.refresher.Snapshot(), http.StatusOK)
}
