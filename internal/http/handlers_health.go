package httpx

import (
	"net/http"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

// HealthHandlers serve the liveness and readiness probes.
type HealthHandlers struct {
	Guard Guard
}

type healthBody struct {
	Status     string             `json:"status"`
	GuardState service.GuardState `json:"guard_state"`
}

// Live answers 200 while the process serves requests.
func (h *HealthHandlers) Live(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, "ok")
}

// Ready answers 503 until the guard has settled on a session decision, and
// again whenever it is in the error state.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	switch h.Guard.Snapshot().State {
	case service.StateAuthenticated, service.StateUnauthenticated:
		h.write(w, r, http.StatusOK, "ready")
	default:
		h.write(w, r, http.StatusServiceUnavailable, "unavailable")
	}
}

func (h *HealthHandlers) write(w http.ResponseWriter, r *http.Request, code int, status string) {
	w.Header().Set("Cache-Control", "no-store")
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		return
	}
	WriteJSON(w, code, healthBody{Status: status, GuardState: h.Guard.Snapshot().State})
}
