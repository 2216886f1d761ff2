package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/dzrpc/internal/models"
)

// ListenerCounter reports how many broadcast listeners are attached.
type ListenerCounter interface {
	Listeners() int
}

// StateReader exposes the last reconciled state, nil before the first resolution.
type StateReader interface {
	State() *models.ReconciledState
}

// HealthStatus is the body served by [HealthHandler].
type HealthStatus struct {
	Status    string        `json:"status"`
	Listeners int           `json:"listeners"`
	Track     *HealthTrack `json:"track,omitempty"`
}

// HealthTrack summarises the reconciled state.
type HealthTrack struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Artists string `json:"artists"`
	Album   string `json:"album"`
	Playing bool   `json:"playing"`
}

// HealthHandler serves a JSON status report for local tooling.
type HealthHandler struct {
	listeners ListenerCounter
	state     StateReader
}

// NewHealthHandler creates a health handler. state may be nil.
func NewHealthHandler(listeners ListenerCounter, state StateReader) *HealthHandler {
	return &HealthHandler{listeners: listeners, state: state}
}

func (h *HealthHandler) Routes() []string {
	return []string{"/health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := HealthStatus{Status: "ok"}
	if h.listeners != nil {
		status.Listeners = h.listeners.Listeners()
	}
	if h.state != nil {
		if s := h.state.State(); s != nil {
			status.Track = &HealthTrack{
				ID:      s.TrackID,
				Title:   s.TrackTitle,
				Artists: s.TrackArtists,
				Album:   s.AlbumTitle,
				Playing: s.Playing,
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
