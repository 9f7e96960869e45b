package handlers

import (
	"net/http"
)

// SessionStatsResponse reports the loader session's state.
type SessionStatsResponse struct {
	CachedThumbnails int  `json:"cachedThumbnails"`
	InflightDecodes  int  `json:"inflightDecodes"`
	Paused           bool `json:"paused"`
}

// ResetSession clears the session's cache and in-flight set.
func (h *Handlers) ResetSession(w http.ResponseWriter, _ *http.Request) {
	h.session.Reset()
	writeJSONStatus(w, "reset")
}

// PauseSession suspends the session's image-loading path.
func (h *Handlers) PauseSession(w http.ResponseWriter, _ *http.Request) {
	h.session.Pause()
	writeJSONStatus(w, "paused")
}

// ResumeSession releases image loads held while paused.
func (h *Handlers) ResumeSession(w http.ResponseWriter, _ *http.Request) {
	h.session.Resume()
	writeJSONStatus(w, "resumed")
}

// SessionStats returns the session's cache and in-flight counts.
func (h *Handlers) SessionStats(w http.ResponseWriter, _ *http.Request) {
	cached, inflight, paused := h.session.Stats()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, SessionStatsResponse{
		CachedThumbnails: cached,
		InflightDecodes:  inflight,
		Paused:           paused,
	})
}
