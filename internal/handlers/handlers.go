package handlers

import (
	"net/http"
	"time"

	"media-picker/internal/crop"
	"media-picker/internal/loader"

	"github.com/gorilla/mux"
)

// Handlers holds the HTTP surface's dependencies.
type Handlers struct {
	source   loader.ThumbSource
	session  *loader.Session
	assets   *crop.AssetResolver
	thumbDir string
	started  time.Time
}

// New creates the handler set.
func New(source loader.ThumbSource, session *loader.Session, assets *crop.AssetResolver, thumbDir string) *Handlers {
	return &Handlers{
		source:   source,
		session:  session,
		assets:   assets,
		thumbDir: thumbDir,
		started:  time.Now(),
	}
}

// Register wires all routes onto the router.
func (h *Handlers) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods(http.MethodGet)
	api.HandleFunc("/session/reset", h.ResetSession).Methods(http.MethodPost)
	api.HandleFunc("/session/pause", h.PauseSession).Methods(http.MethodPost)
	api.HandleFunc("/session/resume", h.ResumeSession).Methods(http.MethodPost)
	api.HandleFunc("/session/stats", h.SessionStats).Methods(http.MethodGet)
	api.HandleFunc("/editor/options", h.EditorOptions).Methods(http.MethodPost)
	api.HandleFunc("/editor/resolve", h.ResolveEditorAsset).Methods(http.MethodPost)
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
}
