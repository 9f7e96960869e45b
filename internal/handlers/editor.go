package handlers

import (
	"encoding/json"
	"net/http"

	"media-picker/internal/crop"
	"media-picker/internal/logging"
)

// EditorOptions maps a generic crop configuration onto the host
// editor's options.
func (h *Handlers) EditorOptions(w http.ResponseWriter, r *http.Request) {
	var cfg crop.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSONError(w, "invalid crop configuration", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, cfg.EditorOptions())
}

// ResolveEditorAssetResponse carries the resolved local path.
type ResolveEditorAssetResponse struct {
	Path string `json:"path"`
}

// ResolveEditorAsset resolves a media reference into an editable local
// file, downloading remote references into the work directory.
func (h *Handlers) ResolveEditorAsset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ref string `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ref == "" {
		writeJSONError(w, "missing ref", http.StatusBadRequest)
		return
	}

	path, err := h.assets.ResolveAsset(req.Ref)
	if err != nil {
		logging.Debug("Asset resolution failed: %v", err)
		writeJSONError(w, "asset not resolvable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ResolveEditorAssetResponse{Path: path})
}
