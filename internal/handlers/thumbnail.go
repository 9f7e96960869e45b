package handlers

import (
	"net/http"
	"strconv"

	"media-picker/internal/logging"
	"media-picker/internal/mediaref"
)

// GetThumbnail generates (or reuses) a thumbnail for the referenced
// media and serves it as JPEG. Generation failures map to 404: the
// generator's contract is an empty path, never an error, and the
// caller's fallback is a placeholder.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ref")
	if raw == "" {
		writeJSONError(w, "missing ref parameter", http.StatusBadRequest)
		return
	}

	maxW := queryInt(r, "w", 0)
	maxH := queryInt(r, "h", 0)

	ref := mediaref.Parse(raw)
	path := h.source.Generate(ref, h.thumbDir, maxW, maxH)
	if path == "" {
		logging.Debug("Thumbnail generation failed for %s", raw)
		writeJSONError(w, "thumbnail unavailable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, path)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return defaultValue
	}
	return parsed
}
