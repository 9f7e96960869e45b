package metrics

// InitializeMetrics pre-populates expected label combinations so every
// metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	statuses := []string{"success", "error_not_found", "error_decode", "error_write", "error_unsupported"}
	for _, media := range []string{"image", "video"} {
		for _, status := range statuses {
			GenerationsTotal.WithLabelValues(media, status)
		}
		for _, extractor := range []string{"primary", "legacy"} {
			GenerationDuration.WithLabelValues(media, extractor)
		}
	}

	for _, op := range []string{"record", "sweep_session", "sweep_orphans"} {
		LedgerOperations.WithLabelValues(op, "success")
		LedgerOperations.WithLabelValues(op, "error")
	}
}
