package handle

import "net/http"

func (h *Handle) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        ServiceName,
		"version":     Version,
		"description": "Governed, auditable AI content pipeline",
		"endpoints": map[string]string{
			"POST /generate":     "Run the full pipeline, returns a RunArtifact",
			"GET /history":       "Stored artifacts, optionally filtered by user_id",
			"GET /artifact/{id}": "One artifact by run id",
			"GET /stats":         "Aggregate statistics",
			"GET /health":        "Health check",
			"GET /metrics":       "Prometheus metrics",
		},
	})
}

func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": Version})
}

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
