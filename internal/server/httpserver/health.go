package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yndnr/chatmesh-go/internal/infra/buildinfo"
)

var startedAt = time.Now()

// healthHandler answers liveness probes with build metadata.
func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := buildinfo.Get()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":     "ok",
			"version":    info.Version,
			"commit":     info.Commit,
			"go_version": info.GoVersion,
			"uptime_s":   int64(time.Since(startedAt).Seconds()),
		})
	})
}

// readyHandler answers readiness probes. The gateway is ready as soon
// as it serves traffic; sessions connect lazily per client.
func readyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
}
