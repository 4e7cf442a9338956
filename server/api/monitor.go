package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is the body of the health endpoint.
type Status struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Analyzer  string `json:"analyzer"`
	Layout    string `json:"layout"`
	Lines     uint64 `json:"lines_processed"`
	Replies   uint64 `json:"replies_written"`
	Uptime    string `json:"uptime"`
}

// StatusSource reports the live state of the request loop.
type StatusSource interface {
	Processed() uint64
	Replies() uint64
}

// Identity names the running session in health reports.
type Identity struct {
	SessionID string
	Analyzer  string
	Layout    string
	Started   time.Time
}

// RegisterMonitoring mounts /healthz and, when gatherer is non-nil, /metrics.
func RegisterMonitoring(s *Server, id Identity, src StatusSource, gatherer prometheus.Gatherer) {
	s.Router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, Status{
			Status:    "ok",
			SessionID: id.SessionID,
			Analyzer:  id.Analyzer,
			Layout:    id.Layout,
			Lines:     src.Processed(),
			Replies:   src.Replies(),
			Uptime:    time.Since(id.Started).Truncate(time.Second).String(),
		})
	}).Methods(http.MethodGet)

	if gatherer != nil {
		s.Router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}
}
