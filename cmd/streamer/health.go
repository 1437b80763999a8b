package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rickgao/questrade-data/internal/auth"
	"github.com/rickgao/questrade-data/internal/config"
	"github.com/rickgao/questrade-data/internal/router"
	"github.com/rickgao/questrade-data/internal/stream"
	"github.com/rickgao/questrade-data/internal/version"
	"github.com/rickgao/questrade-data/internal/writer"
)

type credentialView interface {
	Current() auth.Credential
}

type bufferView interface {
	Stats() router.BufferStats
}

type dispatcherView interface {
	Stats() router.DispatcherStats
}

type sessionHealth struct {
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expires_at"`
	APIServer string    `json:"api_server"`
}

type healthReport struct {
	Status     string                `json:"status"`
	Version    version.Info          `json:"version"`
	Instance   string                `json:"instance"`
	Session    sessionHealth         `json:"session"`
	Buffer     router.BufferStats    `json:"buffer"`
	Dispatcher router.DispatcherStats `json:"dispatcher"`
	Writer     *writer.WriterMetrics `json:"writer,omitempty"`
	Stream     *stream.HubStats      `json:"stream,omitempty"`
	Components map[string]any        `json:"components"`
}

// newHealthHandler reports session validity, buffer and sink counters, and
// pings the backing stores. Status is unhealthy (503) when the session is
// invalid or a store is unreachable, degraded when batches were dropped.
func newHealthHandler(cfg *config.Config, session credentialView, buf bufferView, dispatcher dispatcherView, sinks *sinkSet) http.Handler {
	now := time.Now

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		cred := session.Current()
		report := healthReport{
			Status:   "healthy",
			Version:  version.Get(),
			Instance: cfg.Instance.ID,
			Session: sessionHealth{
				Valid:     cred.Valid(now()),
				ExpiresAt: cred.Expiry().UTC(),
				APIServer: cred.APIServer,
			},
			Buffer:     buf.Stats(),
			Dispatcher: dispatcher.Stats(),
			Components: make(map[string]any),
		}

		if !report.Session.Valid {
			report.Status = "unhealthy"
		} else if report.Buffer.TotalDropped > 0 {
			report.Status = "degraded"
		}

		if sinks != nil {
			if sinks.pool != nil {
				if err := sinks.pool.Ping(ctx); err != nil {
					report.Status = "unhealthy"
					report.Components["timescaledb"] = map[string]string{
						"status": "disconnected",
						"error":  err.Error(),
					}
				} else {
					report.Components["timescaledb"] = "connected"
				}
			}
			if sinks.writer != nil {
				stats := sinks.writer.Stats()
				report.Writer = &stats
			}
			if sinks.redis != nil {
				if err := sinks.redis.Ping(ctx); err != nil {
					report.Status = "unhealthy"
					report.Components["redis"] = map[string]string{
						"status": "disconnected",
						"error":  err.Error(),
					}
				} else {
					report.Components["redis"] = "connected"
				}
			}
			if sinks.kafka != nil {
				report.Components["kafka"] = map[string]any{
					"topic": cfg.Kafka.Topic,
				}
			}
			if sinks.hub != nil {
				stats := sinks.hub.Stats()
				report.Stream = &stats
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if report.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	})
}
