// Package ppplink wraps the external pppd daemon with a settings store, a
// single-process supervisor and an HTTP control surface, for use as a BlueOS
// extension backend.
package ppplink

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ppplink/internal/config"
	"ppplink/internal/history"
	"ppplink/internal/metrics"
	"ppplink/internal/pppd"
	iapi "ppplink/internal/server"
	"ppplink/internal/settings"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Settings = settings.Settings

type Status = pppd.Status

type SupervisorConfig = pppd.Config

type Config = config.Config

type HistorySink = history.Sink

// NewStore creates a settings store persisting to path.
func NewStore(path string) *settings.Store { return settings.NewStore(path) }

// NewSupervisor creates the pppd supervisor bound to the given store.
func NewSupervisor(cfg SupervisorConfig, store *settings.Store) *pppd.Supervisor {
	return pppd.New(cfg, store)
}

// NewHistorySink opens a SQL history sink for the given DSN (sqlite path or
// postgres URL).
func NewHistorySink(dsn string) (HistorySink, error) {
	return history.NewSQLSinkFromDSN(dsn)
}

// LoadConfig reads the daemon TOML configuration, or defaults when path is empty.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// NewHTTPServer starts an HTTP server exposing the control API.
func NewHTTPServer(addr, basePath string, store *settings.Store, sup *pppd.Supervisor) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, store, sup)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
