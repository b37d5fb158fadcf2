// Package httpapi exposes a small read-mostly status server over the
// eval corpus: health, Prometheus metrics, and per-eval aggregate
// history, plus one guarded mutating endpoint that kicks off an
// improvement iteration. Grounded on cmd/arx/cmd/serve.go's chi router
// setup, trimmed of the web-app CORS middleware since this serves
// scripts and dashboards, not browser clients.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abudker/takeoff24/internal/httpapi/auth"
	"github.com/abudker/takeoff24/internal/takeoff/fieldmap"
	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
	"github.com/abudker/takeoff24/internal/takeoff/store"
)

// TriggerFunc starts one improvement iteration. It's expected to run
// asynchronously and report completion only via logs/metrics: the
// handler that calls it returns as soon as it's launched.
type TriggerFunc func(ctx context.Context) error

// Server is the status server's HTTP surface.
type Server struct {
	router    *chi.Mux
	evalStore *store.EvalStore
	manifest  fieldmap.Manifest
	jwtSecret string
	trigger   TriggerFunc
	metrics   *metrics
	http      *http.Server
}

// NewServer builds the router and registers routes. If jwtSecret is
// empty, POST /improve/trigger is disabled rather than left unguarded.
func NewServer(addr string, evalStore *store.EvalStore, manifest fieldmap.Manifest, jwtSecret string, trigger TriggerFunc) *Server {
	registry := prometheus.NewRegistry()
	s := &Server{
		router:    chi.NewRouter(),
		evalStore: evalStore,
		manifest:  manifest,
		jwtSecret: jwtSecret,
		trigger:   trigger,
		metrics:   newMetrics(registry),
	}

	s.router.Use(chimiddleware.Logger)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Timeout(60 * time.Second))

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.router.Get("/evals/{id}/aggregate", s.handleEvalAggregate)

	triggerHandler := http.HandlerFunc(s.handleImproveTrigger)
	if jwtSecret != "" {
		s.router.Method(http.MethodPost, "/improve/trigger", auth.RequireBearer(jwtSecret)(triggerHandler))
	} else {
		s.router.Method(http.MethodPost, "/improve/trigger", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "POST /improve/trigger is disabled: server.jwt_secret is not configured", http.StatusNotImplemented)
		}))
	}

	s.http = &http.Server{Addr: addr, Handler: s.router}
	s.warmMetrics()
	return s
}

// warmMetrics populates the F1/precision/recall/iteration gauges for
// every eval in the manifest at startup, so a scrape before any
// /evals/{id}/aggregate request still returns real numbers.
func (s *Server) warmMetrics() {
	for _, evalID := range s.manifest.EvalIDs() {
		aggregate, err := s.evalStore.LoadAggregate(evalID)
		if err != nil {
			continue
		}
		s.metrics.observe(aggregate)
	}
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully within 30 seconds.
func (s *Server) Run(ctx context.Context) error {
	logger := log.Named("httpapi")
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("status server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// Handler exposes the router directly, for tests that drive requests
// without binding a real listener.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvalAggregate(w http.ResponseWriter, r *http.Request) {
	evalID := chi.URLParam(r, "id")
	aggregate, err := s.evalStore.LoadAggregate(evalID)
	if err != nil {
		http.Error(w, fmt.Sprintf("loading aggregate for %s: %v", evalID, err), http.StatusNotFound)
		return
	}
	s.metrics.observe(aggregate)
	writeJSON(w, http.StatusOK, aggregate)
}

func (s *Server) handleImproveTrigger(w http.ResponseWriter, r *http.Request) {
	if s.trigger == nil {
		http.Error(w, "no trigger wired into this server", http.StatusNotImplemented)
		return
	}
	logger := log.Named("httpapi")
	go func() {
		if err := s.trigger(context.Background()); err != nil {
			logger.Errorw("triggered improvement iteration failed", "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
