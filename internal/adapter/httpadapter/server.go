// Package httpadapter exposes the simulation engine over HTTP along with the
// health, readiness, and metrics endpoints.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flood-resilience-service/internal/catalog"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

// Simulator runs one simulation and reports whether it can serve traffic.
type Simulator interface {
	Run(ctx context.Context, design domain.BuildingDesign) domain.SimulationResult
	CheckReadiness(ctx context.Context) error
}

// ResultPublisher forwards completed results downstream.
type ResultPublisher interface {
	Publish(ctx context.Context, result domain.SimulationResult) error
}

// ReferenceSource exposes the loaded reference tables.
type ReferenceSource interface {
	Snapshot() catalog.Snapshot
}

// Server exposes the simulation API plus /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	sim        Simulator
	ref        ReferenceSource
	publisher  ResultPublisher
	logger     *slog.Logger
}

// NewServer wires the routes. publisher may be nil, in which case results are
// only returned to the caller.
func NewServer(addr string, sim Simulator, ref ReferenceSource, publisher ResultPublisher, logger *slog.Logger) *Server {
	r := mux.NewRouter()

	s := &Server{
		sim:       sim,
		ref:       ref,
		publisher: publisher,
		logger:    logger,
	}

	r.HandleFunc("/", handleBanner).Methods(http.MethodGet)
	r.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", sharedobs.ReadinessHandler(sim)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/simulations", s.handleSimulate).Methods(http.MethodPost)
	api.HandleFunc("/reference", s.handleReference).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      cors(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleBanner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Working Fine"))
}

func (s *Server) handleReference(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.ref.Snapshot())
}
