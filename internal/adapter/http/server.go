package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-freeboard/internal/domain"
	"github.com/couchcryptid/storm-freeboard/internal/lookup"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Looker resolves a design storm event.
type Looker interface {
	Lookup(ctx context.Context, req domain.Request) (domain.DesignStormEvent, error)
}

// Server exposes the storm event lookup plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/storm-event, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, looker Looker, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// PFDS requests may take up to their own timeout.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /v1/storm-event", s.handleStormEvent(looker))
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

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

func (s *Server) handleStormEvent(looker Looker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		event, err := looker.Lookup(r.Context(), req)
		if err != nil {
			status := statusFor(err)
			if status != http.StatusBadRequest {
				s.logger.Error("storm event lookup failed",
					"lat", req.Lat,
					"lon", req.Lon,
					"kind", lookup.ErrorKind(err),
					"error", err,
				)
			}
			writeError(w, status, err)
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, event)
	}
}

func parseRequest(r *http.Request) (domain.Request, error) {
	q := r.URL.Query()

	lat, err := parseCoordinate(q.Get("lat"), "lat")
	if err != nil {
		return domain.Request{}, err
	}
	lon, err := parseCoordinate(q.Get("lon"), "lon")
	if err != nil {
		return domain.Request{}, err
	}
	unit, err := domain.ParseDepthUnit(valueOr(q.Get("units"), string(domain.Inch)))
	if err != nil {
		return domain.Request{}, err
	}

	return domain.Request{
		Lat:      lat,
		Lon:      lon,
		Duration: valueOr(q.Get("duration"), domain.DefaultDuration),
		ARI:      valueOr(q.Get("ari"), domain.DefaultARI),
		Unit:     unit,
	}, nil
}

func parseCoordinate(s, name string) (float64, error) {
	if s == "" {
		return 0, &paramError{name: name, msg: "is required"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &paramError{name: name, msg: "must be a decimal number"}
	}
	return v, nil
}

type paramError struct {
	name string
	msg  string
}

func (e *paramError) Error() string { return e.name + " " + e.msg }

func statusFor(err error) int {
	switch kind := lookup.ErrorKind(err); {
	case lookup.IsInputError(err):
		return http.StatusBadRequest
	case kind == "network":
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
