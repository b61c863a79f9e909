// Package transport provides the HTTP API and WebSocket streaming for
// the liquidity service.
package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tokenforge/liquidity/pkg/types"
)

// ProvisionerAPI defines the interface for the liquidity service that
// handlers need.
type ProvisionerAPI interface {
	Provision(ctx context.Context, req types.LiquidityRequest, sink func(types.PhaseUpdate)) (*types.AttemptRecord, error)
	GetAttempt(ctx context.Context, id string) (*types.AttemptRecord, error)
	ListAttempts(ctx context.Context, limit, offset int) ([]*types.AttemptRecord, error)
}

// HealthChecker defines the interface for readiness checking.
type HealthChecker interface {
	CheckRPC() error
	CheckStorage() error
}

// Server handles HTTP requests for the liquidity service.
type Server struct {
	api       ProvisionerAPI
	health    HealthChecker
	logger    *slog.Logger
	startTime time.Time
	wsServer  *WebSocketServer

	// CORS configuration
	corsAllowedOrigins []string // Parsed list of allowed origins
	corsAllowAll       bool     // True if "*" or empty (allow all origins)
}

// NewServer creates a new HTTP server.
func NewServer(api ProvisionerAPI, health HealthChecker, logger *slog.Logger, corsAllowedOrigins string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	// Create WebSocket server for real-time phase streaming
	wsServer := NewWebSocketServer(logger)
	wsServer.Start()

	s := &Server{
		api:       api,
		health:    health,
		logger:    logger,
		startTime: time.Now(),
		wsServer:  wsServer,
	}

	// Parse CORS allowed origins
	origins := strings.TrimSpace(corsAllowedOrigins)
	if origins == "" || origins == "*" {
		s.corsAllowAll = true
	} else {
		s.corsAllowedOrigins = strings.Split(origins, ",")
		for i, o := range s.corsAllowedOrigins {
			s.corsAllowedOrigins[i] = strings.TrimSpace(o)
		}
	}

	return s
}

// Stop shuts down the WebSocket server.
func (s *Server) Stop() {
	s.wsServer.Stop()
}

// Handler returns an http.Handler with all routes configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Versioned API endpoints (v1)
	mux.HandleFunc("/v1/liquidity", s.corsMiddleware(s.handleProvision))
	mux.HandleFunc("/v1/attempts", s.corsMiddleware(s.handleAttempts))
	mux.HandleFunc("/v1/attempts/", s.corsMiddleware(s.handleAttemptDetail))
	mux.HandleFunc("/v1/ws", s.wsServer.Handler())

	// Health endpoints (unversioned - standard Kubernetes probes)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)

	// Prometheus metrics (unversioned - standard path)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// corsMiddleware adds CORS headers based on the configured allowed origins.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if s.corsAllowAll {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			// Check if the origin is in the allowed list
			allowed := false
			for _, o := range s.corsAllowedOrigins {
				if o == origin {
					allowed = true
					break
				}
			}
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// handleProvision runs one liquidity attempt. The response is the full
// attempt record; failed attempts carry their classified error kind and
// a matching HTTP status.
func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.LiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		s.writeJSONError(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := s.api.Provision(r.Context(), req, s.wsServer.Broadcast)
	if err != nil {
		s.logger.Error("Failed to run attempt", slog.String("error", err.Error()))
		s.writeJSONError(w, "Failed to run attempt: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForRecord(record))
	json.NewEncoder(w).Encode(record)
}

// statusForRecord maps an attempt outcome onto an HTTP status. The
// record body is returned either way.
func statusForRecord(record *types.AttemptRecord) int {
	switch record.ErrorKind {
	case "":
		return http.StatusOK
	case types.ErrInvalidPairConfiguration, types.ErrUnsupportedNetwork:
		return http.StatusBadRequest
	case types.ErrUserRejected, types.ErrInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleAttempts returns persisted attempts with optional pagination.
func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50 // default
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	records, err := s.api.ListAttempts(r.Context(), limit, offset)
	if err != nil {
		s.writeJSONError(w, "Failed to list attempts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*types.AttemptRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"attempts": records,
		"limit":    limit,
		"offset":   offset,
	})
}

// handleAttemptDetail handles GET /v1/attempts/{id}.
func (s *Server) handleAttemptDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/attempts/")
	if id == "" || strings.Contains(id, "/") {
		s.writeJSONError(w, "Missing attempt ID", http.StatusBadRequest)
		return
	}

	record, err := s.api.GetAttempt(r.Context(), id)
	if err != nil {
		s.writeJSONError(w, "Failed to get attempt: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if record == nil {
		s.writeJSONError(w, "Attempt not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// handleHealth handles liveness probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         "healthy",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	})
}

// ReadinessCheck represents a single readiness check result.
type ReadinessCheck struct {
	Name      string `json:"name"`
	Status    string `json:"status"` // "ok", "failed"
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleReady handles readiness probes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := []ReadinessCheck{}
	allHealthy := true

	if s.health != nil {
		for _, probe := range []struct {
			name  string
			check func() error
		}{
			{"rpc", s.health.CheckRPC},
			{"storage", s.health.CheckStorage},
		} {
			start := time.Now()
			err := probe.check()
			check := ReadinessCheck{
				Name:      probe.name,
				LatencyMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				check.Status = "failed"
				check.Error = err.Error()
				allHealthy = false
			} else {
				check.Status = "ok"
			}
			checks = append(checks, check)
		}
	}

	response := map[string]interface{}{
		"ready":  allHealthy,
		"checks": checks,
	}

	w.Header().Set("Content-Type", "application/json")
	if allHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}
