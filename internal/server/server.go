// Package server exposes the read-only HTTP surface: health, recent
// signals, scanner status and an on-demand scan trigger. It is a thin
// JSON layer over the scanner and store; no scoring logic lives here.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/halcyon-lab/synthsignal/internal/logger"
	"github.com/halcyon-lab/synthsignal/internal/scanner"
	"github.com/halcyon-lab/synthsignal/internal/store"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Config controls the HTTP listener.
type Config struct {
	Addr string `yaml:"addr" json:"addr" jsonschema:"default=:8080" validate:"required"`
	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" jsonschema:"default=10s" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" jsonschema:"default=30s" validate:"gt=0"`
}

// DefaultConfig returns the standard server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Validate checks the server configuration.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid server config", err)
	}

	return nil
}

// Server is the HTTP status and signal API.
type Server struct {
	config  Config
	scanner *scanner.Scanner
	store   *store.Store
	log     *logger.Logger
	http    *http.Server
}

// NewServer wires the API. The store may be nil, in which case the signal
// endpoints report empty results.
func NewServer(config Config, scan *scanner.Scanner, auditStore *store.Store, log *logger.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if scan == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "server requires a scanner")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Server{
		config:  config,
		scanner: scan,
		store:   auditStore,
		log:     log,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/signals", s.handleSignals).Methods(http.MethodGet)
	router.HandleFunc("/api/scanner/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/scanner/scan", s.handleScan).Methods(http.MethodPost)

	s.http = &http.Server{
		Addr:         config.Addr,
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", zap.String("addr", s.config.Addr))

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(errors.ErrCodeProviderUnavailable, "http server failed", err)
	}

	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scanner.Status())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	results := s.scanner.ScanOnce(r.Context())

	type scanEntry struct {
		Symbol   string  `json:"symbol"`
		Outcome  string  `json:"outcome"`
		Strength float64 `json:"strength"`
		Error    string  `json:"error,omitempty"`
	}

	entries := make([]scanEntry, 0, len(results))

	for _, result := range results {
		entry := scanEntry{
			Symbol:   result.Symbol,
			Outcome:  string(result.Outcome),
			Strength: result.Strength,
		}

		if result.Err != nil {
			entry.Error = result.Err.Error()
		}

		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	limit := 20

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			writeError(w, http.StatusBadRequest, "limit must be an integer in [1,500]")

			return
		}

		limit = parsed
	}

	if s.store == nil {
		writeJSON(w, http.StatusOK, []any{})

		return
	}

	signals, err := s.store.RecentSignals(r.Context(), limit)
	if err != nil {
		s.log.Error("failed to load recent signals", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load signals")

		return
	}

	if signals == nil {
		writeJSON(w, http.StatusOK, []any{})

		return
	}

	writeJSON(w, http.StatusOK, signals)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // response writing failures surface as client errors
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
