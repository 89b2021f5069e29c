// Package web exposes the node's HTTP surface: health and readiness, the
// Prometheus endpoint, and a minimal settings API gated by the read-only
// flag.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geocat/catalogd/pkg/appstate"
	"github.com/geocat/catalogd/pkg/settings"
	"github.com/geocat/catalogd/pkg/version"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Server struct {
	config   Config
	state    *appstate.State
	settings *settings.Manager
	logger   *logrus.Logger
	http     *http.Server
}

func NewServer(config Config, state *appstate.State, settingsManager *settings.Manager, logger *logrus.Logger) *Server {
	s := &Server{
		config:   config,
		state:    state,
		settings: settingsManager,
		logger:   logger,
	}

	router := mux.NewRouter()
	if config.BasePath != "" {
		router = router.PathPrefix(config.BasePath).Subrouter()
	}

	router.Use(SessionTimeoutCookies(config, nil))

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readiness", s.handleReadiness).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Setting names are hierarchical paths, so the name pattern spans
	// slashes.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(ReadOnlyGuard(state, logger))
	api.HandleFunc("/settings/{name:.+}", s.handleGetSetting).Methods(http.MethodGet)
	api.HandleFunc("/settings/{name:.+}", s.handlePutSetting).Methods(http.MethodPut)

	s.http = &http.Server{
		Addr:              config.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start begins serving in the background. Listen errors other than a clean
// shutdown are logged, not returned: by the time they occur the caller has
// moved on.
func (s *Server) Start() {
	s.logger.Infof("Web server listening on %s", s.config.ListenAddress)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("Web server failed: %v", err)
		}
	}()
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := "read-write"
	if s.state.IsReadOnly() {
		mode = "read-only"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"mode":     mode,
		"readOnly": s.state.IsReadOnly(),
		"version":  version.GetVersionOnly(),
	})
}

// handleReadiness answers 503 until the settings store responds, so load
// balancers hold traffic back while the database is still coming up.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.settings.SiteID(ctx); err != nil {
		s.logger.Debugf("Readiness check failed: %v", err)
		writeJSONError(w, http.StatusServiceUnavailable, "settings store not reachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	value, err := s.settings.Value(r.Context(), name)
	if errors.Is(err, settings.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("setting %q not found", name))
		return
	}
	if err != nil {
		s.logger.Errorf("Failed to read setting %q: %v", name, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to read setting")
		return
	}

	writeJSON(w, http.StatusOK, settings.Setting{Name: name, Value: value})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "request body must be a JSON object with a \"value\" field")
		return
	}

	if err := s.settings.SetValue(r.Context(), name, body.Value); err != nil {
		s.logger.Errorf("Failed to save setting %q: %v", name, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to save setting")
		return
	}

	writeJSON(w, http.StatusOK, settings.Setting{Name: name, Value: body.Value})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
