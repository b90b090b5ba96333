/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api serves the bridge's read model and command endpoint over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/syrbridge/pkg/bridge"
	"github.com/carverauto/syrbridge/pkg/logger"
	"github.com/carverauto/syrbridge/pkg/models"
	"github.com/carverauto/syrbridge/pkg/syrconn"
)

// BridgeService is the slice of the orchestrator the API exposes.
type BridgeService interface {
	GetSnapshot() *models.Snapshot
	SetValue(ctx context.Context, deviceID, command, value string) error
	Statistics(ctx context.Context, deviceID string, kind syrconn.StatisticKind) (*models.AttributeMap, error)
}

// Server is the HTTP front of the bridge.
type Server struct {
	bridge     BridgeService
	listenAddr string
	logger     logger.Logger
	httpServer *http.Server
}

// NewServer builds the HTTP server. The gatherer backs the /metrics
// endpoint; pass nil to disable it.
func NewServer(svc BridgeService, listenAddr string, gatherer prometheus.Gatherer, log logger.Logger) *Server {
	s := &Server{
		bridge:     svc,
		listenAddr: listenAddr,
		logger:     log,
	}

	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	v1.HandleFunc("/projects", s.handleProjects).Methods(http.MethodGet)
	v1.HandleFunc("/devices", s.handleDevices).Methods(http.MethodGet)
	v1.HandleFunc("/devices/{id}", s.handleDevice).Methods(http.MethodGet)
	v1.HandleFunc("/devices/{id}/statistics", s.handleStatistics).Methods(http.MethodGet)
	v1.HandleFunc("/devices/{id}/command", s.handleCommand).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving. It returns once the listener is running.
func (s *Server) Start(_ context.Context) error {
	s.logger.Info().Str("addr", s.listenAddr).Msg("Starting HTTP server")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	return nil
}

// Stop drains in-flight requests, bounded by the context.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.bridge.GetSnapshot()
	if snapshot == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}

	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleProjects(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.bridge.GetSnapshot()
	if snapshot == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}

	s.writeJSON(w, http.StatusOK, snapshot.Projects)
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.bridge.GetSnapshot()
	if snapshot == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}

	s.writeJSON(w, http.StatusOK, snapshot.Devices)
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	snapshot := s.bridge.GetSnapshot()
	if snapshot == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}

	id := mux.Vars(r)["id"]

	device, ok := snapshot.Device(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("device %s not found", id))
		return
	}

	s.writeJSON(w, http.StatusOK, device)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	kind := syrconn.StatisticWater
	if k := r.URL.Query().Get("kind"); k != "" {
		switch syrconn.StatisticKind(k) {
		case syrconn.StatisticWater, syrconn.StatisticSalt:
			kind = syrconn.StatisticKind(k)
		default:
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown statistic kind %q", k))
			return
		}
	}

	stats, err := s.bridge.Statistics(r.Context(), id, kind)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

type commandRequest struct {
	Command string          `json:"command"`
	Value   json.RawMessage `json:"value"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.Command == "" {
		s.writeError(w, http.StatusBadRequest, "command is required")
		return
	}

	value, err := normalizeValue(req.Value)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.bridge.SetValue(r.Context(), id, req.Command, value); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"device_id": id,
		"command":   req.Command,
		"value":     value,
	})
}

// normalizeValue renders a JSON scalar the way the vendor protocol
// expects: booleans as 1/0, numbers and strings verbatim.
func normalizeValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("value is required")
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("invalid value: %w", err)
	}

	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		if val {
			return "1", nil
		}

		return "0", nil
	case float64:
		// Keep the caller's literal representation so 18.5 stays
		// "18.5" and 20 stays "20".
		return strings.TrimSpace(string(raw)), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, syrconn.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, bridge.ErrInvalidCommand):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, syrconn.ErrAuth), errors.Is(err, syrconn.ErrConnection):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
