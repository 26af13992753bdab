// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/stream"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	OK bool  `json:"ok"`
	Ts int64 `json:"ts"`
}

type launchpadsResponse struct {
	Available []string `json:"available"`
	Active    []string `json:"active"`
}

type activeResponse struct {
	Active []string `json:"active"`
}

type selectRequest struct {
	Names []string `json:"names"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, errorResponse{Error: err.Error()})
}

// queryInt reads an integer parameter; missing or malformed values give def.
func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// GET /mints
func (s *Server) handleMints(w http.ResponseWriter, r *http.Request) {
	f, err := stream.ParseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	page := s.streamer.Query(f, stream.PageRequest{
		Offset:    queryInt(r, "offset", 0),
		Limit:     queryInt(r, "limit", stream.DefaultPageLimit),
		LiveStage: queryBool(r, "live"),
	})
	s.writeJSON(w, http.StatusOK, page)
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{OK: true, Ts: s.now().UnixMilli()})
}

// GET /launchpads
func (s *Server) handleLaunchpads(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, launchpadsResponse{
		Available: nonNil(s.launchpads.Available()),
		Active:    nonNil(s.launchpads.Active()),
	})
}

// GET /launchpads/active
func (s *Server) handleActiveLaunchpads(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, activeResponse{Active: nonNil(s.launchpads.Active())})
}

// POST /launchpads/select
// Тело без names выключает все launchpads.
func (s *Server) handleSelectLaunchpads(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	body := http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	active := s.launchpads.SetActive(req.Names)
	s.logger.Info("Active launchpads updated", zap.Strings("active", active))
	s.writeJSON(w, http.StatusOK, activeResponse{Active: nonNil(active)})
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
