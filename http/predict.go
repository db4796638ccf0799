package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"sgdreg/ml"
)

// maxRequestBytes caps a predict request body or websocket message.
const maxRequestBytes = 1 << 20

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
	Cached     bool    `json:"cached"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, version := s.holder.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"model_version": version,
		"loaded_at":     s.holder.LoadedAt(),
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	model, _ := s.holder.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := model.Encode(w); err != nil {
		s.log.Error("encode model", zap.Error(err))
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	prediction, cached, err := s.predict(req.Features)
	if err != nil {
		respondJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, predictResponse{Prediction: prediction, Cached: cached})
}

func statusFor(err error) int {
	if errors.Is(err, ml.ErrDimensionMismatch) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
