package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/Clark-Hu/barscore/internal/service"
)

type rescoreRequest struct {
	Version string `json:"version"`
	BarID   *int64 `json:"barId"`
}

type rescoreResponse struct {
	Version  string `json:"version"`
	Bars     int    `json:"bars"`
	Examined int64  `json:"examined"`
	Rescored int64  `json:"rescored"`
}

// handleRescore runs a rescoring pass synchronously. An empty body targets
// every bar with the current formula version.
func (s *Server) handleRescore(w http.ResponseWriter, r *http.Request) {
	var req rescoreRequest
	if err := decodeJSONBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.respondDecodeError(w, err)
		return
	}

	report, err := s.svc.Rescore(r.Context(), service.RescoreRequest{Version: req.Version, BarID: req.BarID})
	if err != nil {
		s.respondServiceError(w, err, "rescore shifts")
		return
	}
	s.respondJSON(w, http.StatusOK, rescoreResponse{
		Version:  report.Version,
		Bars:     report.Bars,
		Examined: report.Examined,
		Rescored: report.Rescored,
	})
}
