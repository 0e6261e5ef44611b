package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/Clark-Hu/barscore/internal/domain"
	"github.com/Clark-Hu/barscore/internal/service"
)

var (
	errMissingBarID   = errors.New("bar_id is required")
	errInvalidBarID   = errors.New("bar_id must be a positive integer")
	errInvalidLimit   = errors.New("limit must be a positive integer")
	errInvalidStart   = errors.New("start_date must follow YYYY-MM-DD format")
	errInvalidEnd     = errors.New("end_date must follow YYYY-MM-DD format")
	errInvertedWindow = errors.New("start_date must not be after end_date")
)

type leaderboardEntryResponse struct {
	BartenderName string   `json:"bartenderName"`
	AvgScore      float64  `json:"avgScore"`
	ShiftsCount   int      `json:"shiftsCount"`
	LastShiftDate string   `json:"lastShiftDate"`
	ScoreVersions []string `json:"scoreVersions"`
}

type leaderboardResponse struct {
	BarID         int64                      `json:"barId"`
	StartDate     *string                    `json:"startDate"`
	EndDate       *string                    `json:"endDate"`
	ScoreVersions []string                   `json:"scoreVersions"`
	MixedVersions bool                       `json:"mixedVersions"`
	Entries       []leaderboardEntryResponse `json:"entries"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseLeaderboardQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	board, err := s.svc.Leaderboard(r.Context(), q)
	if err != nil {
		s.respondServiceError(w, err, "build leaderboard")
		return
	}
	s.respondJSON(w, http.StatusOK, toLeaderboardResponse(board))
}

func parseLeaderboardQuery(query url.Values) (service.LeaderboardQuery, error) {
	var q service.LeaderboardQuery

	barID, err := parseBarID(query.Get("bar_id"))
	if err != nil {
		return q, err
	}
	q.BarID = barID

	if raw := strings.TrimSpace(query.Get("start_date")); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			return q, errInvalidStart
		}
		q.StartDate = &d
	}
	if raw := strings.TrimSpace(query.Get("end_date")); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			return q, errInvalidEnd
		}
		q.EndDate = &d
	}
	if q.StartDate != nil && q.EndDate != nil && q.StartDate.After(*q.EndDate) {
		return q, errInvertedWindow
	}

	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		return q, err
	}
	q.Limit = limit
	return q, nil
}

func toLeaderboardResponse(board domain.Leaderboard) leaderboardResponse {
	resp := leaderboardResponse{
		BarID:         board.BarID,
		StartDate:     formatDatePtr(board.StartDate),
		EndDate:       formatDatePtr(board.EndDate),
		ScoreVersions: nonNil(board.ScoreVersions),
		MixedVersions: board.MixedVersions,
		Entries:       make([]leaderboardEntryResponse, 0, len(board.Entries)),
	}
	for _, e := range board.Entries {
		resp.Entries = append(resp.Entries, leaderboardEntryResponse{
			BartenderName: e.BartenderName,
			AvgScore:      e.AvgScore,
			ShiftsCount:   e.ShiftsCount,
			LastShiftDate: e.LastShiftDate.Format(domain.DateLayout),
			ScoreVersions: nonNil(e.ScoreVersions),
		})
	}
	return resp
}
