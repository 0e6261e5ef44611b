package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/barscore/internal/domain"
	"github.com/Clark-Hu/barscore/internal/service"
)

type shiftCreateRequest struct {
	BarID               int64    `json:"barId"`
	SpotID              int64    `json:"spotId"`
	BartenderName       string   `json:"bartenderName"`
	ShiftDate           string   `json:"shiftDate"`
	PersonalSalesVolume *float64 `json:"personalSalesVolume"`
	TotalBarSales       *float64 `json:"totalBarSales"`
	PersonalTips        *float64 `json:"personalTips"`
	HoursWorked         *float64 `json:"hoursWorked"`
	TransactionsCount   *int     `json:"transactionsCount"`
	SkipScoring         bool     `json:"skipScoring"`
}

type shiftResponse struct {
	ID                  string           `json:"id"`
	BarID               int64            `json:"barId"`
	SpotID              int64            `json:"spotId"`
	BartenderName       string           `json:"bartenderName"`
	ShiftDate           string           `json:"shiftDate"`
	PersonalSalesVolume float64          `json:"personalSalesVolume"`
	TotalBarSales       float64          `json:"totalBarSales"`
	PersonalTips        float64          `json:"personalTips"`
	HoursWorked         float64          `json:"hoursWorked"`
	TransactionsCount   *int             `json:"transactionsCount,omitempty"`
	PctOfBarSales       float64          `json:"pctOfBarSales"`
	TipPct              float64          `json:"tipPct"`
	SalesPerHour        float64          `json:"salesPerHour"`
	ScoreTotal          *float64         `json:"scoreTotal"`
	ScoreVersion        *string          `json:"scoreVersion"`
	Breakdown           domain.Breakdown `json:"breakdown,omitempty"`
	QualityFlags        []string         `json:"qualityFlags"`
	CreatedAt           time.Time        `json:"createdAt"`
}

type shiftCreateResponse struct {
	shiftResponse
	Warnings []domain.DataQualityWarning `json:"warnings"`
}

type shiftListResponse struct {
	Items []shiftResponse `json:"items"`
}

// toRawInput converts the request into a domain input. Missing amounts and
// unparseable dates are reported as validation errors so the caller sees
// every problem in one response.
func (req shiftCreateRequest) toRawInput() (domain.RawShiftInput, domain.ValidationErrors) {
	var errs domain.ValidationErrors
	in := domain.RawShiftInput{
		BarID:             req.BarID,
		SpotID:            req.SpotID,
		BartenderName:     req.BartenderName,
		TransactionsCount: req.TransactionsCount,
	}

	if raw := strings.TrimSpace(req.ShiftDate); raw == "" {
		errs = append(errs, &domain.ValidationError{Field: "shiftDate", Constraint: "is required"})
	} else if d, err := domain.ParseDate(raw); err != nil {
		errs = append(errs, &domain.ValidationError{Field: "shiftDate", Constraint: "must follow YYYY-MM-DD format"})
	} else {
		in.ShiftDate = d
	}

	amounts := []struct {
		field string
		src   *float64
		dst   *float64
	}{
		{"personalSalesVolume", req.PersonalSalesVolume, &in.PersonalSalesVolume},
		{"totalBarSales", req.TotalBarSales, &in.TotalBarSales},
		{"personalTips", req.PersonalTips, &in.PersonalTips},
		{"hoursWorked", req.HoursWorked, &in.HoursWorked},
	}
	for _, a := range amounts {
		if a.src == nil {
			errs = append(errs, &domain.ValidationError{Field: a.field, Constraint: "is required"})
			continue
		}
		*a.dst = *a.src
	}
	return in, errs
}

func (s *Server) handleCreateShift(w http.ResponseWriter, r *http.Request) {
	var req shiftCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	in, errs := req.toRawInput()
	if len(errs) > 0 {
		// Report conversion problems together with the remaining field checks.
		for _, e := range service.Validate(in) {
			if !hasField(errs, e.Field) && e.Field != "shiftDate" {
				errs = append(errs, e)
			}
		}
		s.respondValidation(w, errs)
		return
	}

	res, err := s.svc.ScoreAndStore(r.Context(), in, service.CreateOptions{SkipScoring: req.SkipScoring})
	if err != nil {
		s.respondServiceError(w, err, "create shift")
		return
	}

	warnings := res.Warnings
	if warnings == nil {
		warnings = []domain.DataQualityWarning{}
	}
	w.Header().Set("Location", "/shifts/"+res.Shift.ID)
	s.respondJSON(w, http.StatusCreated, shiftCreateResponse{
		shiftResponse: toShiftResponse(res.Shift),
		Warnings:      warnings,
	})
}

func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request) {
	barID, limit, err := parseShiftListQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	shifts, err := s.svc.RecentShifts(r.Context(), barID, limit)
	if err != nil {
		s.respondServiceError(w, err, "list shifts")
		return
	}

	resp := shiftListResponse{Items: make([]shiftResponse, 0, len(shifts))}
	for _, sh := range shifts {
		resp.Items = append(resp.Items, toShiftResponse(sh))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetShift(w http.ResponseWriter, r *http.Request) {
	shift, err := s.svc.GetShift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err, "fetch shift")
		return
	}
	s.respondJSON(w, http.StatusOK, toShiftResponse(shift))
}

func (s *Server) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteShift(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondServiceError(w, err, "delete shift")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseShiftListQuery(query url.Values) (int64, int, error) {
	barID, err := parseBarID(query.Get("bar_id"))
	if err != nil {
		return 0, 0, err
	}
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		return 0, 0, err
	}
	return barID, limit, nil
}

func parseBarID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errMissingBarID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidBarID
	}
	return id, nil
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errInvalidLimit
	}
	return limit, nil
}

func hasField(errs domain.ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func toShiftResponse(sh domain.Shift) shiftResponse {
	resp := shiftResponse{
		ID:                  sh.ID,
		BarID:               sh.BarID,
		SpotID:              sh.SpotID,
		BartenderName:       sh.BartenderName,
		ShiftDate:           sh.ShiftDate.Format(domain.DateLayout),
		PersonalSalesVolume: sh.PersonalSalesVolume,
		TotalBarSales:       sh.TotalBarSales,
		PersonalTips:        sh.PersonalTips,
		HoursWorked:         sh.HoursWorked,
		TransactionsCount:   sh.TransactionsCount,
		PctOfBarSales:       sh.PctOfBarSales,
		TipPct:              sh.TipPct,
		SalesPerHour:        sh.SalesPerHour,
		ScoreTotal:          sh.ScoreTotal,
		Breakdown:           sh.Breakdown,
		QualityFlags:        make([]string, 0, len(sh.QualityFlags)),
		CreatedAt:           sh.CreatedAt,
	}
	if sh.ScoreVersion != "" {
		v := sh.ScoreVersion
		resp.ScoreVersion = &v
	}
	for _, f := range sh.QualityFlags {
		resp.QualityFlags = append(resp.QualityFlags, string(f))
	}
	return resp
}
