package httpserver

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondJSON_UnencodablePayload(t *testing.T) {
	srv := New(testConfig(), nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.respondJSON(rec, http.StatusOK, map[string]float64{"salesPerHour": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not valid JSON: %q", rec.Body.String())
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestRespondJSON_Success(t *testing.T) {
	srv := New(testConfig(), nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.respondJSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	if rec.Code != http.StatusCreated || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("status = %d, content-type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "{\"status\":\"ok\"}\n" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
