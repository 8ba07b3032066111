package patient

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler(src *stubSource) (*Handler, *echo.Echo) {
	s := NewStore(src)
	s.replace(sampleRoster(), nil)
	h := NewHandler(s, zerolog.New(os.Stderr).With().Logger())
	return h, echo.New()
}

func TestHandler_ListPatients(t *testing.T) {
	h, e := newTestHandler(&stubSource{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Data  []Record `json:"data"`
		Total int      `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Total != 2 || len(body.Data) != 2 {
		t.Errorf("expected 2 patients, got total=%d len=%d", body.Total, len(body.Data))
	}
}

func TestHandler_ListPatients_Filter(t *testing.T) {
	h, e := newTestHandler(&stubSource{})
	req := httptest.NewRequest(http.MethodGet, "/?outcome=on+treatment", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		Data  []Record `json:"data"`
		Total int      `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Total != 1 || body.Data[0].ID != "KL-2" {
		t.Errorf("unexpected filtered result %+v", body)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, e := newTestHandler(&stubSource{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("KL-1")
	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler(&stubSource{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("KL-404")
	err := h.GetPatient(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}

func TestHandler_ReloadPatients(t *testing.T) {
	src := &stubSource{res: &LoadResult{
		Records: append(sampleRoster(), Record{ID: "KL-3"}),
		Issues:  []Issue{{RecordID: "KL-3", Index: 2, Field: "tb_type", Problem: "missing"}},
	}}
	h, e := newTestHandler(src)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ReloadPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res ReloadResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.Loaded != 3 || res.Skipped != 1 || res.Source != "stub" {
		t.Errorf("unexpected reload result %+v", res)
	}
	if len(h.store.Snapshot().Records) != 3 {
		t.Error("expected store to hold the reloaded roster")
	}
}

func TestHandler_ReloadPatients_Error(t *testing.T) {
	h, e := newTestHandler(&stubSource{err: errors.New("boom")})
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.ReloadPatients(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
	if len(h.store.Snapshot().Records) != 2 {
		t.Error("expected previous roster to remain after failed reload")
	}
}
