package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo, *mockRepo) {
	t.Helper()
	svc, repo, _ := newTestService()
	return NewHandler(svc), echo.New(), repo
}

func TestHandler_CreateDoctor(t *testing.T) {
	h, e, repo := newTestHandler(t)
	body := `{"first_name":"Asha","gender":"female","age":41,"email":"asha@example.com",
		"phone_number":"9876543210","department":"Cardiology",
		"specialization":["Echo"],"qualification":["MBBS"],"experience":12,
		"available_days":["Monday"]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if len(repo.doctors) != 1 {
		t.Errorf("expected 1 stored doctor, got %d", len(repo.doctors))
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if _, ok := resp["doctor"]; !ok {
		t.Error("expected doctor in response")
	}
}

func TestHandler_CreateDoctor_SingleValueArrays(t *testing.T) {
	h, e, repo := newTestHandler(t)
	body := `{"first_name":"Asha","gender":"female","age":41,"email":"asha@example.com",
		"phone_number":"9876543210","department":"Cardiology",
		"specialization":"Cardiology","qualification":"MBBS","experience":12,
		"available_days":"Monday"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	for _, d := range repo.doctors {
		if len(d.Specialization) != 1 || d.Specialization[0] != "Cardiology" {
			t.Errorf("unexpected specialization: %v", d.Specialization)
		}
		if len(d.AvailableDays) != 1 || d.AvailableDays[0] != "Monday" {
			t.Errorf("unexpected available days: %v", d.AvailableDays)
		}
	}
}

func TestHandler_CreateDoctor_Validation(t *testing.T) {
	h, e, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"first_name":"Asha"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateDoctor(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_GetDoctor(t *testing.T) {
	h, e, _ := newTestHandler(t)
	d := validDoctor()
	if err := h.svc.Create(context.Background(), d); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())

	if err := h.GetDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetDoctor_NotFound(t *testing.T) {
	h, e, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetDoctor(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandler_GetDoctor_BadID(t *testing.T) {
	h, e, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetDoctor(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_ListDoctors(t *testing.T) {
	h, e, _ := newTestHandler(t)
	for i := 0; i < 3; i++ {
		d := validDoctor()
		d.Email = d.Email + uuid.New().String()
		if err := h.svc.Create(context.Background(), d); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/?limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Doctors struct {
			Data    []Doctor `json:"data"`
			Total   int      `json:"total"`
			HasMore bool     `json:"has_more"`
		} `json:"doctors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Doctors.Total != 3 || len(resp.Doctors.Data) != 2 || !resp.Doctors.HasMore {
		t.Errorf("unexpected page: total=%d items=%d has_more=%v",
			resp.Doctors.Total, len(resp.Doctors.Data), resp.Doctors.HasMore)
	}
}

func TestHandler_UpdateDoctor(t *testing.T) {
	h, e, _ := newTestHandler(t)
	d := validDoctor()
	if err := h.svc.Create(context.Background(), d); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"address":{"city":"Mumbai"}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())

	if err := h.UpdateDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Doctor Doctor `json:"doctor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Doctor.Address.City != "Mumbai" {
		t.Errorf("expected city Mumbai, got %q", resp.Doctor.Address.City)
	}
	if resp.Doctor.FirstName != "Asha" {
		t.Errorf("unrelated field changed: %q", resp.Doctor.FirstName)
	}
}

func TestHandler_DeleteDoctor(t *testing.T) {
	h, e, repo := newTestHandler(t)
	d := validDoctor()
	if err := h.svc.Create(context.Background(), d); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())

	if err := h.DeleteDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if len(repo.doctors) != 0 {
		t.Error("expected doctor to be removed")
	}
}
