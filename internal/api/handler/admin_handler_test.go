package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
	"github.com/intbank/portal/internal/core/service"
)

type stubQueue struct {
	approved []primitive.ObjectID
	rejectFn func(id primitive.ObjectID) error
}

func (q *stubQueue) State() service.QueueState     { return service.QueueState{} }
func (q *stubQueue) Refresh(context.Context) error { return nil }

func (q *stubQueue) Approve(_ context.Context, id primitive.ObjectID) error {
	q.approved = append(q.approved, id)
	return nil
}

func (q *stubQueue) Reject(_ context.Context, id primitive.ObjectID) error {
	return q.rejectFn(id)
}

type stubEnrollment struct {
	form      ports.AdminRequest
	submitted bool
}

func (s *stubEnrollment) State() service.EnrollmentState {
	return service.EnrollmentState{Name: s.form.Name, Email: s.form.Email}
}

func (s *stubEnrollment) Edit(form ports.AdminRequest) error {
	s.form = form
	return nil
}

func (s *stubEnrollment) Submit(context.Context) error {
	s.submitted = true
	return nil
}

func TestAdminHandler_Approve(t *testing.T) {
	e := echo.New()
	q := &stubQueue{}
	h := NewAdminHandler(q, &stubEnrollment{})
	id := primitive.NewObjectID()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	if err := h.Approve(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || len(q.approved) != 1 || q.approved[0] != id {
		t.Fatalf("expected one approve for %s, got %v", id.Hex(), q.approved)
	}
}

func TestAdminHandler_InvalidID(t *testing.T) {
	e := echo.New()
	q := &stubQueue{}
	h := NewAdminHandler(q, &stubEnrollment{})

	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-an-id")

	err := h.Approve(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if len(q.approved) != 0 {
		t.Fatalf("queue must not be called")
	}
}

func TestAdminHandler_RejectConflict(t *testing.T) {
	e := echo.New()
	q := &stubQueue{rejectFn: func(primitive.ObjectID) error { return domain.ErrConcurrencyConflict }}
	h := NewAdminHandler(q, &stubEnrollment{})

	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(primitive.NewObjectID().Hex())

	if err := h.Reject(c); err != domain.ErrConcurrencyConflict {
		t.Fatalf("expected conflict to propagate, got %v", err)
	}
}

func TestAdminHandler_Enrollment(t *testing.T) {
	e := echo.New()
	enrollment := &stubEnrollment{}
	h := NewAdminHandler(&stubQueue{}, enrollment)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":"Ada","email":"ada@bank.example"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.EditEnrollment(e.NewContext(req, rec)); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if enrollment.form.Name != "Ada" || enrollment.form.Email != "ada@bank.example" {
		t.Fatalf("unexpected form %+v", enrollment.form)
	}

	rec = httptest.NewRecorder()
	if err := h.SubmitEnrollment(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Code != http.StatusCreated || !enrollment.submitted {
		t.Fatalf("expected 201 after submit, got %d", rec.Code)
	}
}
