package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/intbank/portal/internal/core/ports"
	"github.com/intbank/portal/internal/core/service"
)

// ApprovalService is the pending-payment queue.
type ApprovalService interface {
	State() service.QueueState
	Refresh(ctx context.Context) error
	Approve(ctx context.Context, id primitive.ObjectID) error
	Reject(ctx context.Context, id primitive.ObjectID) error
}

// EnrollmentService is the add-admin form.
type EnrollmentService interface {
	State() service.EnrollmentState
	Edit(form ports.AdminRequest) error
	Submit(ctx context.Context) error
}

type AdminHandler struct {
	queue      ApprovalService
	enrollment EnrollmentService
}

func NewAdminHandler(queue ApprovalService, enrollment EnrollmentService) *AdminHandler {
	return &AdminHandler{queue: queue, enrollment: enrollment}
}

func (h *AdminHandler) Pending(c echo.Context) error {
	return c.JSON(http.StatusOK, h.queue.State())
}

func (h *AdminHandler) Refresh(c echo.Context) error {
	if err := h.queue.Refresh(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.queue.State())
}

func (h *AdminHandler) Approve(c echo.Context) error {
	id, err := paymentID(c)
	if err != nil {
		return err
	}
	if err := h.queue.Approve(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.queue.State())
}

func (h *AdminHandler) Reject(c echo.Context) error {
	id, err := paymentID(c)
	if err != nil {
		return err
	}
	if err := h.queue.Reject(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.queue.State())
}

func paymentID(c echo.Context) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}
	return id, nil
}

func (h *AdminHandler) Enrollment(c echo.Context) error {
	return c.JSON(http.StatusOK, h.enrollment.State())
}

// EditEnrollment replaces the add-admin form. Validation happens on submit.
func (h *AdminHandler) EditEnrollment(c echo.Context) error {
	var form ports.AdminRequest
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.enrollment.Edit(form); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.enrollment.State())
}

func (h *AdminHandler) SubmitEnrollment(c echo.Context) error {
	if err := h.enrollment.Submit(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, h.enrollment.State())
}
