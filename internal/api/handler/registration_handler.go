package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/service"
)

// RegistrationService is the sign-up wizard.
type RegistrationService interface {
	State() service.RegistrationState
	SetField(field domain.RegistrationField, value string) error
	Type(field domain.RegistrationField, text string) (string, error)
	Advance() domain.RegistrationStep
	Retreat() domain.RegistrationStep
	Submit(ctx context.Context) error
	Reset()
}

type RegistrationHandler struct {
	wizard RegistrationService
}

func NewRegistrationHandler(wizard RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{wizard: wizard}
}

type fieldRequest struct {
	Field string `json:"field" validate:"required,oneof=name surname idNumber email password"`
	Value string `json:"value"`
	// Mode "type" appends Value keystroke by keystroke; "set" replaces.
	Mode string `json:"mode" validate:"omitempty,oneof=set type"`
}

func (h *RegistrationHandler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, h.wizard.State())
}

// SetField updates one draft field.
func (h *RegistrationHandler) SetField(c echo.Context) error {
	var req fieldRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	field := domain.RegistrationField(req.Field)
	if req.Mode == "type" {
		if _, err := h.wizard.Type(field, req.Value); err != nil {
			return err
		}
	} else if err := h.wizard.SetField(field, req.Value); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.wizard.State())
}

// Advance moves forward when the current step validates; otherwise the
// state is returned unchanged.
func (h *RegistrationHandler) Advance(c echo.Context) error {
	h.wizard.Advance()
	return c.JSON(http.StatusOK, h.wizard.State())
}

func (h *RegistrationHandler) Retreat(c echo.Context) error {
	h.wizard.Retreat()
	return c.JSON(http.StatusOK, h.wizard.State())
}

func (h *RegistrationHandler) Submit(c echo.Context) error {
	if err := h.wizard.Submit(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, h.wizard.State())
}

// Reset discards the draft, for a guest who leaves the sign-up form.
func (h *RegistrationHandler) Reset(c echo.Context) error {
	h.wizard.Reset()
	return c.JSON(http.StatusOK, h.wizard.State())
}
