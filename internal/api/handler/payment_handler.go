package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/service"
)

// PaymentService is the payment preview/confirm workflow.
type PaymentService interface {
	State() service.PaymentState
	Edit(fields domain.PaymentFields) error
	Preview() (domain.PaymentIntent, error)
	Confirm(ctx context.Context) error
	Cancel() error
	Reset()
}

// RateTable lists the currencies the payment form offers.
type RateTable interface {
	Currencies() []domain.Currency
	Rate(cur domain.Currency) (decimal.Decimal, bool)
}

type PaymentHandler struct {
	payments PaymentService
	rates    RateTable
}

func NewPaymentHandler(payments PaymentService, rates RateTable) *PaymentHandler {
	return &PaymentHandler{payments: payments, rates: rates}
}

type rateResponse struct {
	Currency domain.Currency `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

func (h *PaymentHandler) Intent(c echo.Context) error {
	return c.JSON(http.StatusOK, h.payments.State())
}

// Edit replaces the form fields. Validation happens on preview.
func (h *PaymentHandler) Edit(c echo.Context) error {
	var fields domain.PaymentFields
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.payments.Edit(fields); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.payments.State())
}

func (h *PaymentHandler) Preview(c echo.Context) error {
	if _, err := h.payments.Preview(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.payments.State())
}

// Confirm submits the previewed payment. A backend failure is returned as an
// error while the intent stays submitted.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	if err := h.payments.Confirm(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, h.payments.State())
}

func (h *PaymentHandler) Cancel(c echo.Context) error {
	if err := h.payments.Cancel(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.payments.State())
}

func (h *PaymentHandler) Reset(c echo.Context) error {
	h.payments.Reset()
	return c.JSON(http.StatusOK, h.payments.State())
}

func (h *PaymentHandler) Rates(c echo.Context) error {
	curs := h.rates.Currencies()
	out := make([]rateResponse, 0, len(curs))
	for _, cur := range curs {
		rate, _ := h.rates.Rate(cur)
		out = append(out, rateResponse{Currency: cur, Rate: rate})
	}
	return c.JSON(http.StatusOK, out)
}
