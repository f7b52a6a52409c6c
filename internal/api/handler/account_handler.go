package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/service"
)

// AccountService is the dashboard projection.
type AccountService interface {
	Reload(ctx context.Context) error
	Overview() service.AccountOverview
	Statements() []service.StatementLine
	Insights() domain.Insights
}

type AccountHandler struct {
	account AccountService
}

func NewAccountHandler(account AccountService) *AccountHandler {
	return &AccountHandler{account: account}
}

// Overview returns balance and account number, loading them on first use.
func (h *AccountHandler) Overview(c echo.Context) error {
	if !h.account.Overview().Loaded {
		if err := h.account.Reload(c.Request().Context()); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, h.account.Overview())
}

func (h *AccountHandler) Reload(c echo.Context) error {
	if err := h.account.Reload(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.account.Overview())
}

func (h *AccountHandler) Statements(c echo.Context) error {
	return c.JSON(http.StatusOK, h.account.Statements())
}

func (h *AccountHandler) Insights(c echo.Context) error {
	return c.JSON(http.StatusOK, h.account.Insights())
}
