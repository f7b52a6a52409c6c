// Package backend is the REST client for the banking backend. Every call
// carries a fresh X-Request-ID; authenticated calls send the current session
// token as a bearer token.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/ports"
	"github.com/intbank/portal/internal/pkg/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

const (
	pathLogin       = "/api/auth/login"
	pathRegister    = "/api/auth/register"
	pathPayments    = "/api/payments"
	pathPending     = "/api/payments/pending"
	pathAddAdmin    = "/api/admin/add-admin"
	pathBalance     = "/api/user/balance"
	pathProfile     = "/api/user/profile"
	requestIDHeader = "X-Request-ID"
	contentTypeJSON = "application/json"
	bearerPrefix    = "Bearer "
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.Backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     ports.TokenSource
	log        zerolog.Logger
}

var _ ports.Backend = (*Client)(nil)

func NewClient(cfg Config, tokens ports.TokenSource, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		Role string `json:"role"`
	} `json:"user"`
}

type paymentBody struct {
	RecipientEmail string      `json:"recipientEmail"`
	SwiftCode      string      `json:"swiftCode"`
	Amount         json.Number `json:"amount"`
	Currency       string      `json:"currency"`
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	var out loginResponse
	if err := c.do(ctx, "login", http.MethodPost, pathLogin, false, loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: out.Token, Role: out.User.Role}, nil
}

func (c *Client) Register(ctx context.Context, draft domain.RegistrationDraft) error {
	return c.do(ctx, "register", http.MethodPost, pathRegister, false, draft, nil)
}

// CreatePayment sends the rand amount with two decimals, tagged with the
// currency the user typed.
func (c *Client) CreatePayment(ctx context.Context, req ports.PaymentRequest) error {
	body := paymentBody{
		RecipientEmail: req.RecipientEmail,
		SwiftCode:      req.SwiftCode,
		Amount:         json.Number(req.Amount.StringFixed(2)),
		Currency:       string(req.Currency),
	}
	return c.do(ctx, "create_payment", http.MethodPost, pathPayments, true, body, nil)
}

func (c *Client) PendingPayments(ctx context.Context) ([]domain.PendingPayment, error) {
	var out []domain.PendingPayment
	if err := c.do(ctx, "fetch_pending", http.MethodGet, pathPending, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApprovePayment(ctx context.Context, id primitive.ObjectID) error {
	return c.do(ctx, "approve_payment", http.MethodPost, paymentActionPath(id, "approve"), true, struct{}{}, nil)
}

func (c *Client) RejectPayment(ctx context.Context, id primitive.ObjectID) error {
	return c.do(ctx, "reject_payment", http.MethodPost, paymentActionPath(id, "reject"), true, struct{}{}, nil)
}

func paymentActionPath(id primitive.ObjectID, action string) string {
	return fmt.Sprintf("%s/%s/%s", pathPayments, id.Hex(), action)
}

func (c *Client) AddAdmin(ctx context.Context, req ports.AdminRequest) error {
	return c.do(ctx, "add_admin", http.MethodPost, pathAddAdmin, true, req, nil)
}

func (c *Client) BalanceAndTransactions(ctx context.Context) (*domain.AccountSummary, error) {
	var out domain.AccountSummary
	if err := c.do(ctx, "fetch_balance", http.MethodGet, pathBalance, true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, "fetch_profile", http.MethodGet, pathProfile, true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one JSON round trip. Failures are returned as
// *domain.RequestError carrying the server "message" field when present.
func (c *Client) do(ctx context.Context, op, method, path string, auth bool, in, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.BackendRequestsTotal.WithLabelValues(op, outcome).Inc()
		metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if c.baseURL == "" {
		return &domain.RequestError{Operation: op, Err: errors.New("backend base url is empty")}
	}

	var body io.Reader
	if in != nil {
		raw, merr := json.Marshal(in)
		if merr != nil {
			return fmt.Errorf("%s: marshal request: %w", op, merr)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", contentTypeJSON)
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if auth {
		var token string
		if c.tokens != nil {
			token = c.tokens.Token()
		}
		if token == "" {
			return fmt.Errorf("%s: %w", op, domain.ErrNotAuthenticated)
		}
		req.Header.Set("Authorization", bearerPrefix+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("operation", op).Str("request_id", requestID).Msg("backend unreachable")
		return &domain.RequestError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(raw, &eb)
		c.log.Warn().
			Str("operation", op).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Str("message", eb.Message).
			Msg("backend rejected request")
		return &domain.RequestError{Operation: op, StatusCode: resp.StatusCode, Message: eb.Message}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.RequestError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	c.log.Debug().Str("operation", op).Str("request_id", requestID).Msg("backend call ok")
	return nil
}
