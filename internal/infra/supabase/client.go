// Package supabase provides a client for Supabase (PostgREST + GoTrue).
// It is the only persistence layer: every table, the tenant RPCs and the
// privileged admin API are reached through it.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase PostgREST and GoTrue APIs.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bh             *resilience.Bulkhead
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 50
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bh:             resilience.NewBulkhead(maxConcurrency),
		cfg:            cfg,
		logger:         logger,
	}
}

// doRequest executes an authenticated request to Supabase PostgREST.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// getWithRetry runs a GET behind the bulkhead and circuit breaker with
// retry/backoff. Reads are safe to repeat; writes go out exactly once.
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	if err := c.bh.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bh.Release()

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var err error
			body, err = c.doRequest(ctx, http.MethodGet, path)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// --- RPC (implements the tenant-resolution parts of port.CompanyStore) ---

// doRPC invokes a PostgREST stored procedure with the caller's own token,
// so row-level security and auth.uid() see the real user.
func (c *Client) doRPC(ctx context.Context, fn, userToken string, args map[string]any) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, fn)

	payload := []byte("{}")
	if args != nil {
		var err error
		if payload, err = json.Marshal(args); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", userToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: RPC failed", zap.String("fn", fn), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: RPC non-2xx",
			zap.String("fn", fn),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase rpc %s returned %d: %s", fn, resp.StatusCode, string(body))
	}
	return body, nil
}

// GetActiveCompanyID resolves the caller's effective tenant server-side.
// Super admins get whatever company they last switched to; everyone else
// gets their profile's company.
func (c *Client) GetActiveCompanyID(ctx context.Context, userToken string) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetActiveCompanyID")
	defer span.End()

	body, err := c.doRPC(ctx, "get_my_company_id", userToken, nil)
	if err != nil {
		return "", &domain.ErrExternalService{Service: "supabase/rpc", Err: err}
	}

	// The function returns a bare uuid, JSON-encoded as a quoted string,
	// or null when the caller has no company.
	var companyID *string
	if err := json.Unmarshal(body, &companyID); err != nil {
		return "", fmt.Errorf("decode get_my_company_id: %w", err)
	}
	if companyID == nil {
		return "", nil
	}
	return *companyID, nil
}

// SetActiveCompany switches a super admin's effective tenant.
func (c *Client) SetActiveCompany(ctx context.Context, userToken, companyID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetActiveCompany")
	defer span.End()

	_, err := c.doRPC(ctx, "set_active_company", userToken, map[string]any{
		"new_company_id": companyID,
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/rpc", Err: err}
	}
	return nil
}

// --- Token verification (implements port.SessionVerifier) ---

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verify resolves a GoTrue access token into the identity it belongs to.
func (c *Client) Verify(ctx context.Context, token string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Verify")
	defer span.End()

	url := fmt.Sprintf("%s/auth/v1/user", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("supabase auth returned %d: %s", resp.StatusCode, string(body))
	}

	var u gotrueUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode gotrue user: %w", err)
	}
	return &domain.Session{UserID: u.ID, Email: u.Email}, nil
}
