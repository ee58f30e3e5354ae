package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// GoTrue admin API — privileged identity operations
// ============================================================

// doAuthAdmin executes a request against GoTrue with the service-role key.
// Every caller of this helper performs a privileged mutation.
func (c *Client) doAuthAdmin(ctx context.Context, method, path string, payload map[string]any) ([]byte, error) {
	url := fmt.Sprintf("%s/auth/v1/%s", c.baseURL, path)

	var reqBody *bytes.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(jsonBody)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.serviceRoleKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: auth admin request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusConflict {
		return nil, &domain.ErrConflict{Message: string(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: auth admin non-2xx",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("gotrue admin %s %s returned %d: %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

func decodeGotrueUser(body []byte) (*domain.Session, error) {
	var u gotrueUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode gotrue user: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("gotrue returned user without id")
	}
	return &domain.Session{UserID: u.ID, Email: u.Email}, nil
}

// InviteUserByEmail sends a GoTrue invite and returns the pending identity.
func (c *Client) InviteUserByEmail(ctx context.Context, email string, metadata map[string]any) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InviteUserByEmail")
	defer span.End()

	body, err := c.doAuthAdmin(ctx, http.MethodPost, "invite", map[string]any{
		"email": email,
		"data":  metadata,
	})
	if err != nil {
		return nil, err
	}
	return decodeGotrueUser(body)
}

// CreateUser creates a confirmed identity with a known password.
func (c *Client) CreateUser(ctx context.Context, email, password string, metadata map[string]any) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	body, err := c.doAuthAdmin(ctx, http.MethodPost, "admin/users", map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": metadata,
	})
	if err != nil {
		return nil, err
	}
	return decodeGotrueUser(body)
}

// UpdateUserMetadata merges new app metadata into an identity.
func (c *Client) UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateUserMetadata")
	defer span.End()

	_, err := c.doAuthAdmin(ctx, http.MethodPut, fmt.Sprintf("admin/users/%s", userID), map[string]any{
		"user_metadata": metadata,
	})
	return err
}

// ScrambleCredentials locks an identity out: the email is replaced with a
// tombstone address and the password with a random value nobody knows.
func (c *Client) ScrambleCredentials(ctx context.Context, userID, newEmail, newPassword string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ScrambleCredentials")
	defer span.End()

	_, err := c.doAuthAdmin(ctx, http.MethodPut, fmt.Sprintf("admin/users/%s", userID), map[string]any{
		"email":         newEmail,
		"password":      newPassword,
		"email_confirm": true,
	})
	return err
}

// DeleteUser removes an identity entirely. Used only to roll back a half
// finished sign-up, never for deactivation.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteUser")
	defer span.End()

	_, err := c.doAuthAdmin(ctx, http.MethodDelete, fmt.Sprintf("admin/users/%s", userID), nil)
	return err
}
