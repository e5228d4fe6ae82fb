package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c}
}

// AuthClient calls GoTrue endpoints that require the service-role key.
type AuthClient struct {
	client *Client
}

type AuthUser struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	EmailConfirmedAt string `json:"email_confirmed_at,omitempty"`
}

// CreateUser provisions a login with a pre-confirmed email address.
func (a *AuthClient) CreateUser(ctx context.Context, email string, password string) (*AuthUser, error) {
	payload := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	}
	resp, err := a.send(ctx, http.MethodPost, "/auth/v1/admin/users", payload)
	if err != nil {
		return nil, err
	}

	var user AuthUser
	if err := resp.JSON(&user); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("auth user id missing from response")
	}
	return &user, nil
}

func (a *AuthClient) DeleteUser(ctx context.Context, id string) error {
	_, err := a.send(ctx, http.MethodDelete, "/auth/v1/admin/users/"+url.PathEscape(id), nil)
	return err
}

// ResetPasswordForEmail sends the recovery email. GoTrue answers 200 for
// unknown addresses too.
func (a *AuthClient) ResetPasswordForEmail(ctx context.Context, email string, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?" + url.Values{"redirect_to": {redirectTo}}.Encode()
	}
	_, err := a.send(ctx, http.MethodPost, path, map[string]string{"email": email})
	return err
}

func (a *AuthClient) send(ctx context.Context, method string, path string, payload any) (*Response, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal data: %w", err)
		}
		body = bytes.NewReader(data)
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, a.client.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, a.client.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	a.client.setHeaders(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.client.do(req)
}
