package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for an access token and stores it. It does
// not need an existing session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, ok := backendMessage(data)
		if !ok {
			msg = "Error al iniciar sesión"
			if resp.StatusCode == http.StatusUnauthorized {
				msg = "Credenciales inválidas"
			}
		}
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out LoginResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if err := c.sessions.Save(ctx, out.AccessToken); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout forgets the stored token.
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.Remove(ctx)
}
