package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/subtech/mina-dashboard/internal/session"
	"github.com/subtech/mina-dashboard/internal/tags"
)

// LoginPath is where unauthenticated viewers are sent.
const LoginPath = "/"

// Client talks to the Subtech backend on behalf of the stored session.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions session.Store
	redirect func(to string)
}

type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRedirect installs the collaborator invoked when the session is
// missing or rejected.
func WithRedirect(fn func(to string)) Option {
	return func(c *Client) { c.redirect = fn }
}

func New(baseURL string, sessions session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{},
		sessions: sessions,
		redirect: func(to string) {
			log.Printf("[INFO] API Client: session ended, redirect to %s", to)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends an authenticated JSON request. body, when non-nil, is encoded
// as JSON; out, when non-nil, receives the decoded answer.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.sessions.Get(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoToken) {
			c.redirect(LoginPath)
			return ErrUnauthenticated
		}
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.sessions.Remove(ctx); err != nil {
			log.Printf("[ERROR] API Client: remove expired token: %v", err)
		}
		c.redirect(LoginPath)
		return ErrSessionExpired
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newServerError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// FetchPage reads one page of GET /mina-tags.
func (c *Client) FetchPage(ctx context.Context, limit int, cursor string) (*tags.PageResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var page tags.PageResponse
	if err := c.Do(ctx, http.MethodGet, "/mina-tags?"+params.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

var _ tags.PageFetcher = (*Client)(nil)
