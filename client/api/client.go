// Package api talks to the chat server over HTTP and the live websocket.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"ahadchat/server/model"
)

// StatusError is a non-2xx answer. View is set when the server sent one.
type StatusError struct {
	Status  int
	Message string
	View    *model.View
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is a StatusError with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// Client keeps the session cookie across calls.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

func New(server string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", server)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// Cookies returns the cookies the server has set for this client.
func (c *Client) Cookies() []*http.Cookie {
	return c.http.Jar.Cookies(c.baseURL)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// view performs a call answered with a View. On error statuses the view, if
// any, is returned alongside a StatusError.
func (c *Client) view(ctx context.Context, method, path string, body any) (model.View, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return model.View{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.View{}, err
	}

	var v model.View
	parsed := json.Unmarshal(data, &v) == nil && v.State != ""
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if !parsed {
			return model.View{}, fmt.Errorf("unexpected response body")
		}
		return v, nil
	}

	se := &StatusError{Status: resp.StatusCode}
	if parsed {
		se.View = &v
		se.Message = v.Error
		return v, se
	}
	se.Message = errorMessage(data)
	return v, se
}

func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) Login(ctx context.Context, userID, password string) (model.View, error) {
	return c.view(ctx, http.MethodPost, "/api/login", model.LoginRequest{UserID: userID, Password: password})
}

func (c *Client) Logout(ctx context.Context) (model.View, error) {
	return c.view(ctx, http.MethodPost, "/api/logout", nil)
}

func (c *Client) Refresh(ctx context.Context) (model.View, error) {
	return c.view(ctx, http.MethodGet, "/api/messages", nil)
}

func (c *Client) Send(ctx context.Context, text string) (model.View, error) {
	return c.view(ctx, http.MethodPost, "/api/messages", model.SendRequest{Message: text})
}

// Clear issues one clear request. The first call only arms the confirmation,
// which the returned view reports in Admin.ConfirmClearPending.
func (c *Client) Clear(ctx context.Context) (model.View, error) {
	return c.view(ctx, http.MethodPost, "/api/admin/clear", nil)
}

func (c *Client) Keep(ctx context.Context, n int) (model.View, error) {
	return c.view(ctx, http.MethodPost, "/api/admin/keep", model.KeepRequest{Keep: n})
}

func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/admin/stats", nil)
	if err != nil {
		return model.Stats{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Stats{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return model.Stats{}, &StatusError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	var st model.Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return model.Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return st, nil
}

// Export downloads the history. It returns the raw document and the file
// name the server suggested.
func (c *Client) Export(ctx context.Context) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/admin/export", nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", &StatusError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	name := "ahadchat_history.json"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return data, name, nil
}
