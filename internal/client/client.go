// Package client talks to a running ml-todos server over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	interrors "github.com/streed/ml-todos/internal/errors"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/models"
	"github.com/streed/ml-todos/internal/search"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap lets callers test a 404 with errors.Is(err, interrors.ErrNoteNotFound).
func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return interrors.ErrNoteNotFound
	}
	return nil
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("%s %s", method, req.URL.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	return &StatusError{Status: resp.StatusCode, Message: msg}
}

func (c *Client) List(ctx context.Context) ([]*models.Note, error) {
	var notes []*models.Note
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) Create(ctx context.Context, text string) (*models.Note, error) {
	var note models.Note
	if err := c.do(ctx, http.MethodPost, "/api/todos", map[string]string{"text": text}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) Update(ctx context.Context, id, text string) (*models.Note, error) {
	var note models.Note
	path := "/api/todos/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"text": text}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Search(ctx context.Context, query string) ([]search.Result, error) {
	var results []search.Result
	path := "/api/todos/search?query=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) Themes(ctx context.Context) ([]string, error) {
	var themes []string
	if err := c.do(ctx, http.MethodGet, "/api/themes", nil, &themes); err != nil {
		return nil, err
	}
	return themes, nil
}

func (c *Client) ByTheme(ctx context.Context, theme string) ([]*models.Note, error) {
	var notes []*models.Note
	if err := c.do(ctx, http.MethodGet, "/api/themes/"+url.PathEscape(theme), nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) Reindex(ctx context.Context) (search.ReindexResult, error) {
	var result search.ReindexResult
	err := c.do(ctx, http.MethodPost, "/api/reindex", nil, &result)
	return result, err
}
