// Package client is the typed HTTP client for the JamSesh API used by the
// view layer. Every call is a single attempt; failures are reported as
// *APIError, *NetworkError or *DecodeError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const defaultTimeout = 15 * time.Second

// Client talks to one API base URL. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	validate   *validator.Validate

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken starts the client with a session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL, e.g. "http://localhost:8375/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    u,
		validate:   newValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// resolveURL makes a server-issued reference absolute against the API host.
// Absolute URLs are returned unchanged.
func (c *Client) resolveURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

// Token returns the current session token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the session token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// request describes one API call. path is already escaped.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) jsonRequest(op, method, path string, payload any) (request, error) {
	req := request{op: op, method: method, path: path}
	if payload == nil {
		return req, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("%s: encode request: %w", op, err)
	}
	req.body = bytes.NewReader(raw)
	req.contentType = "application/json"
	return req, nil
}

func (c *Client) fileRequest(op, path, field, filename string, content []byte) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return request{}, fmt.Errorf("%s: encode upload: %w", op, err)
	}
	if _, err := part.Write(content); err != nil {
		return request{}, fmt.Errorf("%s: encode upload: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("%s: encode upload: %w", op, err)
	}
	return request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil
}

// do executes req and strictly decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	target := c.baseURL.String() + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token := c.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &NetworkError{Op: req.op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: req.op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &body) == nil {
			apiErr.Message, apiErr.Code = body.Error, body.Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := c.decodeStrict(raw, out); err != nil {
		return &DecodeError{Op: req.op, Err: err}
	}
	return nil
}

// decodeStrict rejects unknown fields, trailing data and values that break
// the registered struct rules.
func (c *Client) decodeStrict(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return c.validateValue(out)
}
