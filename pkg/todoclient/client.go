// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package todoclient is a typed HTTP client for the todo API.
//
// # Description
//
// Each method maps to one endpoint and decodes the service's JSON envelope.
// Non-2xx responses are returned as *APIError. Outgoing requests carry the
// W3C trace context of ctx so client and server spans join one trace.
//
// # Thread Safety
//
// Client is safe for concurrent use.
package todoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianTodo/services/todo/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds each request when no custom http.Client is given.
const DefaultTimeout = 10 * time.Second

// DefaultBasePath is the API prefix the service mounts its routes under.
const DefaultBasePath = "/api"

const tracerName = "aleutian.todoclient"

// Client talks to one todo service.
type Client struct {
	baseURL    string
	basePath   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. The http.Client is copied
// first so a shared client such as http.DefaultClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithBasePath overrides DefaultBasePath.
func WithBasePath(p string) Option {
	return func(c *Client) {
		c.basePath = "/" + strings.Trim(p, "/")
		if c.basePath == "/" {
			c.basePath = ""
		}
	}
}

// New creates a Client for the service at baseURL.
//
// # Example
//
//	client := todoclient.New("http://localhost:8000")
//	todo, err := client.Create(ctx, "Buy milk", "2 litres")
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		basePath:   DefaultBasePath,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// Endpoints
// =============================================================================

// Health calls GET /healthchecker and returns its message.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp datatypes.GenericResponse
	if err := c.do(ctx, "Health", http.MethodGet, "/healthchecker", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// List returns one page of todos. Zero page or limit lets the server apply
// its defaults.
func (c *Client) List(ctx context.Context, page, limit int) ([]datatypes.Todo, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp datatypes.TodoListResponse
	if err := c.do(ctx, "List", http.MethodGet, "/todos", query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Todos == nil {
		return []datatypes.Todo{}, nil
	}
	return resp.Todos, nil
}

// Create adds a todo. A duplicate title yields an error for which
// IsConflict is true.
func (c *Client) Create(ctx context.Context, title, content string) (datatypes.Todo, error) {
	req := datatypes.CreateTodoRequest{Title: title, Content: &content}

	var resp datatypes.SingleTodoResponse
	if err := c.do(ctx, "Create", http.MethodPost, "/todos", nil, req, &resp); err != nil {
		return datatypes.Todo{}, err
	}
	return resp.Data.Data, nil
}

// Get fetches a todo by id.
func (c *Client) Get(ctx context.Context, id string) (datatypes.Todo, error) {
	if id == "" {
		return datatypes.Todo{}, fmt.Errorf("%w: id is empty", ErrInvalidInput)
	}

	var resp datatypes.SingleTodoResponse
	if err := c.do(ctx, "Get", http.MethodGet, "/todos/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return datatypes.Todo{}, err
	}
	return resp.Data.Data, nil
}

// Update applies a partial edit. Nil fields in patch are left unchanged.
func (c *Client) Update(ctx context.Context, id string, patch datatypes.UpdateTodoRequest) (datatypes.Todo, error) {
	if id == "" {
		return datatypes.Todo{}, fmt.Errorf("%w: id is empty", ErrInvalidInput)
	}

	var resp datatypes.SingleTodoResponse
	if err := c.do(ctx, "Update", http.MethodPatch, "/todos/"+url.PathEscape(id), nil, patch, &resp); err != nil {
		return datatypes.Todo{}, err
	}
	return resp.Data.Data, nil
}

// Delete removes a todo by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidInput)
	}
	return c.do(ctx, "Delete", http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil, nil)
}

// =============================================================================
// Transport
// =============================================================================

// do sends one request and decodes the 2xx body into out, if out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	if ctx == nil {
		return fmt.Errorf("%w: nil context", ErrInvalidInput)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "todoclient."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", c.basePath+path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	endpoint := c.baseURL + c.basePath + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError builds an *APIError from a non-2xx response.
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope datatypes.GenericResponse
	if json.Unmarshal(raw, &envelope) == nil && envelope.Status != "" {
		apiErr.Status = envelope.Status
		apiErr.Message = envelope.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
