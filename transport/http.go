// Package transport downloads remote images and keeps a persistent,
// content-addressed cache of the downloads.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport errors.
var (
	// ErrStatus is returned for a non-2xx HTTP response.
	ErrStatus = errors.New("transport: unexpected status")

	// ErrTooLarge is returned when a response exceeds the size limit.
	ErrTooLarge = errors.New("transport: response too large")
)

// Transport fetches the full body of a URL.
type Transport interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DefaultMaxBytes is the default response size limit (256 MiB).
const DefaultMaxBytes = 256 << 20

// HTTP is a Transport over net/http.
type HTTP struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*HTTP)

// WithClient sets the HTTP client. Default has a 60 second timeout.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// WithMaxBytes sets the response size limit.
func WithMaxBytes(n int64) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTP) {
		h.userAgent = ua
	}
}

// NewHTTP returns an HTTP transport.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:    &http.Client{Timeout: 60 * time.Second},
		maxBytes:  DefaultMaxBytes,
		userAgent: "imgload",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch downloads url. Cancelling ctx aborts the request.
func (h *HTTP) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("transport: request %s: %w", url, err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrStatus, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("transport: read %s: %w", url, err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, h.maxBytes)
	}

	slogger().Debug("transport: fetched", "url", url, "bytes", len(data))
	return data, nil
}
