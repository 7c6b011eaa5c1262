package sample

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// HTTPSampler dispatches tiles to a super-sampling service over HTTP.
//
// Requests are POSTed to {BaseURL}/supersample with the compressed
// payload as the body and the tile geometry in headers. Every call is
// bounded by Timeout; exceeding it is a retryable failure.
type HTTPSampler struct {
	// BaseURL is the service root, without a trailing slash.
	BaseURL string

	// Timeout bounds each Enhance call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Client is the HTTP client to use. Nil means http.DefaultClient.
	Client *http.Client
}

// DefaultTimeout bounds Enhance calls when HTTPSampler.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Request headers carrying tile geometry.
const (
	headerWidth  = "X-Tile-Width"
	headerHeight = "X-Tile-Height"
	headerFactor = "X-Enhance-Factor"
)

// maxResponseBytes caps how much of a response body is read. Enhanced
// RGBA tiles are bounded by geometry, so 256 MiB covers any sane factor.
const maxResponseBytes = 256 << 20

// Enhance posts the request and returns the enhanced payload.
//
// Outcome normalization: transport errors, timeouts, and 5xx responses
// wrap ErrRetryable; 4xx responses wrap ErrFatal (the service rejected
// the payload).
func (s *HTTPSampler) Enhance(ctx context.Context, req Request) ([]byte, error) {
	if req.Factor < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, req.Factor)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.BaseURL+"/supersample", bytes.NewReader(req.Payload))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrFatal, err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set(headerWidth, strconv.Itoa(req.Width))
	httpReq.Header.Set(headerHeight, strconv.Itoa(req.Height))
	httpReq.Header.Set(headerFactor, strconv.Itoa(req.Factor))

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timeout after %v", ErrRetryable, timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: reading response: %v", ErrRetryable, err)
		}
		return body, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: service returned %s", ErrRetryable, resp.Status)
	default:
		return nil, fmt.Errorf("%w: service returned %s", ErrFatal, resp.Status)
	}
}
