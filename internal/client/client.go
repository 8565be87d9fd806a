// Package client calls the relay's analyze endpoint and validates its answer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/bryanwahyu/plant-md/internal/capture"
	"github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
)

const analyzePath = "/api/analyze"

// Error is a relay request that did not succeed. Message is suitable for
// showing to the user as is.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string { return e.Message }

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type analyzeRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType,omitempty"`
}

type errorEnvelope struct {
	Message string `json:"message"`
}

// Analyze submits one image and returns the validated analysis. It makes a
// single attempt and relies on ctx for cancellation.
func (c *Client) Analyze(ctx context.Context, img capture.Image) (diagnosis.Analysis, error) {
	body, err := json.Marshal(analyzeRequest{Image: img.Base64(), MimeType: img.MimeType})
	if err != nil {
		return diagnosis.Analysis{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return diagnosis.Analysis{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return diagnosis.Analysis{}, fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return diagnosis.Analysis{}, fmt.Errorf("read analyze response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return diagnosis.Analysis{}, &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp, raw)}
	}

	a, coercion, err := diagnosis.Decode(raw)
	if err != nil {
		return diagnosis.Analysis{}, fmt.Errorf("invalid analysis response: %w", err)
	}
	if coercion.Adjusted {
		log.Printf("client: received invalid confidence score %v, clamped to %v", coercion.Raw, a.ConfidenceScore)
	}
	return a, nil
}

// errorMessage prefers the relay's {message} envelope and falls back to the status text.
func errorMessage(resp *http.Response, raw []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return env.Message
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
