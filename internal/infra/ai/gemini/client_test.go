package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/bryanwahyu/plant-md/internal/domain/ai"
	"github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
)

const analysisJSON = `{"isHealthy":false,"diseaseName":"Powdery Mildew","description":"White powder on leaves.","treatment":"Apply sulfur.","confidenceScore":88}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(context.Background(), "secret-key", "", srv.URL)
	require.NoError(t, err)
	return c
}

func candidates(text string) map[string]any {
	return map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": text}},
			},
		}},
	}
}

func TestDiagnose_SendsImageAndSchema(t *testing.T) {
	img := diagnosis.Image{Data: []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}, MimeType: "image/png"}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent"), r.URL.Path)
		assert.Contains(t, r.URL.Path, "/v1beta/")
		assert.Equal(t, "secret-key", r.Header.Get("x-goog-api-key"))
		assert.NotContains(t, r.URL.RawQuery, "secret-key")

		raw, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body := string(raw)
		assert.Contains(t, body, base64.StdEncoding.EncodeToString(img.Data))
		assert.Contains(t, body, "image/png")
		assert.Contains(t, body, "plant pathologist")
		assert.Contains(t, body, "application/json")
		assert.Contains(t, body, "confidenceScore")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(candidates(analysisJSON))
	})

	text, err := c.Diagnose(context.Background(), img)
	require.NoError(t, err)
	assert.JSONEq(t, analysisJSON, text)
}

func TestDiagnose_RelaysProviderStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := c.Diagnose(context.Background(), diagnosis.Image{Data: []byte("x"), MimeType: "image/jpeg"})

	var up *ai.UpstreamError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, http.StatusTooManyRequests, up.StatusCode)
	assert.Equal(t, "Gemini API error: Resource has been exhausted", up.Error())
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestDiagnose_MissingText(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no candidates", `{"candidates":[]}`},
		{"no parts", `{"candidates":[{"content":{"role":"model","parts":[]}}]}`},
		{"empty text", `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.body)
			})
			_, err := c.Diagnose(context.Background(), diagnosis.Image{Data: []byte("x"), MimeType: "image/jpeg"})
			assert.ErrorIs(t, err, ai.ErrInvalidResponse)
		})
	}
}

func TestDiagnose_TransportErrorDoesNotLeakKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(context.Background(), "super-secret-value", "", url)
	require.NoError(t, err)
	_, err = c.Diagnose(context.Background(), diagnosis.Image{Data: []byte("x"), MimeType: "image/jpeg"})

	var up *ai.UpstreamError
	require.True(t, errors.As(err, &up))
	assert.Zero(t, up.StatusCode)
	assert.NotContains(t, err.Error(), "super-secret-value")
}

func TestUpstreamError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"api error", genai.APIError{Code: 400, Message: "Invalid image"}, 400, "Invalid image"},
		{"wrapped api error", fmt.Errorf("generate content: %w", genai.APIError{Code: 503, Status: "UNAVAILABLE"}), 503, "UNAVAILABLE"},
		{"api error without text", genai.APIError{Code: 500}, 500, "Internal Server Error"},
		{"transport", errors.New("dial tcp: connection refused"), 0, "dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var up *ai.UpstreamError
			require.True(t, errors.As(upstreamError(tt.err), &up))
			assert.Equal(t, tt.status, up.StatusCode)
			assert.Equal(t, tt.body, up.Body)
			assert.Equal(t, "Gemini", up.Provider)
		})
	}
}

func TestResponseSchema(t *testing.T) {
	s := responseSchema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Len(t, s.Properties, 5)
	assert.Equal(t, genai.TypeBoolean, s.Properties["isHealthy"].Type)
	assert.Equal(t, genai.TypeNumber, s.Properties["confidenceScore"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["treatment"].Type)
	assert.Equal(t, []string{"isHealthy", "diseaseName", "description", "treatment", "confidenceScore"}, s.Required)
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(context.Background(), "k", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Gemini", c.Name())
	assert.Equal(t, "gemini-2.5-flash", c.Model())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
