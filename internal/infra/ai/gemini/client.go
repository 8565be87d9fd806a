package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bryanwahyu/plant-md/internal/domain/ai"
	"github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
	"github.com/bryanwahyu/plant-md/internal/infra/ai/prompt"
)

const (
	providerName   = "Gemini"
	defaultModel   = "gemini-2.5-flash"
	apiVersion     = "v1beta"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"
)

// Client asks Gemini for a structured leaf analysis through the genai SDK.
// The SDK sends the key in the x-goog-api-key header, never in the URL.
type Client struct {
	client  *genai.Client
	model   string
	baseURL string
}

func NewClient(ctx context.Context, apiKey, model, baseURL string) (*Client, error) {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: cli, model: model, baseURL: baseURL}, nil
}

func (c *Client) Name() string  { return providerName }
func (c *Client) Model() string { return c.model }

// Diagnose sends the image and the analysis prompt and returns the model's JSON text.
func (c *Client) Diagnose(ctx context.Context, img diagnosis.Image) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: img.MimeType, Data: img.Data}},
			{Text: prompt.Instruction()},
		},
	}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", upstreamError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates", ai.ErrInvalidResponse)
	}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			text.WriteString(p.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty text part", ai.ErrInvalidResponse)
	}
	return out, nil
}

// responseSchema builds the structured-output schema from the prompt fields.
func responseSchema() *genai.Schema {
	fields := prompt.Fields()
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f.Name] = &genai.Schema{Type: schemaType(f.Kind), Description: f.Description}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   prompt.Required(),
	}
}

func schemaType(kind string) genai.Type {
	switch kind {
	case "boolean":
		return genai.TypeBoolean
	case "number":
		return genai.TypeNumber
	default:
		return genai.TypeString
	}
}

// upstreamError maps SDK errors to ai.UpstreamError. API errors keep the
// provider's status code; anything else is a transport failure.
func upstreamError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fromAPIError(*apiErrPtr)
	}
	return &ai.UpstreamError{Provider: providerName, Body: err.Error()}
}

func fromAPIError(e genai.APIError) *ai.UpstreamError {
	msg := e.Message
	if msg == "" {
		msg = e.Status
	}
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return &ai.UpstreamError{Provider: providerName, StatusCode: e.Code, Body: msg}
}
