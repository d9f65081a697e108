// Package genaisdk serves the generateContent capability through the official
// Google Gen AI SDK, translating to and from the wire types used by the REST
// client so the try-on pipeline can run on either backend.
package genaisdk

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "google.golang.org/genai"

	"modaflow/internal/infra"
	"modaflow/internal/providers/genai"
)

// Options controls how the SDK client is configured.
type Options struct {
	APIKey     string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

type modelService interface {
	GenerateContent(ctx context.Context, model string, contents []*sdk.Content, config *sdk.GenerateContentConfig) (*sdk.GenerateContentResponse, error)
}

// Client adapts sdk.Models to the try-on capability contract.
type Client struct {
	models modelService
	logger *infra.Logger
}

// NewClient builds an SDK client bound to the Gemini API backend.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("genaisdk: api key is required")
	}
	client, err := sdk.NewClient(ctx, &sdk.ClientConfig{
		APIKey:     key,
		Backend:    sdk.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("genaisdk: create client: %w", err)
	}
	return newClient(client.Models, opts.Logger), nil
}

func newClient(models modelService, logger *infra.Logger) *Client {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{models: models, logger: logger}
}

// GenerateContent performs a single SDK call. SDK API errors are surfaced as
// *genai.APIError so callers classify both backends the same way.
func (c *Client) GenerateContent(ctx context.Context, model string, req genai.GenerateContentRequest) (*genai.GenerateContentResponse, error) {
	contents, err := toSDKContents(req.Contents)
	if err != nil {
		return nil, err
	}

	resp, err := c.models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		var apiErr sdk.APIError
		if errors.As(err, &apiErr) {
			return nil, &genai.APIError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
		}
		return nil, fmt.Errorf("genaisdk: generate content: %w", err)
	}

	out := fromSDKResponse(resp)
	c.logger.Debug().
		Str("model", model).
		Int("candidates", len(out.Candidates)).
		Msg("genaisdk: generateContent completed")
	return out, nil
}

func toSDKContents(contents []genai.Content) ([]*sdk.Content, error) {
	out := make([]*sdk.Content, 0, len(contents))
	for _, content := range contents {
		parts := make([]*sdk.Part, 0, len(content.Parts))
		for _, part := range content.Parts {
			if part.InlineData != nil {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					// The REST endpoint rejects undecodable payloads with 400; mirror it.
					return nil, &genai.APIError{
						StatusCode: http.StatusBadRequest,
						Status:     "INVALID_ARGUMENT",
						Message:    fmt.Sprintf("inline data is not valid base64: %v", err),
					}
				}
				parts = append(parts, &sdk.Part{InlineData: &sdk.Blob{MIMEType: part.InlineData.MimeType, Data: data}})
				continue
			}
			parts = append(parts, sdk.NewPartFromText(part.Text))
		}
		role := sdk.Role(content.Role)
		if role == "" {
			role = sdk.RoleUser
		}
		out = append(out, sdk.NewContentFromParts(parts, role))
	}
	return out, nil
}

func fromSDKResponse(resp *sdk.GenerateContentResponse) *genai.GenerateContentResponse {
	out := &genai.GenerateContentResponse{}
	if resp == nil {
		return out
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		out.PromptFeedback = &genai.PromptFeedback{BlockReason: string(resp.PromptFeedback.BlockReason)}
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		converted := genai.Candidate{FinishReason: string(candidate.FinishReason)}
		if candidate.Content != nil {
			converted.Content.Role = candidate.Content.Role
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}
				p := genai.Part{Text: part.Text}
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					p.InlineData = &genai.InlineData{
						MimeType: part.InlineData.MIMEType,
						Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
					}
				}
				converted.Content.Parts = append(converted.Content.Parts, p)
			}
		}
		out.Candidates = append(out.Candidates, converted)
	}
	return out
}
