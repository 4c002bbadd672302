package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com"
	defaultAnthropicModel = "claude-sonnet-4-5"
	anthropicMaxTokens    = 16384
)

// AnthropicClient calls the Anthropic Messages API and asks for JSON-only output.
type AnthropicClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicClient creates an Anthropic backend. Empty model and baseURL select the defaults.
func NewAnthropicClient(apiKey, model, baseURL string) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

type anthropicRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    string         `json:"system,omitempty"`
	Messages  []anthropicMsg `json:"messages"`
}

type anthropicMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Extract implements Extractor.
func (c *AnthropicClient) Extract(ctx context.Context, pgn string) ([]card.Flashcard, error) {
	if c.apiKey == "" {
		return nil, errors.NewInvalidRequest("missing API key: set ANTHROPIC_API_KEY")
	}

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: anthropicMaxTokens,
		System:    jsonOnly,
		Messages:  []anthropicMsg{{Role: "user", Content: BuildPrompt(pgn)}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Provider: "anthropic", Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var ae anthropicError
		if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
			apiErr.Code = ae.Error.Type
			apiErr.Message = ae.Error.Message
		}
		return nil, apiErr
	}

	var ar anthropicResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, errors.NewMalformedResponse("invalid provider envelope", err)
	}
	if ar.StopReason == "max_tokens" {
		return nil, errors.NewMalformedResponse("response truncated at token limit", nil)
	}

	var text strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return decodeText(text.String())
}
