package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Compile-time check that AnthropicProvider implements Provider.
var _ Provider = (*AnthropicProvider)(nil)

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"
const anthropicVersion = "2023-06-01"

// AnthropicProvider talks to the Anthropic Messages API directly over
// net/http. None of the pack's example repos vendor an official unauthenticated
// Anthropic Go SDK, so this is a thin, purpose-built client rather than a
// dependency we could not locate (recorded in the design ledger).
type AnthropicProvider struct {
	apiKey     string
	httpClient *http.Client
}

// NewAnthropicProvider creates a provider authenticated with apiKey.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Name returns "anthropic".
func (p *AnthropicProvider) Name() string { return "anthropic" }

// CheckPrerequisites confirms an API key is configured.
func (p *AnthropicProvider) CheckPrerequisites() error {
	if p.apiKey == "" {
		return fmt.Errorf("llm: anthropic provider: ANTHROPIC_API_KEY not set")
	}
	return nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends req as a single Messages API call. The first "system" role
// message (if any) is hoisted into the top-level system field, since the
// Anthropic API does not accept system as a message role; all other messages
// are sent in order, preserving the stable-prefix/variable-suffix ordering
// the caller assembled.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	areq := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		if m.Role == "system" && areq.System == "" {
			areq.System = m.Content
			continue
		}
		role := m.Role
		if role != "user" && role != "assistant" {
			role = "user"
		}
		areq.Messages = append(areq.Messages, anthropicMessage{Role: role, Content: m.Content})
	}

	body, err := json.Marshal(areq)
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic provider: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic provider: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic provider: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic provider: reading response: %w", err)
	}

	var aresp anthropicResponse
	if err := json.Unmarshal(respBody, &aresp); err != nil {
		return nil, fmt.Errorf("llm: anthropic provider: decoding response (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode >= 400 {
		msg := fmt.Sprintf("status %d", httpResp.StatusCode)
		if aresp.Error != nil {
			msg = fmt.Sprintf("status %d: %s: %s", httpResp.StatusCode, aresp.Error.Type, aresp.Error.Message)
		}
		return nil, fmt.Errorf("llm: anthropic provider: %s", msg)
	}

	var text string
	for _, block := range aresp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &Response{
		Content:      text,
		InputTokens:  aresp.Usage.InputTokens,
		OutputTokens: aresp.Usage.OutputTokens,
		StopReason:   aresp.StopReason,
	}, nil
}
