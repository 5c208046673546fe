package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Compile-time check that GeminiProvider implements Provider.
var _ Provider = (*GeminiProvider)(nil)

// GeminiProvider talks to Google's Gemini API via the official genai SDK. It
// is the lane3 frontier candidate used when the Anthropic lane is unhealthy
// or when a judge is explicitly configured to use it.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a provider authenticated with apiKey. apiKey must
// be non-empty; CheckPrerequisites re-validates this before any call.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: gemini provider: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("llm: gemini provider: creating client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Name returns "google", the provider key of "google/..." model strings.
func (p *GeminiProvider) Name() string { return "google" }

// CheckPrerequisites confirms the client was constructed (API key supplied).
func (p *GeminiProvider) CheckPrerequisites() error {
	if p.client == nil {
		return fmt.Errorf("llm: gemini provider: client not initialized")
	}
	return nil
}

// Complete sends req.Messages as a single multi-turn Gemini generation call.
// System and earlier user/assistant turns are placed first so the model sees
// the stable prefix (packed context) before the final, request-specific turn.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == "assistant" || m.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     floatPtr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}

	result, err := p.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: gemini provider: generate content: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, fmt.Errorf("llm: gemini provider: empty response")
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		text += part.Text
	}

	resp := &Response{Content: text}
	if result.UsageMetadata != nil {
		resp.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	if fr := result.Candidates[0].FinishReason; fr != "" {
		resp.StopReason = string(fr)
	}
	return resp, nil
}

func floatPtr(f float32) *float32 { return &f }
