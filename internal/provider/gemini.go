package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"google.golang.org/genai"

	"github.com/eternal-ai/api/internal/storage"
)

// GeminiConfig configures a Gemini client
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // override for tests
	Timeout time.Duration
	Limiter *RateLimiter
}

// Gemini completes chats with Google's Gemini models
type Gemini struct {
	client  *genai.Client
	images  *resty.Client
	model   string
	timeout time.Duration
	limiter *RateLimiter
}

// NewGemini creates the client
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		images:  newRestClient("", cfg.Timeout),
		model:   model,
		timeout: cfg.Timeout,
		limiter: cfg.Limiter,
	}, nil
}

// Configured reports whether the client is usable
func (g *Gemini) Configured() bool {
	return g != nil && g.client != nil
}

// Complete sends the conversation to Gemini. System messages become the
// system instruction and assistant turns become model turns.
func (g *Gemini) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrInvalidInput)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	system, contents, err := g.toContents(ctx, req.Messages)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" || !strings.HasPrefix(model, "gemini") {
		model = g.model
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.PresencePenalty != 0 {
		config.PresencePenalty = genai.Ptr(float32(req.PresencePenalty))
	}
	if req.FrequencyPenalty != 0 {
		config.FrequencyPenalty = genai.Ptr(float32(req.FrequencyPenalty))
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCompletion
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return &Completion{Text: text, Model: model, TokensUsed: tokens}, nil
}

func (g *Gemini) toContents(ctx context.Context, msgs []Message) (string, []*genai.Content, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(msgs))

	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}

		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}

		parts := make([]*genai.Part, 0, len(m.Images)+1)
		if m.Content != "" {
			parts = append(parts, genai.NewPartFromText(m.Content))
		}
		for _, img := range m.Images {
			part, err := g.imagePart(ctx, img.URL)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, part)
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	return strings.Join(system, "\n\n"), contents, nil
}

// imagePart inlines the image bytes. Data URLs are decoded, other URLs are
// downloaded.
func (g *Gemini) imagePart(ctx context.Context, url string) (*genai.Part, error) {
	if strings.HasPrefix(url, "data:") {
		obj, err := storage.DecodeDataURL(url, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return genai.NewPartFromBytes(obj.Data, obj.ContentType), nil
	}

	resp, err := g.images.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	if err := checkResponse("image", resp, nil); err != nil {
		return nil, err
	}
	mime := resp.Header().Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return genai.NewPartFromBytes(resp.Body(), mime), nil
}
