package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultOpenAIURL is the OpenAI API root
const DefaultOpenAIURL = "https://api.openai.com/v1"

// OpenAIConfig configures an OpenAI compatible client
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Limiter *RateLimiter
}

// OpenAI talks to an OpenAI compatible /chat/completions endpoint
type OpenAI struct {
	client  *resty.Client
	key     string
	model   string
	limiter *RateLimiter
}

// NewOpenAI creates the client
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultOpenAIURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	client := newRestClient(strings.TrimRight(base, "/"), cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &OpenAI{client: client, key: cfg.APIKey, model: model, limiter: cfg.Limiter}
}

// Configured reports whether an API key is set
func (o *OpenAI) Configured() bool {
	return o.key != ""
}

// DefaultModel returns the model used when a request names none
func (o *OpenAI) DefaultModel() string {
	return o.model
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIRequest struct {
	Model            string          `json:"model"`
	Messages         []openAIMessage `json:"messages"`
	MaxTokens        int             `json:"max_tokens,omitempty"`
	Temperature      float64         `json:"temperature"`
	PresencePenalty  float64         `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64         `json:"frequency_penalty,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func toOpenAIMessages(msgs []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(msgs))
	for _, m := range msgs {
		if len(m.Images) == 0 {
			out = append(out, openAIMessage{Role: m.Role, Content: m.Content})
			continue
		}
		parts := make([]openAIPart, 0, len(m.Images)+1)
		if m.Content != "" {
			parts = append(parts, openAIPart{Type: "text", Text: m.Content})
		}
		for _, img := range m.Images {
			parts = append(parts, openAIPart{
				Type:     "image_url",
				ImageURL: &openAIImageURL{URL: img.URL, Detail: img.Detail},
			})
		}
		out = append(out, openAIMessage{Role: m.Role, Content: parts})
	}
	return out
}

// Complete sends a chat completion request
func (o *OpenAI) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if !o.Configured() {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrInvalidInput)
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = o.model
	}

	var out openAIResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(openAIRequest{
			Model:            model,
			Messages:         toOpenAIMessages(req.Messages),
			MaxTokens:        req.MaxTokens,
			Temperature:      req.Temperature,
			PresencePenalty:  req.PresencePenalty,
			FrequencyPenalty: req.FrequencyPenalty,
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if err := checkResponse("openai", resp, o.limiter); err != nil {
		return nil, err
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyCompletion
	}
	if out.Model == "" {
		out.Model = model
	}

	return &Completion{
		Text:       out.Choices[0].Message.Content,
		Model:      out.Model,
		TokensUsed: out.Usage.TotalTokens,
	}, nil
}

// Proxy relays a raw chat completion body and returns the upstream status
// and body unchanged. Only transport failures are errors.
func (o *OpenAI) Proxy(ctx context.Context, body any) (int, []byte, error) {
	if !o.Configured() {
		return 0, nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("encode proxy body: %w", err)
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/chat/completions")
	if err != nil {
		return 0, nil, fmt.Errorf("openai proxy: %w", err)
	}
	if resp.StatusCode() == 429 {
		o.limiter.RecordRateLimitError(retryAfterSeconds(resp.Header().Get("Retry-After")))
	}
	return resp.StatusCode(), resp.Body(), nil
}
