package service

import (
	"context"
	"errors"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/provider"
)

// Proxy defaults
const (
	ProxyDefaultModel       = "gpt-4o"
	ProxyDefaultMaxTokens   = 4000
	ProxyDefaultTemperature = 0.7
)

// ErrProxyKeyMissing is returned when no OpenAI key is configured
var ErrProxyKeyMissing = errors.New("OpenAI API key not set")

// ChatProxy relays raw chat completion bodies
type ChatProxy interface {
	Configured() bool
	Proxy(ctx context.Context, body any) (int, []byte, error)
}

// ProxyResult is the relayed upstream response
type ProxyResult struct {
	Status int
	Body   []byte
}

// ProxyService relays chat completion requests to OpenAI
type ProxyService struct {
	proxy ChatProxy
}

// NewProxyService creates a new proxy service
func NewProxyService(proxy ChatProxy) *ProxyService {
	return &ProxyService{proxy: proxy}
}

// Relay fills the defaults and relays the request
func (s *ProxyService) Relay(ctx context.Context, req model.LLMProxyRequest) (*ProxyResult, error) {
	if s.proxy == nil || !s.proxy.Configured() {
		return nil, ErrProxyKeyMissing
	}

	temperature := ProxyDefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	body := map[string]any{
		"model":       orDefault(req.Model, ProxyDefaultModel),
		"messages":    req.Messages,
		"max_tokens":  ProxyDefaultMaxTokens,
		"temperature": temperature,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}

	status, data, err := s.proxy.Proxy(ctx, body)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			return nil, ErrProxyKeyMissing
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, upstream("openai", err)
	}
	return &ProxyResult{Status: status, Body: data}, nil
}
