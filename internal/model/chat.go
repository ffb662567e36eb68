package model

import (
	"strings"
	"unicode/utf8"
)

// Chat limits
const (
	MaxChatMessageLength = 2000
	MaxChatHistory       = 50
)

// ChatRequest is a message with optional prior turns
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

// Validate checks the ChatRequest
func (r *ChatRequest) Validate() []FieldError {
	var errors []FieldError
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		errors = append(errors, FieldError{Field: "message", Message: "message is required"})
	} else if utf8.RuneCountInString(r.Message) > MaxChatMessageLength {
		errors = append(errors, FieldError{Field: "message", Message: "message must be at most 2000 characters"})
	}
	if len(r.History) > MaxChatHistory {
		errors = append(errors, FieldError{Field: "history", Message: "history must have at most 50 messages"})
	}
	errors = append(errors, validateRoles("history", r.History)...)
	return errors
}

// ChatReply is the answer of a chat endpoint
type ChatReply struct {
	Response string `json:"response"`
	// Ethers is the balance after a paid message
	Ethers *int `json:"ethers,omitempty"`
}

// GuideChatRequest is the whole onboarding guide conversation so far
type GuideChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// Validate checks the GuideChatRequest
func (r *GuideChatRequest) Validate() []FieldError {
	if len(r.Messages) == 0 {
		return []FieldError{{Field: "messages", Message: "at least one message is required"}}
	}
	if len(r.Messages) > 2*MaxChatHistory {
		return []FieldError{{Field: "messages", Message: "at most 100 messages are accepted"}}
	}
	return validateRoles("messages", r.Messages)
}

func validateRoles(field string, msgs []ChatMessage) []FieldError {
	for _, m := range msgs {
		switch m.Role {
		case "user", "assistant", "system":
		default:
			return []FieldError{{Field: field, Message: "role must be user, assistant or system"}}
		}
	}
	return nil
}

// LLMProxyRequest is relayed to the chat completions endpoint
type LLMProxyRequest struct {
	Messages    []map[string]any `json:"messages"`
	Model       string           `json:"model,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
}

// Validate checks the LLMProxyRequest
func (r *LLMProxyRequest) Validate() []FieldError {
	if len(r.Messages) == 0 {
		return []FieldError{{Field: "messages", Message: "messages are required"}}
	}
	return nil
}
