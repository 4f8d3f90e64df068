package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/config"
)

// Completer produces the assistant reply for a conversation
type Completer interface {
	Complete(ctx context.Context, system string, history []contracts.ChatMessage, message string) (string, error)
}

// ClaudeCompleter calls the Anthropic Messages API
// ⭐ SSOT: LLM 호출은 여기서만
type ClaudeCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewClaudeCompleter creates a completer from config
func NewClaudeCompleter(cfg config.AnthropicConfig) *ClaudeCompleter {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &ClaudeCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

// Complete sends history plus message and returns the text of the reply
func (c *ClaudeCompleter) Complete(ctx context.Context, system string, history []contracts.ChatMessage, message string) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		if m.Role == contracts.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}
	if reply.Len() == 0 {
		return "", fmt.Errorf("claude returned no text")
	}
	return reply.String(), nil
}
