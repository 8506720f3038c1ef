package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrNoChoices is returned when the completion response is empty
	ErrNoChoices = errors.New("no completion choices returned")
	// ErrNoMessages is returned when a completion is requested without messages
	ErrNoMessages = errors.New("messages cannot be empty")
)

// ChatMessage is one turn passed to the completion provider
type ChatMessage struct {
	Role    string
	Content string
}

// Chat roles understood by the provider
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// CompletionAPI defines the interface for chat completion
type CompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// CompletionClient wraps the OpenAI API for chat completion. Model
// identifiers are passed through untouched so callers can target any
// model the provider exposes.
type CompletionClient struct {
	api CompletionAPI
}

// NewCompletionClient creates a new chat completion client
func NewCompletionClient(apiKey string) *CompletionClient {
	return &CompletionClient{api: openai.NewClient(apiKey)}
}

// NewCompletionClientWithAPI creates a completion client over a custom API (for testing)
func NewCompletionClientWithAPI(api CompletionAPI) *CompletionClient {
	return &CompletionClient{api: api}
}

// Complete sends messages to the given model and returns the response text
func (c *CompletionClient) Complete(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	reqMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: reqMessages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
