package openai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingAPI is a mock for the embedding API
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	text := "Module 2 covers goroutines and channels."
	expectedEmbedding := make([]float32, 1536)
	for i := range expectedEmbedding {
		expectedEmbedding[i] = float32(i) * 0.001
	}

	mockAPI.On("CreateEmbeddings", ctx, text).Return(expectedEmbedding, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.NoError(t, err)
	assert.Len(t, embedding, 1536)
	assert.Equal(t, expectedEmbedding, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	client := NewClient("")

	embedding, err := client.GenerateEmbedding(context.Background(), "")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	mockAPI.On("CreateEmbeddings", ctx, "some text").Return(nil, errors.New("rate limited"))

	embedding, err := client.GenerateEmbedding(ctx, "some text")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	mockAPI.On("CreateEmbeddings", ctx, "short vector").Return(make([]float32, 42), nil)

	embedding, err := client.GenerateEmbedding(ctx, "short vector")

	assert.Nil(t, embedding)
	assert.Equal(t, ErrWrongDimensions, err)
}

// MockCompletionAPI is a mock for the chat completion API
type MockCompletionAPI struct {
	mock.Mock
}

func (m *MockCompletionAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func TestCompletionClient_Complete_Success(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := NewCompletionClientWithAPI(mockAPI)

	ctx := context.Background()
	resp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Goroutines are lightweight threads."}},
		},
	}

	mockAPI.On("CreateChatCompletion", ctx, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "custom-model-v9" && len(req.Messages) == 2
	})).Return(resp, nil)

	text, err := client.Complete(ctx, "custom-model-v9", []ChatMessage{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "Goroutines are lightweight threads.", text)
	mockAPI.AssertExpectations(t)
}

func TestCompletionClient_Complete_NoMessages(t *testing.T) {
	client := NewCompletionClient("")

	_, err := client.Complete(context.Background(), "gpt-4o-mini", nil)
	assert.Equal(t, ErrNoMessages, err)
}

func TestCompletionClient_Complete_NoChoices(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := NewCompletionClientWithAPI(mockAPI)

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, mock.Anything).Return(openai.ChatCompletionResponse{}, nil)

	_, err := client.Complete(ctx, "gpt-4o-mini", []ChatMessage{{Role: RoleUser, Content: "hi"}})
	assert.Equal(t, ErrNoChoices, err)
}

func TestCompletionClient_Complete_ProviderError(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := NewCompletionClientWithAPI(mockAPI)

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("upstream timeout"))

	_, err := client.Complete(ctx, "gpt-4o-mini", []ChatMessage{{Role: RoleUser, Content: "hi"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upstream timeout")
}
