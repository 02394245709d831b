package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// OpenAIClient implements Client against an OpenAI-compatible chat endpoint.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIClient creates a chat client. An empty baseURL uses the default
// endpoint; an empty model defaults to gpt-4o-mini.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: 0,
	}
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, &types.UpstreamServiceError{Service: "llm", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &types.UpstreamServiceError{Service: "llm", Err: fmt.Errorf("empty completion")}
	}
	return &Response{Content: resp.Choices[0].Message.Content}, nil
}

var _ Client = (*OpenAIClient)(nil)
