package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/umo-app/umo/internal/config"
	"github.com/umo-app/umo/internal/domain"
)

// Turn is one entry of the conversation passed to the text model.
type Turn struct {
	Role    domain.MessageRole
	Content string
}

type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	// Stream sends the conversation and invokes fn once per output delta.
	// It returns the assembled assistant text after the stream ends.
	Stream(ctx context.Context, system string, turns []Turn, fn func(delta string) error) (string, error)
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint,
// including Workers AI models behind an AI gateway.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg config.SpeechConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("text model api key is empty")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.GatewayURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.GatewayURL, "/")
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.TextModel,
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("text model completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("text model returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) Stream(ctx context.Context, system string, turns []Turn, fn func(delta string) error) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("text model stream: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("text model stream recv: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if fn != nil {
			if err := fn(delta); err != nil {
				return "", err
			}
		}
	}

	return sb.String(), nil
}
