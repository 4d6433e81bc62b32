package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"Picture-Story/server/internal/models"
	"Picture-Story/server/internal/prompts"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = openai.GPT4oMini
	defaultTimeout       = 120 * time.Second
	providerOpenAI       = "openai"
)

// chatCompleter is the subset of *openai.Client used by OpenAIClient
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient generates stories through any OpenAI-compatible vision
// chat completion endpoint
type OpenAIClient struct {
	client  chatCompleter
	model   string
	prompts *prompts.StoryPromptBuilder
}

// NewOpenAIClient creates a new OpenAI-compatible client. An empty baseURL
// targets the OpenAI API.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration, builder *prompts.StoryPromptBuilder) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{Timeout: timeout}

	return newOpenAIClient(openai.NewClientWithConfig(config), model, builder), nil
}

func newOpenAIClient(client chatCompleter, model string, builder *prompts.StoryPromptBuilder) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	if builder == nil {
		builder = prompts.NewStoryPromptBuilder("")
	}
	return &OpenAIClient{
		client:  client,
		model:   model,
		prompts: builder,
	}
}

// Provider implements interfaces.StoryGenerator
func (c *OpenAIClient) Provider() string {
	return providerOpenAI
}

// GenerateStory implements interfaces.StoryGenerator
func (c *OpenAIClient) GenerateStory(ctx context.Context, images []models.Image, style models.Style) (string, error) {
	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: c.prompts.Build(style),
	})
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    img.DataURL(),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}

	slog.InfoContext(ctx, "requesting story from openai-compatible endpoint", "model", c.model, "style", style, "images", len(images))

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == "content_filter" {
			return "", blockedError("content_filter")
		}
		genErr := requestError(err)
		slog.ErrorContext(ctx, genErr.Error())
		return "", genErr
	}

	if len(resp.Choices) == 0 {
		return "", blockedError("no choices")
	}
	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	if choice.FinishReason == openai.FinishReasonContentFilter || text == "" {
		reason := string(choice.FinishReason)
		if reason == "" {
			reason = "empty text"
		}
		slog.WarnContext(ctx, "openai returned no story text", "reason", reason)
		return "", blockedError(reason)
	}

	return text, nil
}
