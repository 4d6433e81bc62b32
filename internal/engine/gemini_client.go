package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"Picture-Story/server/internal/models"
	"Picture-Story/server/internal/prompts"
)

const (
	// DefaultGeminiModel is the multimodal model used for story generation
	DefaultGeminiModel = "gemini-2.5-flash-lite"
	providerGemini     = "gemini"
)

// contentGenerator is the subset of *genai.Models used by GeminiClient
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient generates stories with the Gemini API
type GeminiClient struct {
	models  contentGenerator
	model   string
	prompts *prompts.StoryPromptBuilder
}

// NewGeminiClient creates a Gemini API client authenticated with apiKey
func NewGeminiClient(ctx context.Context, apiKey, model string, builder *prompts.StoryPromptBuilder) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiClient(client.Models, model, builder), nil
}

func newGeminiClient(models contentGenerator, model string, builder *prompts.StoryPromptBuilder) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	if builder == nil {
		builder = prompts.NewStoryPromptBuilder("")
	}
	return &GeminiClient{
		models:  models,
		model:   model,
		prompts: builder,
	}
}

// Provider implements interfaces.StoryGenerator
func (c *GeminiClient) Provider() string {
	return providerGemini
}

// GenerateStory implements interfaces.StoryGenerator
func (c *GeminiClient) GenerateStory(ctx context.Context, images []models.Image, style models.Style) (string, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(c.prompts.Build(style)))
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}

	slog.InfoContext(ctx, "requesting story from gemini", "model", c.model, "style", style, "images", len(images))

	resp, err := c.models.GenerateContent(ctx, c.model, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, nil)
	if err != nil {
		genErr := requestError(err)
		slog.ErrorContext(ctx, genErr.Error())
		return "", genErr
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text())
	}
	if text == "" {
		reason := blockReason(resp)
		slog.WarnContext(ctx, "gemini returned no story text", "reason", reason)
		return "", blockedError(reason)
	}

	return text, nil
}

// blockReason reports why a response carried no text, if the service said so
func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return "empty response"
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return string(resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "no candidates"
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return string(candidate.FinishReason)
	}
	return "empty text"
}
