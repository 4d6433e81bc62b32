package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"Picture-Story/server/internal/config"
	"Picture-Story/server/internal/models"
	"Picture-Story/server/internal/prompts"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	return f.resp, f.err
}

func textResponse(text string, reason genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: reason,
		}},
	}
}

func testImages() []models.Image {
	return []models.Image{
		{Index: 0, Filename: "a.png", MIMEType: "image/png", Data: []byte("png-bytes")},
		{Index: 1, Filename: "b.jpg", MIMEType: "image/jpeg", Data: []byte("jpeg-bytes")},
	}
}

func TestGeminiClient_SendsPromptThenImages(t *testing.T) {
	fake := &fakeModels{resp: textResponse("  Title\n\nStory body.  \n", genai.FinishReasonStop)}
	client := newGeminiClient(fake, "", nil)

	story, err := client.GenerateStory(context.Background(), testImages(), models.StyleMystery)
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nStory body.", story)
	assert.Equal(t, DefaultGeminiModel, fake.model)

	require.Len(t, fake.contents, 1)
	parts := fake.contents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, prompts.BuildStoryPrompt(models.StyleMystery), parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, []byte("png-bytes"), parts[1].InlineData.Data)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	require.NotNil(t, parts[2].InlineData)
	assert.Equal(t, []byte("jpeg-bytes"), parts[2].InlineData.Data)
	assert.Equal(t, "gemini", client.Provider())
}

func TestGeminiClient_Blocked(t *testing.T) {
	tests := []struct {
		name   string
		resp   *genai.GenerateContentResponse
		reason string
	}{
		{"nil response", nil, "empty response"},
		{"no candidates", &genai.GenerateContentResponse{}, "no candidates"},
		{"safety finish", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}, string(genai.FinishReasonSafety)},
		{"prompt blocked", &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}, string(genai.BlockedReasonSafety)},
		{"whitespace only", textResponse("   ", genai.FinishReasonStop), "empty text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newGeminiClient(&fakeModels{resp: tt.resp}, "gemini-test", nil)

			story, err := client.GenerateStory(context.Background(), testImages(), models.StyleComedy)
			assert.Empty(t, story)
			require.Error(t, err)
			assert.True(t, IsBlocked(err))
			assert.Equal(t, "Error: The AI response was blocked for safety reasons. Please try different images.", err.Error())

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.reason, genErr.Reason)
		})
	}
}

func TestGeminiClient_RequestFailure(t *testing.T) {
	cause := errors.New("permission denied")
	client := newGeminiClient(&fakeModels{err: cause}, "", nil)

	_, err := client.GenerateStory(context.Background(), testImages(), models.StyleComedy)
	require.Error(t, err)
	assert.False(t, IsBlocked(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Error: Failed to generate story. Details: permission denied", err.Error())
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "", nil)
	assert.Error(t, err)
}

type fakeChat struct {
	resp openai.ChatCompletionResponse
	err  error
	req  openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func chatResponse(content string, reason openai.FinishReason) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: reason,
		}},
	}
}

func TestOpenAIClient_SendsPromptThenImages(t *testing.T) {
	fake := &fakeChat{resp: chatResponse("\nA tale.\n", openai.FinishReasonStop)}
	client := newOpenAIClient(fake, "", prompts.NewStoryPromptBuilder("Kenyan"))

	story, err := client.GenerateStory(context.Background(), testImages(), models.StyleThriller)
	require.NoError(t, err)
	assert.Equal(t, "A tale.", story)
	assert.Equal(t, defaultOpenAIModel, fake.req.Model)

	require.Len(t, fake.req.Messages, 1)
	parts := fake.req.Messages[0].MultiContent
	require.Len(t, parts, 3)
	assert.Equal(t, openai.ChatMessagePartTypeText, parts[0].Type)
	assert.Contains(t, parts[0].Text, "Use only Kenyan names")
	assert.Contains(t, parts[0].Text, models.TagTwist)
	assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", parts[1].ImageURL.URL)
	assert.Equal(t, "data:image/jpeg;base64,anBlZy1ieXRlcw==", parts[2].ImageURL.URL)
	assert.Equal(t, "openai", client.Provider())
}

func TestOpenAIClient_Failures(t *testing.T) {
	t.Run("content filter", func(t *testing.T) {
		client := newOpenAIClient(&fakeChat{resp: chatResponse("", openai.FinishReasonContentFilter)}, "", nil)
		_, err := client.GenerateStory(context.Background(), testImages(), models.StyleComedy)
		assert.True(t, IsBlocked(err))
	})

	t.Run("no choices", func(t *testing.T) {
		client := newOpenAIClient(&fakeChat{}, "", nil)
		_, err := client.GenerateStory(context.Background(), testImages(), models.StyleComedy)
		assert.True(t, IsBlocked(err))
	})

	t.Run("request error", func(t *testing.T) {
		client := newOpenAIClient(&fakeChat{err: errors.New("connection refused")}, "", nil)
		_, err := client.GenerateStory(context.Background(), testImages(), models.StyleComedy)
		require.Error(t, err)
		assert.False(t, IsBlocked(err))
		assert.Equal(t, "Error: Failed to generate story. Details: connection refused", err.Error())
	})
}

func TestNewStoryGenerator(t *testing.T) {
	ctx := context.Background()

	gen, err := NewStoryGenerator(ctx, config.GenerationConfig{Provider: config.ProviderOpenAI, APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", gen.Provider())

	gen, err = NewStoryGenerator(ctx, config.GenerationConfig{Provider: config.ProviderGemini, APIKey: "AIza-test"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", gen.Provider())

	_, err = NewStoryGenerator(ctx, config.GenerationConfig{Provider: config.ProviderGemini})
	assert.Error(t, err)

	_, err = NewStoryGenerator(ctx, config.GenerationConfig{Provider: "llama", APIKey: "k"})
	assert.Error(t, err)
}
