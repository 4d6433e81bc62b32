package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"Picture-Story/server/internal/models"
)

func TestBuildStoryPrompt_ContainsBaseTemplate(t *testing.T) {
	for _, style := range models.AllStyles {
		t.Run(string(style), func(t *testing.T) {
			prompt := BuildStoryPrompt(style)
			base := strings.NewReplacer("{{style}}", string(style), "{{nationality}}", DefaultNationality).Replace(StoryBaseTemplate)

			assert.True(t, strings.HasPrefix(prompt, base), "prompt must start with the rendered base template")
			assert.Contains(t, prompt, "The story must fit the '"+string(style)+"' genre.")
			assert.Contains(t, prompt, "Use only Indian names, characters, places, and personas.")
			assert.Contains(t, prompt, "The story must be between 4 and 5 paragraphs.")
			assert.NotContains(t, prompt, "{{")
		})
	}
}

func TestBuildStoryPrompt_SpecialSections(t *testing.T) {
	tests := []struct {
		style models.Style
		want  string
		tag   string
	}{
		{models.StyleMorale, MoraleInstruction, models.TagMoral},
		{models.StyleMystery, MysteryInstruction, models.TagSolution},
		{models.StyleThriller, ThrillerInstruction, models.TagTwist},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			prompt := BuildStoryPrompt(tt.style)
			assert.True(t, strings.HasSuffix(prompt, tt.want))
			assert.Contains(t, prompt, tt.tag)
			assert.Equal(t, 1, strings.Count(prompt, "Special Section:"))
		})
	}
}

func TestBuildStoryPrompt_NoSectionForOtherStyles(t *testing.T) {
	for _, style := range []models.Style{models.StyleComedy, models.StyleFairyTale, models.StyleSciFi, models.StyleAdventure} {
		t.Run(string(style), func(t *testing.T) {
			prompt := BuildStoryPrompt(style)
			assert.NotContains(t, prompt, "Special Section:")
			for _, tag := range []string{models.TagMoral, models.TagSolution, models.TagTwist} {
				assert.NotContains(t, prompt, tag)
			}
			assert.Equal(t, NewStoryPromptBuilder("").RenderBase(style), prompt)
		})
	}
}

func TestBuildStoryPrompt_Deterministic(t *testing.T) {
	assert.Equal(t, BuildStoryPrompt(models.StyleMystery), BuildStoryPrompt(models.StyleMystery))
}

func TestStoryPromptBuilder_Nationality(t *testing.T) {
	prompt := NewStoryPromptBuilder("Japanese").Build(models.StyleComedy)
	assert.Contains(t, prompt, "Use only Japanese names")
	assert.NotContains(t, prompt, "Indian")
}
