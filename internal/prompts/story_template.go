package prompts

import (
	"regexp"

	"Picture-Story/server/internal/models"
)

// DefaultNationality is used when no nationality is configured
const DefaultNationality = "Indian"

// StoryBaseTemplate is the instruction sent ahead of the images.
// {{style}} and {{nationality}} are substituted per request.
const StoryBaseTemplate = `
Your Persona: You are a friendly and engaging storyteller. Your goal is to tell a story that is fun and easy to read.
Your Main Goal: Write a story in simple, clear, and modern English.
Your Task: Create one single story that connects all the provided images in order.
Style Requirement: The story must fit the '{{style}}' genre.
Core Instructions:
1. Tell One Single Story: Connect all images into a narrative with a beginning, middle, and end.
2. Use Every Image: Include a key detail from each image.
3. Creative Interpretation: Infer the relationships between the images.
4. Nationality: Use only {{nationality}} names, characters, places, and personas.

Output Format:
- Title: Start with a simple and clear title.
- Length: The story must be between 4 and 5 paragraphs.
`

// Special section instructions appended for the styles that require one
const (
	MoraleInstruction   = "\nSpecial Section: After the story, you MUST add a section starting with the exact tag " + models.TagMoral + " followed by the single-sentence moral of the story."
	MysteryInstruction  = "\nSpecial Section: After the story, you MUST add a section starting with the exact tag " + models.TagSolution + " that reveals the culprit and the key clue."
	ThrillerInstruction = "\nSpecial Section: After the story, you MUST add a section starting with the exact tag " + models.TagTwist + " that reveals a final, shocking twist."
)

var styleInstructions = map[models.Style]string{
	models.StyleMorale:   MoraleInstruction,
	models.StyleMystery:  MysteryInstruction,
	models.StyleThriller: ThrillerInstruction,
}

var varRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// StoryPromptBuilder renders the story instruction for a style
type StoryPromptBuilder struct {
	nationality string
}

// NewStoryPromptBuilder creates a builder. An empty nationality falls back
// to DefaultNationality.
func NewStoryPromptBuilder(nationality string) *StoryPromptBuilder {
	if nationality == "" {
		nationality = DefaultNationality
	}
	return &StoryPromptBuilder{nationality: nationality}
}

// Build returns the base template rendered for style followed by the
// style's special section instruction, if any.
func (b *StoryPromptBuilder) Build(style models.Style) string {
	return b.RenderBase(style) + StyleInstruction(style)
}

// RenderBase renders StoryBaseTemplate without any special section
func (b *StoryPromptBuilder) RenderBase(style models.Style) string {
	vars := map[string]string{
		"style":       string(style),
		"nationality": b.nationality,
	}
	return varRegex.ReplaceAllStringFunc(StoryBaseTemplate, func(match string) string {
		name := varRegex.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

// StyleInstruction returns the trailing instruction for style, or "" when
// the style has none.
func StyleInstruction(style models.Style) string {
	return styleInstructions[style]
}

// BuildStoryPrompt builds the prompt with the default nationality
func BuildStoryPrompt(style models.Style) string {
	return NewStoryPromptBuilder("").Build(style)
}
