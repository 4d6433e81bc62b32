package interfaces

import (
	"context"

	"Picture-Story/server/internal/models"
)

// StoryGenerator turns an ordered image sequence into a narrative
type StoryGenerator interface {
	// GenerateStory sends the style prompt followed by the images, in order,
	// and returns the generated text trimmed of surrounding whitespace.
	GenerateStory(ctx context.Context, images []models.Image, style models.Style) (string, error)

	// Provider names the backing service, e.g. "gemini"
	Provider() string
}

// ProgressReporter receives stage events while a cycle runs
type ProgressReporter interface {
	Report(event models.ProgressEvent)
}
