package interfaces

import (
	"context"

	"Picture-Story/server/internal/models"
)

// Narrator converts story text into speech audio
type Narrator interface {
	// Narrate returns the synthesized audio, or nil audio and an error
	Narrate(ctx context.Context, text string) (*models.Audio, error)
}
