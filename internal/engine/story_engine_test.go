package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Picture-Story/server/internal/models"
)

type fakeGenerator struct {
	story  string
	err    error
	panics bool

	calls  int
	images []models.Image
	style  models.Style
}

func (g *fakeGenerator) GenerateStory(_ context.Context, images []models.Image, style models.Style) (string, error) {
	g.calls++
	g.images = images
	g.style = style
	if g.panics {
		panic("generator exploded")
	}
	return g.story, g.err
}

func (g *fakeGenerator) Provider() string { return "fake" }

type fakeNarrator struct {
	audio *models.Audio
	err   error

	calls int
	text  string
}

func (n *fakeNarrator) Narrate(_ context.Context, text string) (*models.Audio, error) {
	n.calls++
	n.text = text
	return n.audio, n.err
}

type memoryJournal struct {
	mu      sync.Mutex
	entries []models.JournalEntry
	err     error
}

func (j *memoryJournal) Record(_ context.Context, entry *models.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, *entry)
	return j.err
}

func (j *memoryJournal) Recent(_ context.Context, limit int) ([]models.JournalEntry, error) {
	return j.entries, nil
}

func (j *memoryJournal) Close() error { return nil }

type recordingReporter struct {
	stages []models.ProgressStage
}

func (r *recordingReporter) Report(event models.ProgressEvent) {
	r.stages = append(r.stages, event.Stage)
}

func pngUploads(t *testing.T, n int) []models.Upload {
	t.Helper()
	uploads := make([]models.Upload, n)
	for i := range uploads {
		img := image.NewRGBA(image.Rect(0, 0, i+1, 4))
		buf := new(bytes.Buffer)
		require.NoError(t, png.Encode(buf, img))
		uploads[i] = models.Upload{Filename: fmt.Sprintf("img%d.png", i), Data: buf.Bytes()}
	}
	return uploads
}

func mp3Audio() *models.Audio {
	return &models.Audio{Data: []byte("ID3-audio"), MIMEType: "audio/mpeg"}
}

func TestRun_InvalidCount(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		warning string
	}{
		{"no images", 0, "Please upload at least one image."},
		{"too many images", 11, "Please upload a maximum of 10 images."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{story: "story"}
			nar := &fakeNarrator{audio: mp3Audio()}
			e := NewStoryEngine(gen, nar)

			outcome := e.Run(context.Background(), pngUploads(t, tt.count), models.StyleComedy)

			assert.Equal(t, models.CycleInvalidInput, outcome.Status)
			assert.Equal(t, []string{tt.warning}, outcome.Warnings)
			assert.Zero(t, gen.calls)
			assert.Zero(t, nar.calls)
			assert.False(t, outcome.HasStory())
		})
	}
}

func TestRun_BoundaryCountsAccepted(t *testing.T) {
	for _, n := range []int{1, MaxImages} {
		t.Run(fmt.Sprintf("%d images", n), func(t *testing.T) {
			gen := &fakeGenerator{story: "Title\n\nOnce upon a time."}
			nar := &fakeNarrator{audio: mp3Audio()}
			e := NewStoryEngine(gen, nar)

			outcome := e.Run(context.Background(), pngUploads(t, n), models.StyleAdventure)

			require.Equal(t, models.CycleCompleted, outcome.Status)
			require.Len(t, gen.images, n)
			for i, img := range gen.images {
				assert.Equal(t, i, img.Index)
				assert.Equal(t, fmt.Sprintf("img%d.png", i), img.Filename)
				assert.Equal(t, i+1, img.Width())
			}
			assert.Equal(t, models.StyleAdventure, gen.style)
		})
	}
}

func TestRun_Completed(t *testing.T) {
	gen := &fakeGenerator{story: "The Lost Kite\n\nRavi ran."}
	nar := &fakeNarrator{audio: mp3Audio()}
	journal := &memoryJournal{}
	reporter := &recordingReporter{}
	e := NewStoryEngine(gen, nar, WithJournal(journal), WithProgress(reporter))

	outcome := e.Run(context.Background(), pngUploads(t, 2), models.StyleComedy)

	assert.Equal(t, models.CycleCompleted, outcome.Status)
	assert.Equal(t, "Your Comedy Story:", outcome.Heading)
	assert.Equal(t, gen.story, outcome.Story)
	assert.Equal(t, gen.story, nar.text)
	assert.Same(t, nar.audio, outcome.Audio)
	assert.Empty(t, outcome.Warnings)
	assert.Empty(t, outcome.Error)
	assert.Len(t, outcome.Images, 2)

	assert.Equal(t, []models.ProgressStage{
		models.StageStarted, models.StageGenerating, models.StageNarrating, models.StageFinished,
	}, reporter.stages)

	require.Len(t, journal.entries, 1)
	entry := journal.entries[0]
	assert.Equal(t, outcome.ID, entry.ID)
	assert.Equal(t, models.CycleCompleted, entry.Status)
	assert.Equal(t, "The Lost Kite", entry.Title)
	assert.Equal(t, 2, entry.ImageCount)
	assert.Equal(t, len("ID3-audio"), entry.AudioBytes)
	assert.Equal(t, "fake", entry.Provider)
}

func TestRun_GenerationFailureSkipsNarration(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "blocked",
			err:  blockedError("SAFETY"),
			want: "Story generation failed: Error: The AI response was blocked for safety reasons. Please try different images.",
		},
		{
			name: "request failure",
			err:  requestError(errors.New("quota exceeded")),
			want: "Story generation failed: Error: Failed to generate story. Details: quota exceeded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tt.err}
			nar := &fakeNarrator{audio: mp3Audio()}
			e := NewStoryEngine(gen, nar)

			outcome := e.Run(context.Background(), pngUploads(t, 1), models.StyleMystery)

			assert.Equal(t, models.CycleGenerationFailed, outcome.Status)
			assert.Equal(t, tt.want, outcome.Error)
			assert.Zero(t, nar.calls)
			assert.False(t, outcome.HasStory())
			assert.Nil(t, outcome.Audio)
		})
	}
}

func TestRun_StoryMentioningFailureIsStillAStory(t *testing.T) {
	gen := &fakeGenerator{story: "The rocket launch failed, but Asha tried again."}
	nar := &fakeNarrator{audio: mp3Audio()}
	e := NewStoryEngine(gen, nar)

	outcome := e.Run(context.Background(), pngUploads(t, 1), models.StyleSciFi)

	assert.Equal(t, models.CycleCompleted, outcome.Status)
	assert.Equal(t, 1, nar.calls)
}

func TestRun_NarrationFailureKeepsStory(t *testing.T) {
	gen := &fakeGenerator{story: "A story"}
	nar := &fakeNarrator{err: errors.New("tts unavailable")}
	e := NewStoryEngine(gen, nar)

	outcome := e.Run(context.Background(), pngUploads(t, 3), models.StyleMorale)

	assert.Equal(t, models.CycleNarrationFailed, outcome.Status)
	assert.Equal(t, "A story", outcome.Story)
	assert.Equal(t, "Your Morale Story:", outcome.Heading)
	assert.Equal(t, []string{"Audio narration could not be generated."}, outcome.Warnings)
	assert.Nil(t, outcome.Audio)
}

func TestRun_DecodeFailureIsApplicationError(t *testing.T) {
	gen := &fakeGenerator{story: "story"}
	nar := &fakeNarrator{audio: mp3Audio()}
	e := NewStoryEngine(gen, nar)

	uploads := []models.Upload{{Filename: "notes.png", Data: []byte("not an image")}}
	outcome := e.Run(context.Background(), uploads, models.StyleComedy)

	assert.Equal(t, models.CycleAppError, outcome.Status)
	assert.Contains(t, outcome.Error, "An application error occurred: cannot identify image file")
	assert.Zero(t, gen.calls)
}

func TestRun_RecoversFromPanic(t *testing.T) {
	gen := &fakeGenerator{panics: true}
	nar := &fakeNarrator{audio: mp3Audio()}
	journal := &memoryJournal{}
	e := NewStoryEngine(gen, nar, WithJournal(journal))

	var outcome *CycleOutcome
	require.NotPanics(t, func() {
		outcome = e.Run(context.Background(), pngUploads(t, 1), models.StyleThriller)
	})

	assert.Equal(t, models.CycleAppError, outcome.Status)
	assert.Equal(t, "An application error occurred: generator exploded", outcome.Error)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, models.CycleAppError, journal.entries[0].Status)
}

func TestRun_UnknownStyle(t *testing.T) {
	gen := &fakeGenerator{story: "story"}
	e := NewStoryEngine(gen, &fakeNarrator{})

	outcome := e.Run(context.Background(), pngUploads(t, 1), models.Style("Horror"))

	assert.Equal(t, models.CycleInvalidInput, outcome.Status)
	assert.Zero(t, gen.calls)
}

func TestRun_JournalFailureDoesNotAffectCycle(t *testing.T) {
	journal := &memoryJournal{err: errors.New("redis down")}
	e := NewStoryEngine(&fakeGenerator{story: "story"}, &fakeNarrator{audio: mp3Audio()}, WithJournal(journal))

	outcome := e.Run(context.Background(), pngUploads(t, 1), models.StyleComedy)

	assert.Equal(t, models.CycleCompleted, outcome.Status)
	assert.Len(t, journal.entries, 1)
}

func TestValidateCount(t *testing.T) {
	assert.ErrorIs(t, ValidateCount(0), ErrNoImages)
	assert.NoError(t, ValidateCount(1))
	assert.NoError(t, ValidateCount(10))
	assert.ErrorIs(t, ValidateCount(11), ErrTooManyImages)
}
