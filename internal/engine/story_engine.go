package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"Picture-Story/server/internal/imgutil"
	"Picture-Story/server/internal/interfaces"
	"Picture-Story/server/internal/models"
)

// MaxImages is the largest image sequence accepted per cycle
const MaxImages = 10

const defaultJournalTimeout = 3 * time.Second

// User-facing messages
const (
	MsgNoImages          = "Please upload at least one image."
	MsgTooManyImages     = "Please upload a maximum of 10 images."
	MsgNarrationFailed   = "Audio narration could not be generated."
	msgGenerationFailed  = "Story generation failed: %v"
	msgApplicationFailed = "An application error occurred: %v"
)

var (
	ErrNoImages      = errors.New(MsgNoImages)
	ErrTooManyImages = errors.New(MsgTooManyImages)
)

// ValidateCount checks the number of uploaded images
func ValidateCount(n int) error {
	switch {
	case n == 0:
		return ErrNoImages
	case n > MaxImages:
		return ErrTooManyImages
	}
	return nil
}

// CycleOutcome is the result of one generation cycle
type CycleOutcome struct {
	ID       string
	Status   models.CycleStatus
	Style    models.Style
	Provider string
	Images   []models.Image
	Heading  string
	Story    string
	Audio    *models.Audio
	Warnings []string
	Error    string
	Duration time.Duration
}

// HasStory reports whether a story should be rendered
func (o *CycleOutcome) HasStory() bool {
	return o.Story != ""
}

// StoryEngine runs the validate, decode, generate and narrate cycle
type StoryEngine struct {
	generator interfaces.StoryGenerator
	narrator  interfaces.Narrator
	journal   interfaces.Journal
	progress  interfaces.ProgressReporter

	journalTimeout time.Duration
}

// Option configures a StoryEngine
type Option func(*StoryEngine)

// WithJournal records every finished cycle in j
func WithJournal(j interfaces.Journal) Option {
	return func(e *StoryEngine) {
		e.journal = j
	}
}

// WithProgress reports stage events to r
func WithProgress(r interfaces.ProgressReporter) Option {
	return func(e *StoryEngine) {
		e.progress = r
	}
}

// WithJournalTimeout bounds each journal write
func WithJournalTimeout(d time.Duration) Option {
	return func(e *StoryEngine) {
		if d > 0 {
			e.journalTimeout = d
		}
	}
}

// NewStoryEngine creates a new story engine
func NewStoryEngine(generator interfaces.StoryGenerator, narrator interfaces.Narrator, opts ...Option) *StoryEngine {
	e := &StoryEngine{
		generator:      generator,
		narrator:       narrator,
		journalTimeout: defaultJournalTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one cycle. It never returns nil and never panics; every
// failure is folded into the outcome's status and messages.
func (e *StoryEngine) Run(ctx context.Context, uploads []models.Upload, style models.Style) (outcome *CycleOutcome) {
	start := time.Now()
	outcome = &CycleOutcome{
		ID:       uuid.NewString(),
		Style:    style,
		Provider: e.generator.Provider(),
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "cycle panicked", "cycle_id", outcome.ID, "panic", r)
			outcome.Status = models.CycleAppError
			outcome.Error = fmt.Sprintf(msgApplicationFailed, r)
		}
		outcome.Duration = time.Since(start)
		e.report(outcome.ID, models.StageFinished, style, len(uploads), outcome.Status)
		e.record(ctx, outcome, len(uploads))
	}()

	e.report(outcome.ID, models.StageStarted, style, len(uploads), "")

	if err := ValidateCount(len(uploads)); err != nil {
		outcome.Status = models.CycleInvalidInput
		outcome.Warnings = append(outcome.Warnings, err.Error())
		return outcome
	}
	if _, err := models.ParseStyle(string(style)); err != nil {
		outcome.Status = models.CycleInvalidInput
		outcome.Warnings = append(outcome.Warnings, "Please select a story style.")
		return outcome
	}

	for _, u := range uploads {
		if !u.HasAllowedExtension() {
			slog.WarnContext(ctx, "upload has an unexpected extension", "cycle_id", outcome.ID, "filename", u.Filename)
		}
	}

	images, err := imgutil.DecodeAll(uploads)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decode uploads", "cycle_id", outcome.ID, "error", err)
		outcome.Status = models.CycleAppError
		outcome.Error = fmt.Sprintf(msgApplicationFailed, err)
		return outcome
	}
	outcome.Images = images

	e.report(outcome.ID, models.StageGenerating, style, len(images), "")
	story, err := e.generator.GenerateStory(ctx, images, style)
	if err != nil {
		outcome.Status = models.CycleGenerationFailed
		outcome.Error = fmt.Sprintf(msgGenerationFailed, err)
		return outcome
	}
	outcome.Heading = style.Heading()
	outcome.Story = story

	e.report(outcome.ID, models.StageNarrating, style, len(images), "")
	audio, err := e.narrator.Narrate(ctx, story)
	if err != nil || audio == nil {
		outcome.Status = models.CycleNarrationFailed
		outcome.Warnings = append(outcome.Warnings, MsgNarrationFailed)
		return outcome
	}
	outcome.Audio = audio
	outcome.Status = models.CycleCompleted

	slog.InfoContext(ctx, "cycle completed",
		"cycle_id", outcome.ID,
		"style", style,
		"images", len(images),
		"story_chars", len(story),
		"audio_bytes", audio.Size(),
	)
	return outcome
}

func (e *StoryEngine) report(id string, stage models.ProgressStage, style models.Style, images int, status models.CycleStatus) {
	if e.progress == nil {
		return
	}
	e.progress.Report(models.ProgressEvent{
		CycleID:    id,
		Stage:      stage,
		Style:      style,
		ImageCount: images,
		Status:     status,
		Time:       time.Now().Unix(),
	})
}

// record writes the journal entry on a context detached from the request
// so a client disconnect does not drop it
func (e *StoryEngine) record(ctx context.Context, outcome *CycleOutcome, imageCount int) {
	if e.journal == nil {
		return
	}

	entry := &models.JournalEntry{
		ID:          outcome.ID,
		Style:       outcome.Style,
		ImageCount:  imageCount,
		Status:      outcome.Status,
		Title:       models.ExtractTitle(outcome.Story),
		StoryLength: len(outcome.Story),
		AudioBytes:  outcome.Audio.Size(),
		Provider:    outcome.Provider,
		DurationMs:  outcome.Duration.Milliseconds(),
		CreatedAt:   time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.journalTimeout)
	defer cancel()
	if err := e.journal.Record(writeCtx, entry); err != nil {
		slog.WarnContext(ctx, "failed to record journal entry", "cycle_id", outcome.ID, "error", err)
	}
}
