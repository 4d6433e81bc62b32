package models

import (
	"time"
)

// CycleStatus is the terminal state of one generation cycle
type CycleStatus string

const (
	CycleInvalidInput     CycleStatus = "invalid_input"
	CycleGenerationFailed CycleStatus = "generation_failed"
	CycleNarrationFailed  CycleStatus = "narration_failed"
	CycleCompleted        CycleStatus = "completed"
	CycleAppError         CycleStatus = "app_error"
)

// JournalEntry records the metadata of one generation cycle.
// Images, story text and audio are never stored.
type JournalEntry struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	Style       Style       `gorm:"size:32;index" json:"style"`
	ImageCount  int         `json:"image_count"`
	Status      CycleStatus `gorm:"size:32;index" json:"status"`
	Title       string      `gorm:"size:255" json:"title,omitempty"`
	StoryLength int         `json:"story_length"`
	AudioBytes  int         `json:"audio_bytes"`
	Provider    string      `gorm:"size:32" json:"provider"`
	DurationMs  int64       `json:"duration_ms"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

// TableName pins the GORM table name
func (JournalEntry) TableName() string {
	return "generation_journal"
}

// ProgressStage names a step of a running cycle
type ProgressStage string

const (
	StageStarted    ProgressStage = "cycle_started"
	StageGenerating ProgressStage = "generating"
	StageNarrating  ProgressStage = "narrating"
	StageFinished   ProgressStage = "cycle_finished"
)

// ProgressEvent is pushed to event stream subscribers while a cycle runs
type ProgressEvent struct {
	CycleID    string        `json:"cycle_id"`
	Stage      ProgressStage `json:"stage"`
	Style      Style         `json:"style,omitempty"`
	ImageCount int           `json:"image_count,omitempty"`
	Status     CycleStatus   `json:"status,omitempty"`
	Time       int64         `json:"time"`
}
