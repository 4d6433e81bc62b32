package interfaces

import (
	"context"

	"Picture-Story/server/internal/models"
)

// Journal records the metadata of finished cycles
type Journal interface {
	Record(ctx context.Context, entry *models.JournalEntry) error
	Recent(ctx context.Context, limit int) ([]models.JournalEntry, error)
	Close() error
}

// JournalStats is implemented by journals that can aggregate stored cycles
type JournalStats interface {
	CountByStatus(ctx context.Context) (map[models.CycleStatus]int64, error)
}
