// Package storage persists the generation journal.
package storage

import (
	"context"
	"fmt"

	"Picture-Story/server/internal/config"
	"Picture-Story/server/internal/interfaces"
	"Picture-Story/server/internal/models"
)

var (
	_ interfaces.JournalStats = (*RedisJournal)(nil)
	_ interfaces.JournalStats = (*MySQLJournal)(nil)
)

// NopJournal discards every entry
type NopJournal struct{}

func (NopJournal) Record(context.Context, *models.JournalEntry) error { return nil }

func (NopJournal) Recent(context.Context, int) ([]models.JournalEntry, error) {
	return []models.JournalEntry{}, nil
}

func (NopJournal) Close() error { return nil }

// NewJournal builds the journal selected by cfg.Driver
func NewJournal(cfg config.JournalConfig) (interfaces.Journal, error) {
	switch cfg.Driver {
	case config.JournalRedis:
		j, err := NewRedisJournal(cfg)
		if err != nil {
			return nil, err
		}
		return j, nil
	case config.JournalMySQL:
		j, err := NewMySQLJournal(cfg.MySQL)
		if err != nil {
			return nil, err
		}
		return j, nil
	case config.JournalNone, "":
		return NopJournal{}, nil
	default:
		return nil, fmt.Errorf("unknown journal driver %q", cfg.Driver)
	}
}
