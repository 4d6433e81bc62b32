package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Picture-Story/server/internal/config"
	"Picture-Story/server/internal/models"
)

// MySQLJournal stores journal entries in the generation_journal table
type MySQLJournal struct {
	db *gorm.DB
}

// NewMySQLJournal opens the database, sizes the pool and migrates the table
func NewMySQLJournal(cfg config.MySQLConfig) (*MySQLJournal, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime.Std())

	if err := db.AutoMigrate(&models.JournalEntry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate journal table: %w", err)
	}

	return &MySQLJournal{db: db}, nil
}

func (j *MySQLJournal) Record(ctx context.Context, entry *models.JournalEntry) error {
	if err := j.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (j *MySQLJournal) Recent(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	if limit <= 0 || limit > maxRecentLimit {
		limit = 100
	}

	var entries []models.JournalEntry
	err := j.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	return entries, nil
}

// CountByStatus aggregates stored cycles per status
func (j *MySQLJournal) CountByStatus(ctx context.Context) (map[models.CycleStatus]int64, error) {
	var rows []struct {
		Status models.CycleStatus
		Total  int64
	}
	err := j.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count journal entries: %w", err)
	}

	counts := make(map[models.CycleStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (j *MySQLJournal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
