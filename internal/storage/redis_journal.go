package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"Picture-Story/server/internal/config"
	"Picture-Story/server/internal/models"
)

const (
	defaultJournalKey = "picture-story:journal"
	defaultMaxEntries = 1000
	maxRecentLimit    = 1000
)

// RedisJournal keeps the newest journal entries in a capped Redis list
type RedisJournal struct {
	client     *redis.Client
	key        string
	maxEntries int64
	ttl        time.Duration
}

// NewRedisJournal connects to Redis and verifies the connection
func NewRedisJournal(cfg config.JournalConfig) (*RedisJournal, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr(), err)
	}

	return newRedisJournal(client, cfg.Redis.Key, cfg.MaxEntries, cfg.TTL.Std()), nil
}

func newRedisJournal(client *redis.Client, key string, maxEntries int, ttl time.Duration) *RedisJournal {
	if key == "" {
		key = defaultJournalKey
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &RedisJournal{
		client:     client,
		key:        key,
		maxEntries: int64(maxEntries),
		ttl:        ttl,
	}
}

// Record pushes entry to the front of the list and trims the tail
func (j *RedisJournal) Record(ctx context.Context, entry *models.JournalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	_, err = j.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, j.key, data)
		pipe.LTrim(ctx, j.key, 0, j.maxEntries-1)
		if j.ttl > 0 {
			pipe.Expire(ctx, j.key, j.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (j *RedisJournal) Recent(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	if limit <= 0 || limit > maxRecentLimit {
		limit = 100
	}

	results, err := j.client.LRange(ctx, j.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	return decodeEntries(ctx, results), nil
}

// CountByStatus tallies the retained entries per status. The list is capped
// at maxEntries, so this reads at most that many records.
func (j *RedisJournal) CountByStatus(ctx context.Context) (map[models.CycleStatus]int64, error) {
	results, err := j.client.LRange(ctx, j.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	counts := make(map[models.CycleStatus]int64)
	for _, entry := range decodeEntries(ctx, results) {
		counts[entry.Status]++
	}
	return counts, nil
}

func decodeEntries(ctx context.Context, results []string) []models.JournalEntry {
	entries := make([]models.JournalEntry, 0, len(results))
	for _, result := range results {
		var entry models.JournalEntry
		if err := json.Unmarshal([]byte(result), &entry); err != nil {
			slog.WarnContext(ctx, "skipping malformed journal entry", "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (j *RedisJournal) Close() error {
	return j.client.Close()
}
