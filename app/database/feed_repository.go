package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ FeedRepository = (*FeedRepositoryImpl)(nil)

type FeedRepositoryImpl struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepositoryImpl {
	return &FeedRepositoryImpl{db: db}
}

func (r *FeedRepositoryImpl) GetActiveFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT id, name, url, category, is_active, last_fetched_at, fetch_interval_minutes, created_at
		FROM feeds
		WHERE is_active = 1
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		var feed Feed
		err := rows.Scan(&feed.ID, &feed.Name, &feed.URL, &feed.Category, &feed.IsActive,
			&feed.LastFetchedAt, &feed.FetchIntervalMinutes, &feed.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *FeedRepositoryImpl) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM feeds WHERE is_active = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func (r *FeedRepositoryImpl) UpsertFeed(name, url, category string, isActive bool) (string, error) {
	id := uuid.New().String()

	err := r.db.QueryRow(`
		INSERT INTO feeds (id, name, url, category, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			category = excluded.category,
			is_active = excluded.is_active
		RETURNING id
	`, id, name, url, category, isActive).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert feed: %w", err)
	}

	return id, nil
}

func (r *FeedRepositoryImpl) UpdateLastFetched(feedID string, fetchedAt time.Time) error {
	_, err := r.db.Exec(`UPDATE feeds SET last_fetched_at = ? WHERE id = ?`, fetchedAt.UTC(), feedID)
	if err != nil {
		return fmt.Errorf("failed to update last fetched time: %w", err)
	}
	return nil
}
