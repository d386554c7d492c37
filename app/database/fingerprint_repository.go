package database

import (
	"fmt"
	"strings"
	"time"
)

var _ FingerprintRepository = (*FingerprintRepositoryImpl)(nil)

type FingerprintRepositoryImpl struct {
	db *DB
}

func NewFingerprintRepository(db *DB) *FingerprintRepositoryImpl {
	return &FingerprintRepositoryImpl{db: db}
}

func (r *FingerprintRepositoryImpl) Exists(hash string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM fingerprints WHERE hash = ?`, hash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return count > 0, nil
}

func (r *FingerprintRepositoryImpl) Record(fp Fingerprint) error {
	// Re-ingesting an already-seen item must be a silent no-op.
	_, err := r.db.Exec(`
		INSERT INTO fingerprints (hash, source_url, source_title, feed_id, content_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (hash) DO NOTHING
	`, fp.Hash, fp.SourceURL, fp.SourceTitle, fp.FeedID, fp.ContentID)
	if err != nil {
		return fmt.Errorf("failed to record fingerprint: %w", err)
	}
	return nil
}

func (r *FingerprintRepositoryImpl) AssignContent(sourceURLs []string, contentID string) error {
	if len(sourceURLs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(sourceURLs)), ", ")
	args := make([]any, 0, len(sourceURLs)+1)
	args = append(args, contentID)
	for _, u := range sourceURLs {
		args = append(args, u)
	}

	_, err := r.db.Exec(fmt.Sprintf(`
		UPDATE fingerprints
		SET content_id = ?
		WHERE source_url IN (%s) AND content_id IS NULL
	`, placeholders), args...)
	if err != nil {
		return fmt.Errorf("failed to assign content to fingerprints: %w", err)
	}
	return nil
}

func (r *FingerprintRepositoryImpl) DeleteOrphanedBefore(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM fingerprints
		WHERE content_id IS NULL AND created_at < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned fingerprints: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted fingerprint count: %w", err)
	}
	return deleted, nil
}
