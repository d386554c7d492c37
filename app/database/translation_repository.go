package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var _ TranslationRepository = (*TranslationRepositoryImpl)(nil)

type TranslationRepositoryImpl struct {
	db *DB
}

func NewTranslationRepository(db *DB) *TranslationRepositoryImpl {
	return &TranslationRepositoryImpl{db: db}
}

func (r *TranslationRepositoryImpl) GetTranslation(contentID, locale string) (*Translation, error) {
	var tr Translation
	var blocks string
	err := r.db.QueryRow(`
		SELECT id, content_id, locale, status, title, meta_title, meta_description,
		       blocks, source_hash, is_manual_override, created_at, updated_at
		FROM translations
		WHERE content_id = ? AND locale = ?
	`, contentID, locale).Scan(&tr.ID, &tr.ContentID, &tr.Locale, &tr.Status,
		&tr.Title, &tr.MetaTitle, &tr.MetaDescription, &blocks, &tr.SourceHash,
		&tr.IsManualOverride, &tr.CreatedAt, &tr.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get translation: %w", err)
	}

	if err := unmarshalJSON(blocks, &tr.Blocks); err != nil {
		return nil, err
	}

	return &tr, nil
}

func (r *TranslationRepositoryImpl) UpsertTranslation(tr Translation) error {
	id := tr.ID
	if id == "" {
		id = uuid.New().String()
	}

	blocks, err := marshalJSON(tr.Blocks)
	if err != nil {
		return err
	}

	// The conditional update leaves manual overrides untouched even if the
	// caller skipped the override check.
	_, err = r.db.Exec(`
		INSERT INTO translations (id, content_id, locale, status, title, meta_title,
			meta_description, blocks, source_hash, is_manual_override)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT (content_id, locale) DO UPDATE SET
			status = excluded.status,
			title = excluded.title,
			meta_title = excluded.meta_title,
			meta_description = excluded.meta_description,
			blocks = excluded.blocks,
			source_hash = excluded.source_hash,
			updated_at = CURRENT_TIMESTAMP
		WHERE translations.is_manual_override = 0
	`, id, tr.ContentID, tr.Locale, tr.Status, tr.Title, tr.MetaTitle,
		tr.MetaDescription, blocks, tr.SourceHash)
	if err != nil {
		return fmt.Errorf("failed to upsert translation: %w", err)
	}

	return nil
}

// UpdateTranslation applies a partial update. The SET clause is built
// dynamically from the non-nil patch fields.
func (r *TranslationRepositoryImpl) UpdateTranslation(id string, patch TranslationPatch) error {
	builder := sq.Update("translations").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})

	if patch.Status != nil {
		builder = builder.Set("status", *patch.Status)
	}
	if patch.Title != nil {
		builder = builder.Set("title", *patch.Title)
	}
	if patch.MetaTitle != nil {
		builder = builder.Set("meta_title", *patch.MetaTitle)
	}
	if patch.MetaDescription != nil {
		builder = builder.Set("meta_description", *patch.MetaDescription)
	}
	if patch.Blocks != nil {
		blocks, err := marshalJSON(patch.Blocks)
		if err != nil {
			return err
		}
		builder = builder.Set("blocks", blocks)
	}
	if patch.SourceHash != nil {
		builder = builder.Set("source_hash", *patch.SourceHash)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build translation update: %w", err)
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update translation: %w", err)
	}
	return nil
}
