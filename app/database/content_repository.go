package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

var _ ContentRepository = (*ContentRepositoryImpl)(nil)

type ContentRepositoryImpl struct {
	db *DB
}

func NewContentRepository(db *DB) *ContentRepositoryImpl {
	return &ContentRepositoryImpl{db: db}
}

func (r *ContentRepositoryImpl) GetContent(id string) (*Content, error) {
	var c Content
	var blocks string
	err := r.db.QueryRow(`
		SELECT id, type, title, slug, meta_title, meta_description,
		       hero_image_url, hero_image_alt, blocks, status, created_at, updated_at
		FROM contents
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Type, &c.Title, &c.Slug, &c.MetaTitle, &c.MetaDescription,
		&c.HeroImageURL, &c.HeroImageAlt, &blocks, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	if err := unmarshalJSON(blocks, &c.Blocks); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *ContentRepositoryImpl) CreateContent(c Content) (string, error) {
	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}

	blocks, err := marshalJSON(c.Blocks)
	if err != nil {
		return "", err
	}

	contentType := c.Type
	if contentType == "" {
		contentType = "article"
	}
	status := c.Status
	if status == "" {
		status = "published"
	}

	_, err = r.db.Exec(`
		INSERT INTO contents (id, type, title, slug, meta_title, meta_description,
			hero_image_url, hero_image_alt, blocks, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, contentType, c.Title, c.Slug, c.MetaTitle, c.MetaDescription,
		c.HeroImageURL, c.HeroImageAlt, blocks, status)
	if err != nil {
		return "", fmt.Errorf("failed to create content: %w", err)
	}

	return id, nil
}

func (r *ContentRepositoryImpl) CreateArticleMetadata(m ArticleMetadata) (string, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}

	audience, err := marshalJSON(m.TargetAudience)
	if err != nil {
		return "", err
	}
	facts, err := marshalJSON(m.QuickFacts)
	if err != nil {
		return "", err
	}
	tips, err := marshalJSON(m.ProTips)
	if err != nil {
		return "", err
	}
	warnings, err := marshalJSON(m.Warnings)
	if err != nil {
		return "", err
	}
	faq, err := marshalJSON(m.Faq)
	if err != nil {
		return "", err
	}
	keywords, err := marshalJSON(m.SecondaryKeywords)
	if err != nil {
		return "", err
	}

	_, err = r.db.Exec(`
		INSERT INTO article_metadata (id, content_id, category, urgency_level,
			target_audience, quick_facts, pro_tips, warnings, faq, secondary_keywords, source_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, m.ContentID, m.Category, m.UrgencyLevel,
		audience, facts, tips, warnings, faq, keywords, m.SourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to create article metadata: %w", err)
	}

	return id, nil
}
