package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var _ ClusterRepository = (*ClusterRepositoryImpl)(nil)

type ClusterRepositoryImpl struct {
	db *DB
}

func NewClusterRepository(db *DB) *ClusterRepositoryImpl {
	return &ClusterRepositoryImpl{db: db}
}

const clusterColumns = `id, topic, status, article_count, similarity_score, merged_content_id, created_at, updated_at`

func scanCluster(row interface{ Scan(...any) error }) (*TopicCluster, error) {
	var c TopicCluster
	err := row.Scan(&c.ID, &c.Topic, &c.Status, &c.ArticleCount, &c.SimilarityScore,
		&c.MergedContentID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClusterRepositoryImpl) GetPendingClusters() ([]TopicCluster, error) {
	rows, err := r.db.Query(fmt.Sprintf(`
		SELECT %s FROM topic_clusters
		WHERE status = 'pending'
		ORDER BY created_at
	`, clusterColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to get pending clusters: %w", err)
	}
	defer rows.Close()

	var clusters []TopicCluster
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster row: %w", err)
		}
		clusters = append(clusters, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cluster rows: %w", err)
	}

	return clusters, nil
}

func (r *ClusterRepositoryImpl) GetPendingCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM topic_clusters WHERE status = 'pending'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending cluster count: %w", err)
	}
	return count, nil
}

func (r *ClusterRepositoryImpl) GetCluster(id string) (*TopicCluster, error) {
	c, err := scanCluster(r.db.QueryRow(fmt.Sprintf(`
		SELECT %s FROM topic_clusters WHERE id = ?
	`, clusterColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster: %w", err)
	}
	return c, nil
}

func (r *ClusterRepositoryImpl) GetClusterItems(clusterID string) ([]ClusterItem, error) {
	rows, err := r.db.Query(`
		SELECT id, cluster_id, source_title, source_description, source_url, pub_date, is_used_in_merge, created_at
		FROM cluster_items
		WHERE cluster_id = ?
		ORDER BY created_at
	`, clusterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster items: %w", err)
	}
	defer rows.Close()

	var items []ClusterItem
	for rows.Next() {
		var item ClusterItem
		err := rows.Scan(&item.ID, &item.ClusterID, &item.SourceTitle, &item.SourceDescription,
			&item.SourceURL, &item.PubDate, &item.IsUsedInMerge, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cluster item rows: %w", err)
	}

	return items, nil
}

func (r *ClusterRepositoryImpl) CreateCluster(topic string) (*TopicCluster, error) {
	id := uuid.New().String()

	_, err := r.db.Exec(`
		INSERT INTO topic_clusters (id, topic, status, article_count, similarity_score)
		VALUES (?, ?, 'pending', 0, 0)
	`, id, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster: %w", err)
	}

	return r.GetCluster(id)
}

func (r *ClusterRepositoryImpl) CreateClusterItem(item ClusterItem) (string, error) {
	id := item.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO cluster_items (id, cluster_id, source_title, source_description, source_url, pub_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, item.ClusterID, item.SourceTitle, item.SourceDescription, item.SourceURL, item.PubDate)
	if err != nil {
		return "", fmt.Errorf("failed to create cluster item: %w", err)
	}

	return id, nil
}

// UpdateCluster applies a partial update. The SET clause is built
// dynamically from the non-nil patch fields.
func (r *ClusterRepositoryImpl) UpdateCluster(id string, patch ClusterPatch) error {
	builder := sq.Update("topic_clusters").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})

	if patch.Status != nil {
		builder = builder.Set("status", *patch.Status)
	}
	if patch.ArticleCount != nil {
		builder = builder.Set("article_count", *patch.ArticleCount)
	}
	if patch.SimilarityScore != nil {
		builder = builder.Set("similarity_score", *patch.SimilarityScore)
	}
	if patch.MergedContentID != nil {
		builder = builder.Set("merged_content_id", *patch.MergedContentID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build cluster update: %w", err)
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update cluster: %w", err)
	}
	return nil
}

func (r *ClusterRepositoryImpl) MarkMerged(id, contentID string) (bool, error) {
	// Conditional transition: two overlapping runs can both pick up the
	// same pending cluster, only the first one wins here.
	res, err := r.db.Exec(`
		UPDATE topic_clusters
		SET status = 'merged', merged_content_id = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, contentID, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark cluster merged: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get merged row count: %w", err)
	}
	return affected == 1, nil
}

func (r *ClusterRepositoryImpl) MarkItemsUsed(clusterID string) error {
	_, err := r.db.Exec(`
		UPDATE cluster_items SET is_used_in_merge = 1 WHERE cluster_id = ?
	`, clusterID)
	if err != nil {
		return fmt.Errorf("failed to mark cluster items used: %w", err)
	}
	return nil
}

func (r *ClusterRepositoryImpl) DeleteFinishedBefore(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM topic_clusters
		WHERE status IN ('merged', 'dismissed') AND updated_at < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete finished clusters: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted cluster count: %w", err)
	}
	return deleted, nil
}
