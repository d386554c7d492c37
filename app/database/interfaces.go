package database

import (
	"time"
)

type FeedRepository interface {
	GetActiveFeeds() ([]Feed, error)
	GetFeedCount() (int, error)

	UpsertFeed(name, url, category string, isActive bool) (string, error)
	UpdateLastFetched(feedID string, fetchedAt time.Time) error
}

type FingerprintRepository interface {
	Exists(hash string) (bool, error)
	// Record inserts a fingerprint. Re-inserting an existing hash is a
	// silent no-op, never an error.
	Record(fp Fingerprint) error
	// AssignContent links every fingerprint whose source URL appears in
	// sourceURLs to the merged content record.
	AssignContent(sourceURLs []string, contentID string) error
	DeleteOrphanedBefore(cutoff time.Time) (int64, error)
}

// ClusterPatch carries optional cluster field updates. Nil fields are
// left untouched.
type ClusterPatch struct {
	Status          *string
	ArticleCount    *int
	SimilarityScore *int
	MergedContentID *string
}

type ClusterRepository interface {
	GetPendingClusters() ([]TopicCluster, error)
	GetPendingCount() (int, error)
	GetCluster(id string) (*TopicCluster, error)
	GetClusterItems(clusterID string) ([]ClusterItem, error)

	CreateCluster(topic string) (*TopicCluster, error)
	CreateClusterItem(item ClusterItem) (string, error)
	UpdateCluster(id string, patch ClusterPatch) error
	// MarkMerged transitions the cluster from pending to merged only if it
	// is still pending, returning whether the transition happened.
	MarkMerged(id, contentID string) (bool, error)
	MarkItemsUsed(clusterID string) error
	DeleteFinishedBefore(cutoff time.Time) (int64, error)
}

type ContentRepository interface {
	GetContent(id string) (*Content, error)
	CreateContent(c Content) (string, error)
	CreateArticleMetadata(m ArticleMetadata) (string, error)
}

// TranslationPatch carries optional translation field updates. Nil fields
// are left untouched.
type TranslationPatch struct {
	Status          *string
	Title           *string
	MetaTitle       *string
	MetaDescription *string
	Blocks          []ContentBlock
	SourceHash      *string
}

type TranslationRepository interface {
	GetTranslation(contentID, locale string) (*Translation, error)
	// UpsertTranslation inserts or replaces the automated translation for
	// (contentID, locale). Rows flagged as manual overrides are never
	// modified.
	UpsertTranslation(tr Translation) error
	UpdateTranslation(id string, patch TranslationPatch) error
}
