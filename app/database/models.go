package database

import (
	"time"
)

type Feed struct {
	ID                   string // Database UUID
	Name                 string // Identifier derived from the definition filename
	URL                  string // RSS/Atom feed URL
	Category             string // Default article category for items from this feed
	IsActive             bool
	LastFetchedAt        *time.Time
	FetchIntervalMinutes int
	CreatedAt            time.Time
}

// Fingerprint is the content-addressed record of an ingested feed item.
// The hash is computed from the normalized title+url pair and never changes.
type Fingerprint struct {
	Hash        string
	SourceURL   string
	SourceTitle string
	FeedID      string
	ContentID   *string // set once the owning cluster is merged
	CreatedAt   time.Time
}

const (
	ClusterStatusPending   = "pending"
	ClusterStatusMerged    = "merged"
	ClusterStatusDismissed = "dismissed"
)

type TopicCluster struct {
	ID              string
	Topic           string // representative title
	Status          string
	ArticleCount    int
	SimilarityScore int // 0-90
	MergedContentID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ClusterItem struct {
	ID                string
	ClusterID         string
	SourceTitle       string
	SourceDescription string
	SourceURL         string
	PubDate           *time.Time
	IsUsedInMerge     bool
	CreatedAt         time.Time
}

// ContentBlock is one unit of the block-based article body, stored as JSON.
type ContentBlock struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Data  map[string]any `json:"data"`
	Order int            `json:"order"`
}

type FaqItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Content struct {
	ID              string
	Type            string
	Title           string
	Slug            string
	MetaTitle       string
	MetaDescription string
	HeroImageURL    string
	HeroImageAlt    string
	Blocks          []ContentBlock
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ArticleMetadata struct {
	ID                string
	ContentID         string
	Category          string
	UrgencyLevel      string
	TargetAudience    []string
	QuickFacts        []string
	ProTips           []string
	Warnings          []string
	Faq               []FaqItem
	SecondaryKeywords []string
	SourceURL         string
}

const (
	TranslationStatusPending   = "pending"
	TranslationStatusCompleted = "completed"
	TranslationStatusFailed    = "failed"
)

type Translation struct {
	ID               string
	ContentID        string
	Locale           string
	Status           string
	Title            string
	MetaTitle        string
	MetaDescription  string
	Blocks           []ContentBlock
	SourceHash       string
	IsManualOverride bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
