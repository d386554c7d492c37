package aggregator

import (
	"fmt"
	"time"

	"github.com/wanderpress/wanderpress/app/database"
)

type fakeFeedRepo struct {
	feeds       []database.Feed
	lastFetched map[string]time.Time
}

func newFakeFeedRepo(feeds ...database.Feed) *fakeFeedRepo {
	return &fakeFeedRepo{feeds: feeds, lastFetched: make(map[string]time.Time)}
}

func (r *fakeFeedRepo) GetActiveFeeds() ([]database.Feed, error) {
	var active []database.Feed
	for _, f := range r.feeds {
		if f.IsActive {
			active = append(active, f)
		}
	}
	return active, nil
}

func (r *fakeFeedRepo) GetFeedCount() (int, error) { return len(r.feeds), nil }

func (r *fakeFeedRepo) UpsertFeed(name, url, category string, isActive bool) (string, error) {
	id := fmt.Sprintf("feed-%d", len(r.feeds)+1)
	r.feeds = append(r.feeds, database.Feed{ID: id, Name: name, URL: url, Category: category, IsActive: isActive})
	return id, nil
}

func (r *fakeFeedRepo) UpdateLastFetched(feedID string, fetchedAt time.Time) error {
	r.lastFetched[feedID] = fetchedAt
	return nil
}

type fakeFingerprintRepo struct {
	records map[string]database.Fingerprint
}

func newFakeFingerprintRepo() *fakeFingerprintRepo {
	return &fakeFingerprintRepo{records: make(map[string]database.Fingerprint)}
}

func (r *fakeFingerprintRepo) Exists(hash string) (bool, error) {
	_, ok := r.records[hash]
	return ok, nil
}

func (r *fakeFingerprintRepo) Record(fp database.Fingerprint) error {
	if _, ok := r.records[fp.Hash]; ok {
		return nil
	}
	r.records[fp.Hash] = fp
	return nil
}

func (r *fakeFingerprintRepo) AssignContent(sourceURLs []string, contentID string) error {
	for hash, fp := range r.records {
		for _, url := range sourceURLs {
			if fp.SourceURL == url {
				fp.ContentID = &contentID
				r.records[hash] = fp
			}
		}
	}
	return nil
}

func (r *fakeFingerprintRepo) DeleteOrphanedBefore(cutoff time.Time) (int64, error) {
	var deleted int64
	for hash, fp := range r.records {
		if fp.ContentID == nil && fp.CreatedAt.Before(cutoff) {
			delete(r.records, hash)
			deleted++
		}
	}
	return deleted, nil
}

type fakeClusterRepo struct {
	clusters map[string]*database.TopicCluster
	order    []string
	items    map[string][]database.ClusterItem
	nextID   int
}

func newFakeClusterRepo() *fakeClusterRepo {
	return &fakeClusterRepo{
		clusters: make(map[string]*database.TopicCluster),
		items:    make(map[string][]database.ClusterItem),
	}
}

func (r *fakeClusterRepo) GetPendingClusters() ([]database.TopicCluster, error) {
	var pending []database.TopicCluster
	for _, id := range r.order {
		if c := r.clusters[id]; c.Status == database.ClusterStatusPending {
			pending = append(pending, *c)
		}
	}
	return pending, nil
}

func (r *fakeClusterRepo) GetPendingCount() (int, error) {
	pending, _ := r.GetPendingClusters()
	return len(pending), nil
}

func (r *fakeClusterRepo) GetCluster(id string) (*database.TopicCluster, error) {
	c, ok := r.clusters[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeClusterRepo) GetClusterItems(clusterID string) ([]database.ClusterItem, error) {
	return r.items[clusterID], nil
}

func (r *fakeClusterRepo) CreateCluster(topic string) (*database.TopicCluster, error) {
	r.nextID++
	cluster := &database.TopicCluster{
		ID:     fmt.Sprintf("cluster-%d", r.nextID),
		Topic:  topic,
		Status: database.ClusterStatusPending,
	}
	r.clusters[cluster.ID] = cluster
	r.order = append(r.order, cluster.ID)
	copied := *cluster
	return &copied, nil
}

func (r *fakeClusterRepo) CreateClusterItem(item database.ClusterItem) (string, error) {
	item.ID = fmt.Sprintf("item-%d", len(r.items[item.ClusterID])+1)
	r.items[item.ClusterID] = append(r.items[item.ClusterID], item)
	return item.ID, nil
}

func (r *fakeClusterRepo) UpdateCluster(id string, patch database.ClusterPatch) error {
	c, ok := r.clusters[id]
	if !ok {
		return fmt.Errorf("cluster %s not found", id)
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.ArticleCount != nil {
		c.ArticleCount = *patch.ArticleCount
	}
	if patch.SimilarityScore != nil {
		c.SimilarityScore = *patch.SimilarityScore
	}
	if patch.MergedContentID != nil {
		c.MergedContentID = patch.MergedContentID
	}
	return nil
}

func (r *fakeClusterRepo) MarkMerged(id, contentID string) (bool, error) {
	c, ok := r.clusters[id]
	if !ok || c.Status != database.ClusterStatusPending {
		return false, nil
	}
	c.Status = database.ClusterStatusMerged
	c.MergedContentID = &contentID
	return true, nil
}

func (r *fakeClusterRepo) MarkItemsUsed(clusterID string) error {
	items := r.items[clusterID]
	for i := range items {
		items[i].IsUsedInMerge = true
	}
	return nil
}

func (r *fakeClusterRepo) DeleteFinishedBefore(cutoff time.Time) (int64, error) {
	var deleted int64
	for id, c := range r.clusters {
		if c.Status != database.ClusterStatusPending && c.UpdatedAt.Before(cutoff) {
			delete(r.clusters, id)
			delete(r.items, id)
			deleted++
		}
	}
	return deleted, nil
}
