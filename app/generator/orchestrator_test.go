package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wanderpress/wanderpress/app/database"
)

type fakeGen struct {
	responses []string
	requests  []Request
}

func (g *fakeGen) Generate(_ context.Context, req Request) (string, error) {
	g.requests = append(g.requests, req)
	if len(g.requests) > len(g.responses) {
		return "", errors.New("no scripted response left")
	}
	return g.responses[len(g.requests)-1], nil
}

type memClusterRepo struct {
	clusters  map[string]*database.TopicCluster
	items     map[string][]database.ClusterItem
	itemsUsed map[string]bool
}

func newMemClusterRepo() *memClusterRepo {
	return &memClusterRepo{
		clusters:  make(map[string]*database.TopicCluster),
		items:     make(map[string][]database.ClusterItem),
		itemsUsed: make(map[string]bool),
	}
}

func (r *memClusterRepo) addCluster(id, topic string, items ...database.ClusterItem) {
	r.clusters[id] = &database.TopicCluster{ID: id, Topic: topic, Status: database.ClusterStatusPending}
	r.items[id] = items
}

func (r *memClusterRepo) GetPendingClusters() ([]database.TopicCluster, error) {
	var pending []database.TopicCluster
	for _, c := range r.clusters {
		if c.Status == database.ClusterStatusPending {
			pending = append(pending, *c)
		}
	}
	return pending, nil
}

func (r *memClusterRepo) GetPendingCount() (int, error) {
	pending, _ := r.GetPendingClusters()
	return len(pending), nil
}

func (r *memClusterRepo) GetCluster(id string) (*database.TopicCluster, error) {
	c, ok := r.clusters[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *memClusterRepo) GetClusterItems(clusterID string) ([]database.ClusterItem, error) {
	return r.items[clusterID], nil
}

func (r *memClusterRepo) CreateCluster(topic string) (*database.TopicCluster, error) {
	return nil, errors.New("not used")
}

func (r *memClusterRepo) CreateClusterItem(item database.ClusterItem) (string, error) {
	return "", errors.New("not used")
}

func (r *memClusterRepo) UpdateCluster(id string, patch database.ClusterPatch) error {
	return nil
}

func (r *memClusterRepo) MarkMerged(id, contentID string) (bool, error) {
	c, ok := r.clusters[id]
	if !ok || c.Status != database.ClusterStatusPending {
		return false, nil
	}
	c.Status = database.ClusterStatusMerged
	c.MergedContentID = &contentID
	return true, nil
}

func (r *memClusterRepo) MarkItemsUsed(clusterID string) error {
	r.itemsUsed[clusterID] = true
	return nil
}

func (r *memClusterRepo) DeleteFinishedBefore(time.Time) (int64, error) { return 0, nil }

type memContentRepo struct {
	contents []database.Content
	metadata []database.ArticleMetadata
}

func (r *memContentRepo) GetContent(id string) (*database.Content, error) {
	for i := range r.contents {
		if r.contents[i].ID == id {
			return &r.contents[i], nil
		}
	}
	return nil, nil
}

func (r *memContentRepo) CreateContent(c database.Content) (string, error) {
	for _, existing := range r.contents {
		if existing.Slug == c.Slug {
			return "", fmt.Errorf("slug %s already exists", c.Slug)
		}
	}
	r.contents = append(r.contents, c)
	return c.ID, nil
}

func (r *memContentRepo) CreateArticleMetadata(m database.ArticleMetadata) (string, error) {
	r.metadata = append(r.metadata, m)
	return "meta-1", nil
}

type memFingerprintRepo struct {
	assigned map[string]string
}

func (r *memFingerprintRepo) Exists(string) (bool, error)          { return false, nil }
func (r *memFingerprintRepo) Record(database.Fingerprint) error    { return nil }
func (r *memFingerprintRepo) DeleteOrphanedBefore(time.Time) (int64, error) { return 0, nil }

func (r *memFingerprintRepo) AssignContent(sourceURLs []string, contentID string) error {
	if r.assigned == nil {
		r.assigned = make(map[string]string)
	}
	for _, url := range sourceURLs {
		r.assigned[url] = contentID
	}
	return nil
}

func mustJSON(t *testing.T, article *GeneratedArticle) string {
	t.Helper()
	raw, err := json.Marshal(article)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestOrchestratorRetriesWithCorrectiveFeedback(t *testing.T) {
	clusterRepo := newMemClusterRepo()
	clusterRepo.addCluster("cluster-1", "Dubai Metro Blue Line opening date announced",
		database.ClusterItem{SourceTitle: "Blue Line opening announced", SourceURL: "https://a.example.com/metro"},
		database.ClusterItem{SourceTitle: "Blue Line date revealed", SourceURL: "https://b.example.com/metro"},
	)
	contentRepo := &memContentRepo{}
	fingerprintRepo := &memFingerprintRepo{}

	gen := &fakeGen{responses: []string{
		"Sure, here is the article you asked for!",
		"{\"title\": \"incomplete\"}",
		mustJSON(t, validArticle()),
	}}

	var enqueued []string
	orch := NewOrchestrator(gen, nil, clusterRepo, contentRepo, fingerprintRepo, time.Minute,
		func(contentID string) { enqueued = append(enqueued, contentID) })

	generated, errs := orch.ProcessPendingClusters(context.Background())

	if generated != 1 {
		t.Fatalf("Expected 1 generated article, got %d (errors: %v)", generated, errs)
	}
	if len(errs) != 0 {
		t.Errorf("Expected no errors, got: %v", errs)
	}

	if len(gen.requests) != 3 {
		t.Fatalf("Expected 3 generation calls, got %d", len(gen.requests))
	}
	wantTemps := []float64{0.7, 0.4, 0.2}
	for i, want := range wantTemps {
		if gen.requests[i].Temperature != want {
			t.Errorf("Call %d: expected temperature %.1f, got %.1f", i+1, want, gen.requests[i].Temperature)
		}
	}

	// Retries carry the conversation and name the violations.
	second := gen.requests[1]
	if len(second.History) != 2 {
		t.Errorf("Expected 2 history turns on second call, got %d", len(second.History))
	}
	if !strings.Contains(second.Message, "rejected") {
		t.Errorf("Expected corrective message on second call, got: %s", second.Message)
	}
	third := gen.requests[2]
	if len(third.History) != 4 {
		t.Errorf("Expected 4 history turns on third call, got %d", len(third.History))
	}

	cluster, _ := clusterRepo.GetCluster("cluster-1")
	if cluster.Status != database.ClusterStatusMerged {
		t.Errorf("Expected cluster merged, got %s", cluster.Status)
	}
	if len(contentRepo.contents) != 1 {
		t.Fatalf("Expected 1 stored content, got %d", len(contentRepo.contents))
	}
	if cluster.MergedContentID == nil || *cluster.MergedContentID != contentRepo.contents[0].ID {
		t.Error("Expected cluster merged_content_id to reference the stored content")
	}
	if len(contentRepo.contents[0].Blocks) == 0 {
		t.Error("Expected stored content to carry assembled blocks")
	}
	if len(contentRepo.metadata) != 1 {
		t.Errorf("Expected 1 metadata row, got %d", len(contentRepo.metadata))
	}

	if !clusterRepo.itemsUsed["cluster-1"] {
		t.Error("Expected cluster items flagged as used")
	}
	if fingerprintRepo.assigned["https://a.example.com/metro"] != contentRepo.contents[0].ID {
		t.Error("Expected source fingerprints linked to the content")
	}
	if len(enqueued) != 1 || enqueued[0] != contentRepo.contents[0].ID {
		t.Errorf("Expected one translation enqueue for the content, got %v", enqueued)
	}
}

func TestOrchestratorPublishesWithoutTranslationCallback(t *testing.T) {
	clusterRepo := newMemClusterRepo()
	clusterRepo.addCluster("cluster-1", "Dubai Metro Blue Line opening date announced",
		database.ClusterItem{SourceTitle: "Blue Line opening announced", SourceURL: "https://a.example.com/metro"},
	)
	contentRepo := &memContentRepo{}

	gen := &fakeGen{responses: []string{mustJSON(t, validArticle())}}

	// No translator configured: the article must still publish, and no
	// translation enqueue must happen.
	orch := NewOrchestrator(gen, nil, clusterRepo, contentRepo, &memFingerprintRepo{}, time.Minute, nil)

	generated, errs := orch.ProcessPendingClusters(context.Background())

	if generated != 1 {
		t.Fatalf("Expected 1 generated article, got %d (errors: %v)", generated, errs)
	}
	cluster, _ := clusterRepo.GetCluster("cluster-1")
	if cluster.Status != database.ClusterStatusMerged {
		t.Errorf("Expected cluster merged, got %s", cluster.Status)
	}
	if len(contentRepo.contents) != 1 {
		t.Errorf("Expected 1 stored content, got %d", len(contentRepo.contents))
	}
}

func TestOrchestratorGivesUpAfterMaxAttempts(t *testing.T) {
	clusterRepo := newMemClusterRepo()
	clusterRepo.addCluster("cluster-1", "Dubai hotel news",
		database.ClusterItem{SourceTitle: "Hotel news", SourceURL: "https://example.com/hotel"},
	)
	contentRepo := &memContentRepo{}

	gen := &fakeGen{responses: []string{"nope", "still nope", "nope again"}}

	orch := NewOrchestrator(gen, nil, clusterRepo, contentRepo, &memFingerprintRepo{}, time.Minute, nil)

	generated, errs := orch.ProcessPendingClusters(context.Background())

	if generated != 0 {
		t.Errorf("Expected 0 generated articles, got %d", generated)
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "after 3 attempts") {
		t.Errorf("Expected one give-up error, got: %v", errs)
	}
	if len(gen.requests) != 3 {
		t.Errorf("Expected exactly 3 generation calls, got %d", len(gen.requests))
	}

	// The cluster survives for the next pass.
	cluster, _ := clusterRepo.GetCluster("cluster-1")
	if cluster.Status != database.ClusterStatusPending {
		t.Errorf("Expected cluster still pending, got %s", cluster.Status)
	}
	if len(contentRepo.contents) != 0 {
		t.Errorf("Expected no stored content, got %d", len(contentRepo.contents))
	}
}

func TestOrchestratorSkipsEmptyClusters(t *testing.T) {
	clusterRepo := newMemClusterRepo()
	clusterRepo.addCluster("cluster-1", "Topic without items")

	gen := &fakeGen{}
	orch := NewOrchestrator(gen, nil, clusterRepo, &memContentRepo{}, &memFingerprintRepo{}, time.Minute, nil)

	generated, errs := orch.ProcessPendingClusters(context.Background())

	if generated != 0 || len(errs) != 0 {
		t.Errorf("Expected quiet skip, got generated=%d errors=%v", generated, errs)
	}
	if len(gen.requests) != 0 {
		t.Errorf("Expected no generation calls for an empty cluster, got %d", len(gen.requests))
	}
}
