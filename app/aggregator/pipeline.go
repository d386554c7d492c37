package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wanderpress/wanderpress/app/database"
	"github.com/wanderpress/wanderpress/app/feed"
)

const feedFetchTimeout = 30 * time.Second

// RunSummary aggregates the outcome of one full pipeline pass. Partial
// failures end up in Errors, they never abort the pass.
type RunSummary struct {
	FeedsProcessed    int      `json:"feedsProcessed"`
	ItemsFound        int      `json:"itemsFound"`
	DuplicatesSkipped int      `json:"duplicatesSkipped"`
	ClustersCreated   int      `json:"clustersCreated"`
	ArticlesGenerated int      `json:"articlesGenerated"`
	Errors            []string `json:"errors"`
}

// ArticleGenerator runs the generation pass over all pending clusters.
// Implemented by generator.Orchestrator.
type ArticleGenerator interface {
	ProcessPendingClusters(ctx context.Context) (generated int, errors []string)
}

// Pipeline drives one aggregation cycle: poll every active feed,
// deduplicate by fingerprint, cluster the remainder by title similarity,
// then hand all pending clusters to the article generator.
type Pipeline struct {
	poller          *feed.Poller
	feedRepo        database.FeedRepository
	fingerprintRepo database.FingerprintRepository
	clusterRepo     database.ClusterRepository
	clusterer       *Clusterer
	generator       ArticleGenerator
}

func NewPipeline(poller *feed.Poller, feedRepo database.FeedRepository,
	fingerprintRepo database.FingerprintRepository, clusterRepo database.ClusterRepository,
	generator ArticleGenerator) *Pipeline {
	return &Pipeline{
		poller:          poller,
		feedRepo:        feedRepo,
		fingerprintRepo: fingerprintRepo,
		clusterRepo:     clusterRepo,
		clusterer:       NewClusterer(clusterRepo),
		generator:       generator,
	}
}

// Run executes the ingestion pass followed by the generation pass and
// returns the combined summary.
func (p *Pipeline) Run(ctx context.Context) RunSummary {
	summary := p.RunIngestion(ctx)

	if p.generator != nil {
		generated, errors := p.generator.ProcessPendingClusters(ctx)
		summary.ArticlesGenerated = generated
		summary.Errors = append(summary.Errors, errors...)
	}

	slog.Info("Aggregation pass completed",
		"feeds", summary.FeedsProcessed,
		"items", summary.ItemsFound,
		"duplicates", summary.DuplicatesSkipped,
		"clusters_created", summary.ClustersCreated,
		"articles_generated", summary.ArticlesGenerated,
		"errors", len(summary.Errors))

	return summary
}

// RunIngestion polls every active feed and routes new items into topic
// clusters. Feed items are processed in feed order; pending clusters are
// matched in insertion order.
func (p *Pipeline) RunIngestion(ctx context.Context) RunSummary {
	summary := RunSummary{Errors: []string{}}

	feeds, err := p.feedRepo.GetActiveFeeds()
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to load active feeds: %v", err))
		return summary
	}

	pending, err := p.clusterRepo.GetPendingClusters()
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to load pending clusters: %v", err))
		return summary
	}

	for _, f := range feeds {
		select {
		case <-ctx.Done():
			summary.Errors = append(summary.Errors, "ingestion cancelled")
			return summary
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, feedFetchTimeout)
		items, err := p.poller.Run(fetchCtx, f.URL)
		cancel()
		if err != nil {
			slog.Warn("Feed fetch failed", "feed", f.Name, "error", err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("feed %s: %v", f.Name, err))
			continue
		}

		summary.FeedsProcessed++
		summary.ItemsFound += len(items)

		for _, item := range items {
			created, duplicate, err := p.ingestItem(f.ID, item, &pending)
			if err != nil {
				slog.Warn("Item ingestion failed", "feed", f.Name, "title", item.Title, "error", err)
				continue
			}
			if duplicate {
				summary.DuplicatesSkipped++
			}
			if created {
				summary.ClustersCreated++
			}
		}

		if err := p.feedRepo.UpdateLastFetched(f.ID, time.Now().UTC()); err != nil {
			slog.Warn("Failed to update feed fetch time", "feed", f.Name, "error", err)
		}
	}

	return summary
}

// ingestItem deduplicates one feed item and routes it into a cluster,
// creating a new one when no pending cluster is similar enough. The
// pending slice is kept current so items later in the same pass can join
// clusters created earlier in it.
func (p *Pipeline) ingestItem(feedID string, item feed.Item, pending *[]database.TopicCluster) (created bool, duplicate bool, err error) {
	hash := Fingerprint(item.Title, item.Link)

	exists, err := p.fingerprintRepo.Exists(hash)
	if err != nil {
		return false, false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	if exists {
		return false, true, nil
	}

	err = p.fingerprintRepo.Record(database.Fingerprint{
		Hash:        hash,
		SourceURL:   item.Link,
		SourceTitle: item.Title,
		FeedID:      feedID,
	})
	if err != nil {
		return false, false, fmt.Errorf("failed to record fingerprint: %w", err)
	}

	cluster := matchCluster(*pending, item.Title)
	if cluster == nil {
		newCluster, err := p.clusterRepo.CreateCluster(item.Title)
		if err != nil {
			return false, false, fmt.Errorf("failed to create cluster: %w", err)
		}
		*pending = append(*pending, *newCluster)
		cluster = newCluster
		created = true
	}

	if err := p.clusterer.AddItem(cluster.ID, item); err != nil {
		return created, false, err
	}

	return created, false, nil
}
