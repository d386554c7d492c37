package aggregator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wanderpress/wanderpress/app/database"
	"github.com/wanderpress/wanderpress/app/feed"
)

// SimilarityThreshold is the minimum token Jaccard similarity between an
// incoming title and a cluster topic for the item to join the cluster.
const SimilarityThreshold = 0.5

// maxSimilarityScore caps the cluster confidence score.
const maxSimilarityScore = 90

// Clusterer groups incoming feed items into topic clusters by title
// similarity. The scan is greedy: the first sufficiently similar pending
// cluster wins, in insertion order.
type Clusterer struct {
	clusterRepo database.ClusterRepository
}

func NewClusterer(clusterRepo database.ClusterRepository) *Clusterer {
	return &Clusterer{clusterRepo: clusterRepo}
}

// FindSimilarCluster returns the first pending cluster whose topic is
// similar enough to title, or nil if none qualifies.
func (c *Clusterer) FindSimilarCluster(title string) (*database.TopicCluster, error) {
	clusters, err := c.clusterRepo.GetPendingClusters()
	if err != nil {
		return nil, fmt.Errorf("failed to load pending clusters: %w", err)
	}

	return matchCluster(clusters, title), nil
}

func matchCluster(pending []database.TopicCluster, title string) *database.TopicCluster {
	for i := range pending {
		if TitleSimilarity(pending[i].Topic, title) >= SimilarityThreshold {
			return &pending[i]
		}
	}
	return nil
}

// AddItem appends a feed item to the cluster, recomputes the article count
// from the stored items, and updates the confidence score.
func (c *Clusterer) AddItem(clusterID string, item feed.Item) error {
	_, err := c.clusterRepo.CreateClusterItem(database.ClusterItem{
		ClusterID:         clusterID,
		SourceTitle:       item.Title,
		SourceDescription: item.Description,
		SourceURL:         item.Link,
		PubDate:           item.PubDate,
	})
	if err != nil {
		return fmt.Errorf("failed to store cluster item: %w", err)
	}

	items, err := c.clusterRepo.GetClusterItems(clusterID)
	if err != nil {
		return fmt.Errorf("failed to count cluster items: %w", err)
	}

	count := len(items)
	score := ClusterScore(count)
	err = c.clusterRepo.UpdateCluster(clusterID, database.ClusterPatch{
		ArticleCount:    &count,
		SimilarityScore: &score,
	})
	if err != nil {
		return fmt.Errorf("failed to update cluster stats: %w", err)
	}

	return nil
}

// ClusterScore maps an article count to the cluster confidence score:
// 50 for a single item, +10 per additional item, capped at 90.
func ClusterScore(articleCount int) int {
	if articleCount < 1 {
		return 0
	}
	score := 50 + 10*(articleCount-1)
	if score > maxSimilarityScore {
		return maxSimilarityScore
	}
	return score
}

// TitleSimilarity computes the Jaccard similarity of the two titles'
// lowercased token sets.
func TitleSimilarity(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}

	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[field] = struct{}{}
	}
	return tokens
}
