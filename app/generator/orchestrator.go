package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wanderpress/wanderpress/app/database"
	"github.com/wanderpress/wanderpress/app/images"
)

// maxAttempts bounds generation calls per cluster, including the first.
const maxAttempts = 3

// attemptTemperatures lowers the sampling temperature on each retry to
// push the model toward contract compliance.
var attemptTemperatures = [maxAttempts]float64{0.7, 0.4, 0.2}

// Orchestrator turns pending topic clusters into published articles:
// generate, validate, retry with feedback, assemble blocks, persist, then
// hand the new content off for translation.
type Orchestrator struct {
	gen             TextGenerator
	imageResolver   images.Resolver
	clusterRepo     database.ClusterRepository
	contentRepo     database.ContentRepository
	fingerprintRepo database.FingerprintRepository
	genTimeout      time.Duration

	// enqueueTranslation schedules the translation fan-out for freshly
	// merged content. Optional.
	enqueueTranslation func(contentID string)
}

func NewOrchestrator(gen TextGenerator, imageResolver images.Resolver,
	clusterRepo database.ClusterRepository, contentRepo database.ContentRepository,
	fingerprintRepo database.FingerprintRepository, genTimeout time.Duration,
	enqueueTranslation func(contentID string)) *Orchestrator {
	return &Orchestrator{
		gen:                gen,
		imageResolver:      imageResolver,
		clusterRepo:        clusterRepo,
		contentRepo:        contentRepo,
		fingerprintRepo:    fingerprintRepo,
		genTimeout:         genTimeout,
		enqueueTranslation: enqueueTranslation,
	}
}

// ProcessPendingClusters runs the generation pass over every pending
// cluster. A failed cluster stays pending for the next pass; failures are
// collected, never propagated, so one bad cluster cannot block the rest.
func (o *Orchestrator) ProcessPendingClusters(ctx context.Context) (int, []string) {
	clusters, err := o.clusterRepo.GetPendingClusters()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to load pending clusters: %v", err)}
	}

	generated := 0
	var errs []string
	for i := range clusters {
		cluster := &clusters[i]

		select {
		case <-ctx.Done():
			errs = append(errs, "generation pass cancelled")
			return generated, errs
		default:
		}

		items, err := o.clusterRepo.GetClusterItems(cluster.ID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("cluster %q: failed to load items: %v", cluster.Topic, err))
			continue
		}
		if len(items) == 0 {
			continue
		}

		article, category, violations := o.generateArticle(ctx, cluster.Topic, items)
		if article == nil {
			errs = append(errs, fmt.Sprintf("cluster %q: generation failed after %d attempts: %s",
				cluster.Topic, maxAttempts, strings.Join(violations, "; ")))
			continue
		}

		if err := o.publish(ctx, cluster, items, article, category); err != nil {
			errs = append(errs, fmt.Sprintf("cluster %q: %v", cluster.Topic, err))
			continue
		}

		generated++
	}

	return generated, errs
}

// generateArticle drives the validate-and-retry loop for one cluster.
// Each rejected attempt is appended to the conversation history together
// with a corrective message naming the violations.
func (o *Orchestrator) generateArticle(ctx context.Context, topic string, items []database.ClusterItem) (*GeneratedArticle, string, []string) {
	digest := buildDigest(items)
	category := ClassifyCategory(topic + " " + digest)
	preamble := systemPrompt(category)

	message := buildUserPrompt(topic, digest, category)
	var history []Message
	var lastViolations []string

	for attempt := 0; attempt < maxAttempts; attempt++ {
		genCtx, cancel := context.WithTimeout(ctx, o.genTimeout)
		raw, err := o.gen.Generate(genCtx, Request{
			Preamble:    preamble,
			Message:     message,
			History:     history,
			Temperature: attemptTemperatures[attempt],
		})
		cancel()
		if err != nil {
			lastViolations = []string{fmt.Sprintf("generation call failed: %v", err)}
			slog.Warn("Generation call failed", "topic", topic, "attempt", attempt+1, "error", err)
			continue
		}

		article, violations := ParseArticle(raw)
		if article != nil {
			violations = article.Validate()
		}
		if len(violations) == 0 {
			slog.Info("Article generated", "topic", topic, "category", category, "attempt", attempt+1)
			return article, category, nil
		}

		slog.Warn("Generated article rejected", "topic", topic, "attempt", attempt+1,
			"violations", strings.Join(violations, "; "))
		lastViolations = violations

		wordCount := 0
		if article != nil {
			wordCount = CountWords(article.Content)
		}
		history = append(history,
			Message{Role: RoleUser, Content: message},
			Message{Role: RoleChatbot, Content: raw},
		)
		message = buildCorrectivePrompt(violations, wordCount)
	}

	return nil, category, lastViolations
}

// publish persists the generated article and finalizes the cluster. The
// merge transition is claimed first, so a concurrent pass that already
// merged the cluster makes this a no-op before any content is written.
func (o *Orchestrator) publish(ctx context.Context, cluster *database.TopicCluster,
	items []database.ClusterItem, article *GeneratedArticle, category string) error {
	contentID := uuid.New().String()

	merged, err := o.clusterRepo.MarkMerged(cluster.ID, contentID)
	if err != nil {
		return fmt.Errorf("failed to mark cluster merged: %w", err)
	}
	if !merged {
		slog.Warn("Cluster already merged by another pass, discarding article", "cluster", cluster.ID)
		return nil
	}

	hero := o.resolveHeroImage(ctx, article, category)

	content := database.Content{
		ID:              contentID,
		Title:           article.Title,
		Slug:            Slugify(article.Title),
		MetaTitle:       article.MetaTitle,
		MetaDescription: article.MetaDescription,
		Blocks:          AssembleBlocks(article, hero),
	}
	if hero != nil {
		content.HeroImageURL = hero.URL
		content.HeroImageAlt = hero.AltText
	}

	if _, err := o.contentRepo.CreateContent(content); err != nil {
		// Slug collision with an earlier article on the same subject.
		content.Slug = uniqueSlug(content.Slug)
		if _, err := o.contentRepo.CreateContent(content); err != nil {
			return fmt.Errorf("failed to store content: %w", err)
		}
	}

	sourceURL := ""
	sourceURLs := make([]string, 0, len(items))
	for _, item := range items {
		sourceURLs = append(sourceURLs, item.SourceURL)
	}
	if len(items) > 0 {
		sourceURL = items[0].SourceURL
	}

	_, err = o.contentRepo.CreateArticleMetadata(database.ArticleMetadata{
		ContentID:         contentID,
		Category:          category,
		UrgencyLevel:      article.UrgencyLevel,
		TargetAudience:    article.TargetAudience,
		QuickFacts:        article.QuickFacts,
		ProTips:           article.ProTips,
		Warnings:          article.Warnings,
		Faq:               article.Faqs,
		SecondaryKeywords: article.SecondaryKeywords,
		SourceURL:         sourceURL,
	})
	if err != nil {
		return fmt.Errorf("failed to store article metadata: %w", err)
	}

	if err := o.fingerprintRepo.AssignContent(sourceURLs, contentID); err != nil {
		slog.Warn("Failed to link fingerprints to content", "content_id", contentID, "error", err)
	}
	if err := o.clusterRepo.MarkItemsUsed(cluster.ID); err != nil {
		slog.Warn("Failed to flag cluster items as used", "cluster", cluster.ID, "error", err)
	}

	if o.enqueueTranslation != nil {
		o.enqueueTranslation(contentID)
	}

	return nil
}

// resolveHeroImage walks the search term fallback chain: the model's own
// search terms, then the title, then the strongest secondary keywords,
// finally the bare category. Any resolver failure just moves to the next
// candidate; running out of candidates leaves the article without a hero.
func (o *Orchestrator) resolveHeroImage(ctx context.Context, article *GeneratedArticle, category string) *images.Image {
	if o.imageResolver == nil {
		return nil
	}

	candidates := [][]string{
		article.ImageSearchTerms,
		{article.Title},
	}
	if len(article.SecondaryKeywords) > 0 {
		top := article.SecondaryKeywords
		if len(top) > 3 {
			top = top[:3]
		}
		candidates = append(candidates, top)
	}
	candidates = append(candidates, []string{"dubai " + category})

	for _, terms := range candidates {
		if len(terms) == 0 {
			continue
		}
		img, err := o.imageResolver.Resolve(ctx, terms)
		if err != nil {
			slog.Warn("Hero image lookup failed", "terms", strings.Join(terms, " "), "error", err)
			continue
		}
		if img != nil {
			return img
		}
	}

	slog.Warn("No hero image found", "title", article.Title)
	return nil
}

// buildDigest flattens the cluster's source items into the text the
// model summarizes from.
func buildDigest(items []database.ClusterItem) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.SourceTitle)
		if desc := strings.TrimSpace(item.SourceDescription); desc != "" {
			fmt.Fprintf(&b, "   %s\n", desc)
		}
		fmt.Fprintf(&b, "   Source: %s\n\n", item.SourceURL)
	}
	return strings.TrimSpace(b.String())
}
