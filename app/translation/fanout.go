package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wanderpress/wanderpress/app/database"
)

const (
	// batchSize locales are translated concurrently, then the fan-out
	// pauses before the next batch to stay under provider rate limits.
	batchSize  = 3
	batchPause = time.Second
)

// skippedKeys are block data keys whose string values are never sent for
// translation.
var skippedKeys = map[string]bool{
	"id":         true,
	"url":        true,
	"src":        true,
	"href":       true,
	"link":       true,
	"imageUrl":   true,
	"buttonUrl":  true,
	"searchTerm": true,
}

// Result summarizes one fan-out run over all target locales.
type Result struct {
	ContentID    string   `json:"contentId"`
	SuccessCount int      `json:"successCount"`
	FailedCount  int      `json:"failedCount"`
	SkippedCount int      `json:"skippedCount"`
	Errors       []string `json:"errors,omitempty"`
}

// Fanout translates one content record into every target locale. Locales
// flagged as manual overrides are left alone, as are locales whose stored
// source hash already matches the current content.
type Fanout struct {
	translator      Translator
	contentRepo     database.ContentRepository
	translationRepo database.TranslationRepository
}

func NewFanout(translator Translator, contentRepo database.ContentRepository,
	translationRepo database.TranslationRepository) *Fanout {
	return &Fanout{
		translator:      translator,
		contentRepo:     contentRepo,
		translationRepo: translationRepo,
	}
}

// TranslateContent runs the fan-out for one content ID. Per-locale
// failures are collected in the result; only a missing content record or
// a cancelled context aborts the run.
func (f *Fanout) TranslateContent(ctx context.Context, contentID string) (*Result, error) {
	content, err := f.contentRepo.GetContent(contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	if content == nil {
		return nil, fmt.Errorf("content %s not found", contentID)
	}

	sourceHash := SourceHash(content)
	result := &Result{ContentID: contentID}
	var mu sync.Mutex

	locales := TargetLocales()
	for start := 0; start < len(locales); start += batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(batchPause):
			}
		}

		end := start + batchSize
		if end > len(locales) {
			end = len(locales)
		}

		var wg sync.WaitGroup
		for _, locale := range locales[start:end] {
			wg.Add(1)
			go func(locale Locale) {
				defer wg.Done()

				outcome, err := f.translateLocale(ctx, content, locale, sourceHash)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					result.FailedCount++
					result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", locale.Code, err))
				case outcome == outcomeSkipped:
					result.SkippedCount++
				default:
					result.SuccessCount++
				}
			}(locale)
		}
		wg.Wait()
	}

	slog.Info("Translation fan-out completed", "content_id", contentID,
		"succeeded", result.SuccessCount, "failed", result.FailedCount, "skipped", result.SkippedCount)

	return result, nil
}

type localeOutcome int

const (
	outcomeTranslated localeOutcome = iota
	outcomeSkipped
)

func (f *Fanout) translateLocale(ctx context.Context, content *database.Content,
	locale Locale, sourceHash string) (localeOutcome, error) {
	existing, err := f.translationRepo.GetTranslation(content.ID, locale.Code)
	if err != nil {
		return outcomeTranslated, fmt.Errorf("failed to load existing translation: %w", err)
	}
	if existing != nil {
		if existing.IsManualOverride {
			return outcomeSkipped, nil
		}
		if existing.SourceHash == sourceHash && existing.Status == database.TranslationStatusCompleted {
			return outcomeSkipped, nil
		}
	}

	blocks, err := copyBlocks(content.Blocks)
	if err != nil {
		return outcomeTranslated, err
	}

	texts := []string{content.Title, content.MetaTitle, content.MetaDescription}
	collectBlockStrings(blocks, &texts)

	translated, err := f.translator.Translate(ctx, texts, locale)
	if err != nil {
		f.markFailed(content.ID, locale.Code)
		return outcomeTranslated, err
	}

	cursor := 0
	next := func() string {
		s := translated[cursor]
		cursor++
		return s
	}
	title, metaTitle, metaDescription := next(), next(), next()
	applyBlockStrings(blocks, next)

	err = f.translationRepo.UpsertTranslation(database.Translation{
		ContentID:       content.ID,
		Locale:          locale.Code,
		Status:          database.TranslationStatusCompleted,
		Title:           title,
		MetaTitle:       metaTitle,
		MetaDescription: metaDescription,
		Blocks:          blocks,
		SourceHash:      sourceHash,
	})
	if err != nil {
		return outcomeTranslated, fmt.Errorf("failed to store translation: %w", err)
	}

	return outcomeTranslated, nil
}

// markFailed records the failed status for visibility. An existing row
// keeps its translated fields: a stale-but-readable translation beats an
// empty one, and the next successful run replaces it anyway.
func (f *Fanout) markFailed(contentID, locale string) {
	existing, err := f.translationRepo.GetTranslation(contentID, locale)
	if err != nil {
		slog.Warn("Failed to record translation failure", "content_id", contentID, "locale", locale, "error", err)
		return
	}

	status := database.TranslationStatusFailed
	if existing != nil {
		err = f.translationRepo.UpdateTranslation(existing.ID, database.TranslationPatch{Status: &status})
	} else {
		err = f.translationRepo.UpsertTranslation(database.Translation{
			ContentID: contentID,
			Locale:    locale,
			Status:    status,
		})
	}
	if err != nil {
		slog.Warn("Failed to record translation failure", "content_id", contentID, "locale", locale, "error", err)
	}
}

// SourceHash fingerprints the translatable fields of a content record.
// Stored alongside each translation, it makes re-runs on unchanged
// content a no-op.
func SourceHash(content *database.Content) string {
	blocks, err := json.Marshal(content.Blocks)
	if err != nil {
		blocks = nil
	}

	h := sha256.New()
	h.Write([]byte(content.Title))
	h.Write([]byte{'|'})
	h.Write([]byte(content.MetaTitle))
	h.Write([]byte{'|'})
	h.Write([]byte(content.MetaDescription))
	h.Write([]byte{'|'})
	h.Write(blocks)
	return hex.EncodeToString(h.Sum(nil))
}

// copyBlocks deep-copies blocks through JSON so translated values can be
// written back without touching the source.
func copyBlocks(blocks []database.ContentBlock) ([]database.ContentBlock, error) {
	raw, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to copy blocks: %w", err)
	}
	var out []database.ContentBlock
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to copy blocks: %w", err)
	}
	return out, nil
}

func collectBlockStrings(blocks []database.ContentBlock, texts *[]string) {
	for i := range blocks {
		walkData(blocks[i].Data, "", func(s string) string {
			*texts = append(*texts, s)
			return s
		})
	}
}

func applyBlockStrings(blocks []database.ContentBlock, next func() string) {
	for i := range blocks {
		walkData(blocks[i].Data, "", func(string) string {
			return next()
		})
	}
}

// walkData visits every translatable string in a block data tree in a
// deterministic order, replacing each with the visitor's return value.
// Keys in skippedKeys and URL-shaped values are left untouched.
func walkData(data map[string]any, _ string, visit func(string) string) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		data[k] = walkValue(data[k], k, visit)
	}
}

func walkValue(v any, key string, visit func(string) string) any {
	switch val := v.(type) {
	case string:
		if skippedKeys[key] || strings.HasPrefix(val, "http://") || strings.HasPrefix(val, "https://") {
			return val
		}
		if strings.TrimSpace(val) == "" {
			return val
		}
		return visit(val)
	case map[string]any:
		walkData(val, key, visit)
		return val
	case []any:
		for i := range val {
			val[i] = walkValue(val[i], key, visit)
		}
		return val
	default:
		return val
	}
}
