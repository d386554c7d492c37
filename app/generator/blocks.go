package generator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/wanderpress/wanderpress/app/database"
	"github.com/wanderpress/wanderpress/app/images"
)

// textSections is the number of body text blocks the article is split
// into, each followed by an image slot.
const textSections = 3

// AssembleBlocks lays the generated article out as the fixed block
// sequence the frontend renders: hero, highlights, three text sections
// each followed by an image slot, then tips, faq and the closing cta.
func AssembleBlocks(article *GeneratedArticle, hero *images.Image) []database.ContentBlock {
	var blocks []database.ContentBlock

	heroData := map[string]any{
		"title":    article.Title,
		"subtitle": article.MetaDescription,
	}
	if hero != nil {
		heroData["imageUrl"] = hero.URL
		heroData["imageAlt"] = hero.AltText
	}
	blocks = append(blocks, newBlock("hero", heroData))

	blocks = append(blocks, newBlock("highlights", map[string]any{
		"title": "Quick Facts",
		"items": toAnySlice(article.QuickFacts),
	}))

	sections := splitContent(article.Content, textSections)
	for i, section := range sections {
		blocks = append(blocks, newBlock("text", map[string]any{
			"content": section,
		}))
		blocks = append(blocks, newBlock("image", map[string]any{
			"searchTerm": imageTermForSection(article, i),
			"alt":        article.Title,
		}))
	}

	tipsData := map[string]any{
		"title": "Pro Tips",
		"tips":  toAnySlice(article.ProTips),
	}
	if len(article.Warnings) > 0 {
		tipsData["warnings"] = toAnySlice(article.Warnings)
	}
	blocks = append(blocks, newBlock("tips", tipsData))

	faqItems := make([]any, 0, len(article.Faqs))
	for _, faq := range article.Faqs {
		faqItems = append(faqItems, map[string]any{
			"question": faq.Question,
			"answer":   faq.Answer,
		})
	}
	blocks = append(blocks, newBlock("faq", map[string]any{
		"title": "Frequently Asked Questions",
		"items": faqItems,
	}))

	blocks = append(blocks, newBlock("cta", map[string]any{
		"title":      "Planning Your Trip?",
		"text":       "Explore more Dubai guides, deals and insider tips.",
		"buttonText": "Browse Guides",
	}))

	for i := range blocks {
		blocks[i].Order = i
	}

	return blocks
}

func newBlock(blockType string, data map[string]any) database.ContentBlock {
	return database.ContentBlock{
		ID:   "block_" + uuid.New().String()[:8],
		Type: blockType,
		Data: data,
	}
}

// splitContent divides the body into n roughly equal runs of paragraphs.
// Fewer paragraphs than sections yields fewer sections, never empty ones.
func splitContent(content string, n int) []string {
	var paragraphs []string
	for _, p := range strings.Split(content, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}
	if len(paragraphs) <= n {
		return paragraphs
	}

	sections := make([]string, 0, n)
	per := len(paragraphs) / n
	extra := len(paragraphs) % n
	idx := 0
	for i := 0; i < n; i++ {
		size := per
		if i < extra {
			size++
		}
		sections = append(sections, strings.Join(paragraphs[idx:idx+size], "\n\n"))
		idx += size
	}

	return sections
}

func imageTermForSection(article *GeneratedArticle, i int) string {
	if i < len(article.ImageSearchTerms) {
		return article.ImageSearchTerms[i]
	}
	if i < len(article.SecondaryKeywords) {
		return article.SecondaryKeywords[i]
	}
	return article.Title
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// Slugify turns a title into a URL slug: lowercase, alphanumeric runs
// joined by single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// uniqueSlug appends a short random suffix, used when the plain slug
// collides with an existing one.
func uniqueSlug(slug string) string {
	return fmt.Sprintf("%s-%s", slug, uuid.New().String()[:6])
}
