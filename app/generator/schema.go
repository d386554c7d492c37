package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wanderpress/wanderpress/app/database"
)

// Word count bounds for the article body.
const (
	MinWordCount = 800
	MaxWordCount = 1800
)

// GeneratedArticle is the structured payload the model must return. Field
// names match the JSON contract stated in the system prompt.
type GeneratedArticle struct {
	Title             string             `json:"title"`
	MetaTitle         string             `json:"metaTitle"`
	MetaDescription   string             `json:"metaDescription"`
	Content           string             `json:"content"`
	QuickFacts        []string           `json:"quickFacts"`
	ProTips           []string           `json:"proTips"`
	Warnings          []string           `json:"warnings"`
	Faqs              []database.FaqItem `json:"faqs"`
	SecondaryKeywords []string           `json:"secondaryKeywords"`
	ImageSearchTerms  []string           `json:"imageSearchTerms"`
	UrgencyLevel      string             `json:"urgencyLevel"`
	TargetAudience    []string           `json:"targetAudience"`
}

// ParseArticle extracts the structured article from a raw model response.
// Models occasionally wrap JSON in markdown fences despite instructions,
// so fences are stripped before unmarshaling. A parse failure is reported
// as a violation, not an error, so the caller can retry with feedback.
func ParseArticle(raw string) (*GeneratedArticle, []string) {
	cleaned := stripMarkdownFences(raw)

	var article GeneratedArticle
	if err := json.Unmarshal([]byte(cleaned), &article); err != nil {
		return nil, []string{fmt.Sprintf("response is not valid JSON: %v", err)}
	}

	return &article, nil
}

// Validate checks the article against the output contract and returns
// every violation found. An empty slice means the article is acceptable.
func (a *GeneratedArticle) Validate() []string {
	var violations []string

	if strings.TrimSpace(a.Title) == "" {
		violations = append(violations, `missing required field "title"`)
	}
	if strings.TrimSpace(a.Content) == "" {
		violations = append(violations, `missing required field "content"`)
	} else {
		words := CountWords(a.Content)
		if words < MinWordCount || words > MaxWordCount {
			violations = append(violations,
				fmt.Sprintf("content is %d words, must be between %d and %d", words, MinWordCount, MaxWordCount))
		}
	}
	if len(a.QuickFacts) == 0 {
		violations = append(violations, `missing required field "quickFacts"`)
	}
	if len(a.ProTips) == 0 {
		violations = append(violations, `missing required field "proTips"`)
	}
	if a.Warnings == nil {
		violations = append(violations, `missing required field "warnings"`)
	}
	if len(a.Faqs) == 0 {
		violations = append(violations, `missing required field "faqs"`)
	} else {
		for i, faq := range a.Faqs {
			if strings.TrimSpace(faq.Question) == "" || strings.TrimSpace(faq.Answer) == "" {
				violations = append(violations, fmt.Sprintf("faqs[%d] has an empty question or answer", i))
			}
		}
	}
	if len(a.SecondaryKeywords) == 0 {
		violations = append(violations, `missing required field "secondaryKeywords"`)
	}
	if len(a.ImageSearchTerms) == 0 {
		violations = append(violations, `missing required field "imageSearchTerms"`)
	}
	if strings.TrimSpace(a.UrgencyLevel) == "" {
		violations = append(violations, `missing required field "urgencyLevel"`)
	}
	if len(a.TargetAudience) == 0 {
		violations = append(violations, `missing required field "targetAudience"`)
	}

	return violations
}

// CountWords counts whitespace-separated tokens in the article body.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

func stripMarkdownFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
