package generator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/wanderpress/wanderpress/app/database"
)

func validArticle() *GeneratedArticle {
	return &GeneratedArticle{
		Title:           "Dubai Metro Blue Line: Everything You Need to Know",
		MetaTitle:       "Dubai Metro Blue Line Guide",
		MetaDescription: "Opening dates, stations and fares for the new Blue Line.",
		Content:         strings.TrimSpace(strings.Repeat("The Blue Line changes how visitors move across the city. ", 100)),
		QuickFacts:      []string{"14 new stations", "Opens 2029", "Links both airports"},
		ProTips:         []string{"Buy a Nol card on arrival", "Avoid rush hour after 5pm"},
		Warnings:        []string{},
		Faqs: []database.FaqItem{
			{Question: "When does the Blue Line open?", Answer: "Planned for 2029."},
			{Question: "Which areas does it serve?", Answer: "Mirdif, Dubai Creek Harbour and more."},
		},
		SecondaryKeywords: []string{"dubai metro", "blue line stations", "nol card"},
		ImageSearchTerms:  []string{"dubai metro train", "dubai skyline transit"},
		UrgencyLevel:      "low",
		TargetAudience:    []string{"first-time visitors", "commuters"},
	}
}

func TestValidateAcceptsCompleteArticle(t *testing.T) {
	article := validArticle()

	words := CountWords(article.Content)
	if words < MinWordCount || words > MaxWordCount {
		t.Fatalf("Test fixture out of range: %d words", words)
	}

	if violations := article.Validate(); len(violations) != 0 {
		t.Errorf("Expected no violations, got: %v", violations)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	article := validArticle()
	article.Faqs = nil
	article.Title = ""

	violations := article.Validate()
	if len(violations) != 2 {
		t.Fatalf("Expected 2 violations, got %d: %v", len(violations), violations)
	}

	joined := strings.Join(violations, "; ")
	if !strings.Contains(joined, "faqs") {
		t.Errorf("Expected a violation naming faqs, got: %s", joined)
	}
	if !strings.Contains(joined, "title") {
		t.Errorf("Expected a violation naming title, got: %s", joined)
	}
}

func TestValidateRejectsWordCountOutOfRange(t *testing.T) {
	short := validArticle()
	short.Content = "Far too short."
	if violations := short.Validate(); len(violations) != 1 || !strings.Contains(violations[0], "words") {
		t.Errorf("Expected a single word count violation, got: %v", violations)
	}

	long := validArticle()
	long.Content = strings.Repeat("word ", MaxWordCount+1)
	if violations := long.Validate(); len(violations) != 1 || !strings.Contains(violations[0], "words") {
		t.Errorf("Expected a single word count violation, got: %v", violations)
	}
}

func TestParseArticleStripsMarkdownFences(t *testing.T) {
	raw, err := json.Marshal(validArticle())
	if err != nil {
		t.Fatal(err)
	}
	fenced := "```json\n" + string(raw) + "\n```"

	article, violations := ParseArticle(fenced)
	if article == nil {
		t.Fatalf("Expected parsed article, got violations: %v", violations)
	}
	if article.Title != "Dubai Metro Blue Line: Everything You Need to Know" {
		t.Errorf("Unexpected title: %s", article.Title)
	}
}

func TestParseArticleReportsInvalidJSON(t *testing.T) {
	article, violations := ParseArticle("Sure! Here is your article about the Blue Line...")
	if article != nil {
		t.Error("Expected nil article for prose response")
	}
	if len(violations) != 1 || !strings.Contains(violations[0], "JSON") {
		t.Errorf("Expected a JSON violation, got: %v", violations)
	}
}
