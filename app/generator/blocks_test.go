package generator

import (
	"strings"
	"testing"

	"github.com/wanderpress/wanderpress/app/images"
)

func TestAssembleBlocksOrder(t *testing.T) {
	article := validArticle()
	article.Content = "First paragraph.\n\nSecond paragraph.\n\nThird paragraph.\n\nFourth paragraph.\n\nFifth paragraph.\n\nSixth paragraph."
	hero := &images.Image{URL: "https://images.example.com/hero.jpg", AltText: "Dubai metro"}

	blocks := AssembleBlocks(article, hero)

	wantTypes := []string{"hero", "highlights", "text", "image", "text", "image", "text", "image", "tips", "faq", "cta"}
	if len(blocks) != len(wantTypes) {
		t.Fatalf("Expected %d blocks, got %d", len(wantTypes), len(blocks))
	}
	for i, want := range wantTypes {
		if blocks[i].Type != want {
			t.Errorf("Block %d: expected type %s, got %s", i, want, blocks[i].Type)
		}
		if blocks[i].Order != i {
			t.Errorf("Block %d: expected order %d, got %d", i, i, blocks[i].Order)
		}
		if blocks[i].ID == "" {
			t.Errorf("Block %d has no ID", i)
		}
	}

	if blocks[0].Data["imageUrl"] != hero.URL {
		t.Errorf("Expected hero block to carry the hero image URL, got %v", blocks[0].Data["imageUrl"])
	}
}

func TestAssembleBlocksWithoutHero(t *testing.T) {
	blocks := AssembleBlocks(validArticle(), nil)

	if blocks[0].Type != "hero" {
		t.Fatalf("Expected hero block first, got %s", blocks[0].Type)
	}
	if _, ok := blocks[0].Data["imageUrl"]; ok {
		t.Error("Expected no imageUrl on hero block when no image resolved")
	}
}

func TestSplitContentDistributesParagraphs(t *testing.T) {
	content := "One.\n\nTwo.\n\nThree.\n\nFour.\n\nFive.\n\nSix.\n\nSeven."

	sections := splitContent(content, 3)
	if len(sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(sections))
	}

	total := 0
	for _, s := range sections {
		total += len(strings.Split(s, "\n\n"))
	}
	if total != 7 {
		t.Errorf("Expected all 7 paragraphs distributed, got %d", total)
	}

	// Fewer paragraphs than sections: no padding, no empties.
	sections = splitContent("Only one paragraph.", 3)
	if len(sections) != 1 || sections[0] != "Only one paragraph." {
		t.Errorf("Expected single section, got %v", sections)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dubai Metro Blue Line: Everything You Need to Know", "dubai-metro-blue-line-everything-you-need-to-know"},
		{"  Best Brunch! (2026) ", "best-brunch-2026"},
		{"---", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		name   string
		digest string
		want   string
	}{
		{"hotels", "New resort opens on Palm Jumeirah with 400 suite accommodation options and hotel spa", "hotels"},
		{"transport", "Metro extension and new airport taxi fares announced for airline passengers", "transport"},
		{"fallback", "Something happened in the city today", DefaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyCategory(tt.digest); got != tt.want {
				t.Errorf("Expected category %s, got %s", tt.want, got)
			}
		})
	}
}
