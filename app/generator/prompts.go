package generator

import (
	"fmt"
	"strings"
)

// DefaultCategory is used when no category keyword set matches the digest.
const DefaultCategory = "news"

// categoryKeywords maps each article category to the digest keywords that
// select it. Categories are checked in this order; the one with the most
// keyword hits wins.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"hotels", []string{"hotel", "resort", "suite", "accommodation", "stay", "check-in", "booking"}},
	{"dining", []string{"restaurant", "dining", "food", "cuisine", "chef", "menu", "brunch", "cafe"}},
	{"transport", []string{"metro", "flight", "airline", "airport", "taxi", "bus", "tram", "transport", "traffic"}},
	{"events", []string{"festival", "concert", "event", "exhibition", "show", "expo", "celebration", "fireworks"}},
	{"attractions", []string{"attraction", "museum", "park", "beach", "tour", "landmark", "experience", "opening"}},
	{"tips", []string{"guide", "tips", "how to", "visa", "rules", "advice", "budget", "itinerary"}},
}

// ClassifyCategory picks the article category from the cluster digest by
// keyword frequency, falling back to the default news category.
func ClassifyCategory(digest string) string {
	lowered := strings.ToLower(digest)

	best := DefaultCategory
	bestHits := 0
	for _, c := range categoryKeywords {
		hits := 0
		for _, kw := range c.keywords {
			hits += strings.Count(lowered, kw)
		}
		if hits > bestHits {
			best = c.name
			bestHits = hits
		}
	}

	return best
}

// personaIntros give each category its own editorial voice. The shared
// output contract is appended to whichever one applies.
var personaIntros = map[string]string{
	"attractions": "You are a senior travel writer covering Dubai's attractions and experiences. You have visited every landmark you write about and you favour concrete, practical detail over marketing language.",
	"hotels":      "You are a hospitality journalist reviewing Dubai hotels and resorts. You write for travellers comparing options, so you lead with what actually differs between properties: location, price band, amenities.",
	"dining":      "You are a food writer covering Dubai's restaurant scene. You write vividly but precisely, always naming dishes, neighbourhoods and price expectations.",
	"transport":   "You are a practical travel correspondent covering how to get around Dubai. Your readers want routes, costs, timings and the gotchas that official sources omit.",
	"events":      "You are an events correspondent covering Dubai's festivals, concerts and seasonal happenings. Dates, venues and ticketing details come first; atmosphere second.",
	"tips":        "You are a veteran Dubai expat writing practical guides for visitors. You answer the questions people actually ask, with current rules and realistic costs.",
	"news":        "You are a travel news editor covering Dubai. You turn raw headlines into a coherent story a traveller can act on, always making clear what changed and who it affects.",
}

const outputContract = `Respond with a single JSON object and nothing else. No markdown fences, no commentary. The object must have exactly these fields:
  "title": engaging article title (string)
  "metaTitle": SEO title, max 60 characters (string)
  "metaDescription": SEO description, max 160 characters (string)
  "content": the full article body as plain paragraphs separated by blank lines, %d-%d words (string)
  "quickFacts": 4-6 short factual bullet points (array of strings)
  "proTips": 3-5 insider tips (array of strings)
  "warnings": cautions travellers should know, may be empty (array of strings)
  "faqs": 4-6 entries, each {"question": string, "answer": string} (array of objects)
  "secondaryKeywords": 5-8 SEO keywords (array of strings)
  "imageSearchTerms": 2-4 stock-photo search phrases for the hero image (array of strings)
  "urgencyLevel": one of "low", "medium", "high" (string)
  "targetAudience": traveller segments this article serves (array of strings)`

func systemPrompt(category string) string {
	intro, ok := personaIntros[category]
	if !ok {
		intro = personaIntros[DefaultCategory]
	}
	return intro + "\n\n" + fmt.Sprintf(outputContract, MinWordCount, MaxWordCount)
}

func buildUserPrompt(topic, digest, category string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s article about the following topic:\n\n%s\n\n", category, topic)
	b.WriteString("These source headlines and summaries were collected from news feeds. Merge them into one original article; do not copy their wording:\n\n")
	b.WriteString(digest)
	return b.String()
}

// buildCorrectivePrompt asks the model to fix a rejected response. It
// names every violation and, when the body existed, its word count, so
// the model knows how far off it was.
func buildCorrectivePrompt(violations []string, wordCount int) string {
	var b strings.Builder
	b.WriteString("Your previous response was rejected for these reasons:\n")
	for _, v := range violations {
		fmt.Fprintf(&b, "- %s\n", v)
	}
	if wordCount > 0 {
		fmt.Fprintf(&b, "\nYour previous content was %d words; it must be between %d and %d words.\n",
			wordCount, MinWordCount, MaxWordCount)
	}
	b.WriteString("\nReturn the corrected response as a single JSON object with every required field, and nothing else.")
	return b.String()
}
