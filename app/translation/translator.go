package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Translator translates a batch of strings into the target locale. The
// result has the same length and order as the input.
type Translator interface {
	Translate(ctx context.Context, texts []string, target Locale) ([]string, error)
}

// GeminiTranslator implements Translator using the Gemini API.
// SDK: github.com/google/generative-ai-go
type GeminiTranslator struct {
	client *genai.Client
	model  string
}

func NewGeminiTranslator(ctx context.Context, apiKey, model string) (*GeminiTranslator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiTranslator{client: client, model: model}, nil
}

func (t *GeminiTranslator) Close() error {
	return t.client.Close()
}

func (t *GeminiTranslator) Translate(ctx context.Context, texts []string, target Locale) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translation batch: %w", err)
	}

	prompt := buildTranslationPrompt(string(payload), target)

	model := t.client.GenerativeModel(t.model)
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini translation error: %w", err)
	}

	raw, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	var translated []string
	if err := json.Unmarshal([]byte(stripFences(raw)), &translated); err != nil {
		return nil, fmt.Errorf("translation response is not a JSON array: %w", err)
	}
	if len(translated) != len(texts) {
		return nil, fmt.Errorf("translation returned %d strings, expected %d", len(translated), len(texts))
	}

	return translated, nil
}

func buildTranslationPrompt(payload string, target Locale) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate every string in the following JSON array from English into %s (%s).\n", target.Name, target.Code)
	b.WriteString("Rules:\n")
	b.WriteString("- Preserve the array order and length exactly.\n")
	b.WriteString("- Keep proper nouns, brand names and place names recognizable.\n")
	b.WriteString("- Keep numbers, prices and units unchanged.\n")
	if target.RTL {
		b.WriteString("- The target language is written right-to-left; produce natural right-to-left text.\n")
	}
	b.WriteString("Respond with only the translated JSON array, no markdown and no commentary.\n\n")
	b.WriteString(payload)
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned an empty response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini response contained no text")
	}
	return b.String(), nil
}

func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
