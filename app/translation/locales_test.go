package translation

import (
	"testing"
)

func TestTargetLocales(t *testing.T) {
	locales := TargetLocales()

	if len(locales) != 11 {
		t.Fatalf("Expected 11 target locales, got %d", len(locales))
	}

	byCode := make(map[string]Locale)
	for _, l := range locales {
		if l.Name == "" {
			t.Errorf("Locale %s has no display name", l.Code)
		}
		byCode[l.Code] = l
	}

	for _, code := range []string{"ru", "hi", "zh", "ar", "he", "ja", "ko", "de", "fr", "es", "it"} {
		if _, ok := byCode[code]; !ok {
			t.Errorf("Missing target locale %s", code)
		}
	}

	if byCode["en"].Code != "" {
		t.Error("The source language must not be a translation target")
	}
}

func TestRTLFlags(t *testing.T) {
	for _, code := range []string{"ar", "he"} {
		if !IsRTL(code) {
			t.Errorf("Expected %s to be flagged RTL", code)
		}
	}
	for _, code := range []string{"ru", "de", "ja"} {
		if IsRTL(code) {
			t.Errorf("Expected %s not to be flagged RTL", code)
		}
	}
}
