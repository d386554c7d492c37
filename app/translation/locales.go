package translation

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Locale is one translation target. Name is the English display name
// passed to the translation model.
type Locale struct {
	Code string
	Name string
	RTL  bool
}

// targetCodes lists every locale articles are translated into. The
// source language (English) is not in the list.
var targetCodes = []string{"ru", "hi", "zh", "ar", "he", "ja", "ko", "de", "fr", "es", "it"}

var rtlCodes = map[string]bool{
	"ar": true,
	"he": true,
}

// TargetLocales returns the full translation target set in fan-out order.
func TargetLocales() []Locale {
	locales := make([]Locale, 0, len(targetCodes))
	namer := display.English.Languages()
	for _, code := range targetCodes {
		tag := language.MustParse(code)
		locales = append(locales, Locale{
			Code: code,
			Name: namer.Name(tag),
			RTL:  rtlCodes[code],
		})
	}
	return locales
}

// IsRTL reports whether the locale renders right-to-left.
func IsRTL(code string) bool {
	return rtlCodes[code]
}
