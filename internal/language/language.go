// Package language holds the language codes accepted on input and their
// display names.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is one selectable transcription language
type Language struct {
	Code       string // ISO 639-1
	Name       string
	NativeName string
}

// the routing table covers en, hi and mr; the rest are decoded by whisper
var languages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "mr", Name: "Marathi", NativeName: "मराठी"},
	{Code: "bn", Name: "Bengali", NativeName: "বাংলা"},
	{Code: "gu", Name: "Gujarati", NativeName: "ગુજરાતી"},
	{Code: "kn", Name: "Kannada", NativeName: "ಕನ್ನಡ"},
	{Code: "ta", Name: "Tamil", NativeName: "தமிழ்"},
	{Code: "te", Name: "Telugu", NativeName: "తెలుగు"},
	{Code: "ur", Name: "Urdu", NativeName: "اردو"},
	{Code: "ar", Name: "Arabic", NativeName: "العربية"},
	{Code: "zh", Name: "Chinese", NativeName: "中文"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "ko", Name: "Korean", NativeName: "한국어"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "ru", Name: "Russian", NativeName: "Русский"},
}

var byCode = func() map[string]Language {
	m := make(map[string]Language, len(languages))
	for _, l := range languages {
		m[l.Code] = l
	}
	return m
}()

// Normalize lowercases a code, strips any region or script suffix and
// prefers the two-letter form, so "hi-IN", "HI", "en_US" and "hin" become
// "hi", "hi", "en" and "hi".
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	if len(code) == 3 {
		if base, err := language.ParseBase(code); err == nil && len(base.String()) == 2 {
			code = base.String()
		}
	}
	return code
}

// Lookup returns the language for a code after normalizing it.
func Lookup(code string) (Language, bool) {
	l, ok := byCode[Normalize(code)]
	return l, ok
}

// DisplayName returns "Name (Native)" for listed codes, the English name
// for other valid codes, and the code itself otherwise.
func DisplayName(code string) string {
	l, ok := Lookup(code)
	if !ok {
		return englishName(code)
	}
	if l.NativeName == "" || l.NativeName == l.Name {
		return l.Name
	}
	return l.Name + " (" + l.NativeName + ")"
}

// List returns the selectable languages in display order
func List() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

func englishName(code string) string {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" || strings.EqualFold(name, code) {
		return code
	}
	return name
}
