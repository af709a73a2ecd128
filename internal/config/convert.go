package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/vidscribe/vidscribe/internal/language"
	"github.com/vidscribe/vidscribe/internal/models"
	"github.com/vidscribe/vidscribe/internal/transcriber"
)

var providerEnvVars = map[string]string{
	"openai":   "OPENAI_API_KEY",
	"deepgram": "DEEPGRAM_API_KEY",
}

// APIKey returns the key for a cloud provider from [providers.<name>] or,
// failing that, the provider's environment variable.
func (c *Config) APIKey(provider string) string {
	if pc, ok := c.Providers[provider]; ok && pc.APIKey != "" {
		return pc.APIKey
	}
	if env := providerEnvVars[provider]; env != "" {
		return os.Getenv(env)
	}
	return ""
}

// ModelArchives returns the built-in streaming model archives with
// [models.archives.<lang>] entries applied on top.
func (c *Config) ModelArchives() []models.Archive {
	byLang := make(map[string]models.Archive)
	for _, a := range models.DefaultArchives() {
		byLang[a.Language] = a
	}
	for lang, ac := range c.Models.Archives {
		lang = language.Normalize(lang)
		a := byLang[lang]
		a.Language = lang
		if ac.URL != "" {
			a.URL = ac.URL
		}
		if ac.Folder != "" {
			a.Folder = ac.Folder
		}
		byLang[lang] = a
	}

	out := make([]models.Archive, 0, len(byLang))
	for _, a := range byLang {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

// RoutingOverrides parses [routing] into engine kinds keyed by normalized
// language code.
func (c *Config) RoutingOverrides() (map[string]transcriber.Kind, error) {
	out := make(map[string]transcriber.Kind, len(c.Routing))
	for lang, engine := range c.Routing {
		kind, err := transcriber.ParseKind(engine)
		if err != nil {
			return nil, fmt.Errorf("routing.%s: %w", lang, err)
		}
		out[language.Normalize(lang)] = kind
	}
	return out, nil
}

// UsesCloud reports whether any routing entry selects the cloud engine.
func (c *Config) UsesCloud() bool {
	for _, engine := range c.Routing {
		if kind, err := transcriber.ParseKind(engine); err == nil && kind == transcriber.KindCloud {
			return true
		}
	}
	return false
}
