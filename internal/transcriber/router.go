package transcriber

import (
	"fmt"
	"log"
	"sort"
)

// FallbackLanguage is the model language used for languages with no entry.
const FallbackLanguage = "en"

var defaultTable = map[string]Kind{
	"en": KindOfflineBatch,
	"hi": KindOfflineStreaming,
	"mr": KindOfflineStreaming,
}

// DefaultTable returns a copy of the built-in language table.
func DefaultTable() map[string]Kind {
	t := make(map[string]Kind, len(defaultTable))
	for k, v := range defaultTable {
		t[k] = v
	}
	return t
}

// Route is the routing decision for one request.
type Route struct {
	Language      string // as requested
	ModelLanguage string // language the adapter is asked to decode
	Kind          Kind
	Adapter       Adapter
	Fallback      bool
}

// Router maps languages to adapters from a single table. A decision depends
// only on the language (and an explicit engine override), never on an earlier
// failure.
type Router struct {
	adapters map[Kind]Adapter
	table    map[string]Kind
}

// NewRouter builds a router over the default table with overrides applied.
func NewRouter(adapters []Adapter, overrides map[string]Kind) *Router {
	r := &Router{
		adapters: make(map[Kind]Adapter, len(adapters)),
		table:    DefaultTable(),
	}
	for _, a := range adapters {
		r.adapters[a.Kind()] = a
	}
	for lang, kind := range overrides {
		r.table[lang] = kind
	}
	return r
}

// Route picks the adapter for lang. A non-empty engine replaces the table
// entry for this call.
func (r *Router) Route(lang string, engine Kind) (Route, error) {
	route := Route{Language: lang, ModelLanguage: lang}

	switch kind, ok := r.table[lang]; {
	case engine != "":
		route.Kind = engine
	case ok:
		route.Kind = kind
	default:
		route.Kind = KindOfflineBatch
		route.ModelLanguage = FallbackLanguage
		route.Fallback = true
		log.Printf("router: no engine configured for language %q, falling back to %s with the %s model", lang, route.Kind, FallbackLanguage)
	}

	a, ok := r.adapters[route.Kind]
	if !ok {
		return route, fmt.Errorf("engine %s is not configured", route.Kind)
	}
	route.Adapter = a
	return route, nil
}

// Table returns the effective language table, sorted by language.
func (r *Router) Table() []TableEntry {
	out := make([]TableEntry, 0, len(r.table))
	for lang, kind := range r.table {
		out = append(out, TableEntry{Language: lang, Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

type TableEntry struct {
	Language string
	Kind     Kind
}
