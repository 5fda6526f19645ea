package homework

import (
	"fmt"
	"sort"
	"strings"
)

// Well-known review status codes.
const (
	StatusApproved  = "approved"
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
)

const (
	LanguageRU = "ru"
	LanguageEN = "en"
)

// Catalog maps a status code to its display text. It is immutable once built.
type Catalog struct {
	lang    string
	entries map[string]string
}

var builtin = map[string]map[string]string{
	LanguageRU: {
		StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
		StatusReviewing: "Работа взята на проверку ревьюером.",
		StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
	},
	LanguageEN: {
		StatusApproved:  "The work has been reviewed: the reviewer liked everything. Hooray!",
		StatusReviewing: "The work has been taken for review.",
		StatusRejected:  "The work has been reviewed: the reviewer has remarks.",
	},
}

// NewCatalog returns the built-in catalog for lang ("" means ru).
func NewCatalog(lang string) (Catalog, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = LanguageRU
	}
	src, ok := builtin[lang]
	if !ok {
		return Catalog{}, fmt.Errorf("catalog: unsupported language %q (want one of %s)", lang, strings.Join(Languages(), ", "))
	}
	entries := make(map[string]string, len(src))
	for k, v := range src {
		entries[k] = v
	}
	return Catalog{lang: lang, entries: entries}, nil
}

// DefaultCatalog is the ru catalog.
func DefaultCatalog() Catalog {
	c, _ := NewCatalog(LanguageRU)
	return c
}

// Languages lists the built-in catalog languages.
func Languages() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c Catalog) Language() string { return c.lang }

// Lookup returns the display text for code, or an UnknownStatusError.
func (c Catalog) Lookup(code string) (string, error) {
	text, ok := c.entries[code]
	if !ok {
		return "", UnknownStatusError(code)
	}
	return text, nil
}

// Codes returns the known status codes in sorted order.
func (c Catalog) Codes() []string {
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
