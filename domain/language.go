package domain

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a normalized ISO 639-1 code such as "en" or "fr".
type Language string

func (l Language) String() string {
	return string(l)
}

// DefaultSupportedLanguages is used when no explicit list is configured.
var DefaultSupportedLanguages = []Language{"en", "fr", "es", "de", "it", "pt", "ar", "hi", "ja", "ko", "ru", "sw"}

// LanguageNormalizer turns user input ("FR", "fr-CA", "French", "français")
// into one of the supported codes.
type LanguageNormalizer struct {
	fallback  Language
	supported map[Language]struct{}
	names     map[string]Language
}

func NewLanguageNormalizer(fallback Language, supported []Language) *LanguageNormalizer {
	if len(supported) == 0 {
		supported = DefaultSupportedLanguages
	}
	n := &LanguageNormalizer{
		fallback:  fallback,
		supported: make(map[Language]struct{}, len(supported)),
		names:     make(map[string]Language, len(supported)*2),
	}
	english := display.English.Languages()
	for _, lang := range supported {
		n.supported[lang] = struct{}{}
		tag, err := language.Parse(lang.String())
		if err != nil {
			continue
		}
		if name := english.Name(tag); name != "" {
			n.names[strings.ToLower(name)] = lang
		}
		if name := display.Self.Name(tag); name != "" {
			n.names[strings.ToLower(name)] = lang
		}
	}
	n.supported[fallback] = struct{}{}
	return n
}

// Normalize returns the supported code for raw and whether raw was recognized.
// Unrecognized input resolves to the fallback language.
func (n *LanguageNormalizer) Normalize(raw string) (Language, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return n.fallback, false
	}
	if lang, ok := n.names[raw]; ok {
		return lang, true
	}
	tag, err := language.Parse(raw)
	if err == nil {
		base, _ := tag.Base()
		lang := Language(base.String())
		if _, ok := n.supported[lang]; ok {
			return lang, true
		}
	}
	return n.fallback, false
}

// Supported lists the accepted codes in a stable order.
func (n *LanguageNormalizer) Supported() []Language {
	langs := lo.Keys(n.supported)
	slices.Sort(langs)
	return langs
}

// Name returns the English name of the language, or its code when unknown.
func (l Language) Name() string {
	tag, err := language.Parse(l.String())
	if err != nil {
		return l.String()
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return l.String()
}

// ParseLanguages splits a comma separated list such as "en,fr,es".
func ParseLanguages(raw string) []Language {
	parts := lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
	parts = lo.Compact(parts)
	return lo.Uniq(lo.Map(parts, func(s string, _ int) Language { return Language(s) }))
}
