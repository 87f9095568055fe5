package service

import (
	"strings"

	"golang.org/x/text/language"
)

// LocaleService maps the language stored in a user's configuration onto one
// of the console's supported locales.
type LocaleService struct {
	supported []language.Tag
	matcher   language.Matcher
}

// NewLocaleService builds a service over supported locales; the first one is
// the default. Unparseable entries are skipped and an empty list falls back to
// French.
func NewLocaleService(supported []string) *LocaleService {
	tags := make([]language.Tag, 0, len(supported))
	for _, raw := range supported {
		tag, err := language.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		tags = []language.Tag{language.French}
	}
	return &LocaleService{supported: tags, matcher: language.NewMatcher(tags)}
}

// Default returns the fallback locale.
func (s *LocaleService) Default() string {
	return s.supported[0].String()
}

// Supported lists the configured locales.
func (s *LocaleService) Supported() []string {
	out := make([]string, len(s.supported))
	for i, tag := range s.supported {
		out[i] = tag.String()
	}
	return out
}

// Match returns the supported locale closest to raw, or the default.
func (s *LocaleService) Match(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.Default()
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return s.Default()
	}
	_, index, confidence := s.matcher.Match(tag)
	if confidence == language.No {
		return s.Default()
	}
	return s.supported[index].String()
}
