package catalog

import "strings"

// Localizer pins a bundle to one locale.
type Localizer struct {
	Bundle *Bundle
	Locale string
}

// NewLocalizer returns a Localizer for the closest supported locale. A nil
// bundle uses Default.
func NewLocalizer(bundle *Bundle, locale string) Localizer {
	if bundle == nil {
		bundle = Default()
	}
	return Localizer{Bundle: bundle, Locale: bundle.MatchLocale(locale).String()}
}

// Text returns the message for key, or key when it is missing.
func (l Localizer) Text(key string) string {
	if l.Bundle == nil {
		return key
	}
	return l.Bundle.Text(l.Locale, key)
}

// Format renders the message for key with metadata.
func (l Localizer) Format(key string, metadata map[string]string) string {
	if l.Bundle == nil {
		return key
	}
	if text, ok := l.Bundle.Format(l.Locale, key, metadata); ok {
		return text
	}
	return key
}

// First returns the first key that has a message, or the last key when none
// do.
func (l Localizer) First(keys ...string) string {
	for _, key := range keys {
		if l.Bundle == nil {
			break
		}
		if text, ok := l.Bundle.Format(l.Locale, strings.TrimSpace(key), nil); ok {
			return text
		}
	}
	if len(keys) == 0 {
		return ""
	}
	return keys[len(keys)-1]
}
