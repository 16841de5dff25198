package chat

import (
	"strings"
	"unicode"
)

// ContentFilter masks blocked words in message text. Matching is case
// insensitive on whole words; each masked word keeps its length.
type ContentFilter struct {
	blocked map[string]struct{}
}

func NewContentFilter(words []string) *ContentFilter {
	f := &ContentFilter{blocked: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			f.blocked[w] = struct{}{}
		}
	}
	return f
}

// Clean returns text with blocked words replaced by asterisks and whether
// anything was masked.
func (f *ContentFilter) Clean(text string) (string, bool) {
	if f == nil || len(f.blocked) == 0 {
		return text, false
	}
	runes := []rune(text)
	masked := false
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		word := strings.ToLower(string(runes[start:end]))
		if _, ok := f.blocked[word]; ok {
			for i := start; i < end; i++ {
				runes[i] = '*'
			}
			masked = true
		}
		start = -1
	}
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(runes))
	return string(runes), masked
}

// Prepare validates and filters message text before it is stored.
func (f *ContentFilter) Prepare(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if len([]rune(text)) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	cleaned, _ := f.Clean(text)
	return cleaned, nil
}
