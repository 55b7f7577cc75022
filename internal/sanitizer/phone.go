package sanitizer

import "regexp"

type PhoneSanitizer struct{}

// Бразильские номера: +55 (63) 9 9999-9999, (63) 3215-0000, 63999999999
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:\+?55\s?)?\(?\d{2}\)?\s?9?\s?\d{4}[-.\s]?\d{4}\b`),
	regexp.MustCompile(`(?i)(telefone|celular|fone|tel\.?)\s*[:=]\s*["']?([+\d\s\-\(\)]{7,})["']?`),
}

func (s *PhoneSanitizer) Sanitize(text string) string {
	for _, pattern := range phonePatterns {
		text = pattern.ReplaceAllString(text, `[FILTERED_PHONE]`)
	}
	return text
}
