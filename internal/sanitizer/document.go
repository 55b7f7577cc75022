package sanitizer

import "regexp"

// DocumentSanitizer маскирует CPF и CNPJ (с пунктуацией и без)
type DocumentSanitizer struct{}

var documentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}\b`),
	regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`),
}

func (s *DocumentSanitizer) Sanitize(text string) string {
	for _, pattern := range documentPatterns {
		text = pattern.ReplaceAllString(text, `[FILTERED_DOC]`)
	}
	return text
}
