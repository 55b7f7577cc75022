package sanitizer

import (
	"strings"
)

// DataSanitizer маскирует персональные данные tomador перед записью в лог,
// в причины ошибок и в публикуемые результаты
type DataSanitizer struct {
	rules []SanitizerRule
}

type SanitizerRule interface {
	Sanitize(text string) string
}

func New() *DataSanitizer {
	return &DataSanitizer{
		rules: []SanitizerRule{
			&PasswordSanitizer{},
			&EmailSanitizer{},
			&DocumentSanitizer{},
			&PhoneSanitizer{},
		},
	}
}

func (s *DataSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, rule := range s.rules {
		result = rule.Sanitize(result)
	}

	return result
}

// MaskDocument оставляет видимыми только последние две цифры CPF/CNPJ
func (s *DataSanitizer) MaskDocument(doc string) string {
	digits := onlyDigits(doc)
	if len(digits) <= 2 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-2) + digits[len(digits)-2:]
}

// SanitizeValue: для значения поля формы: поля с паролем не пишутся вовсе
func (s *DataSanitizer) SanitizeValue(field, value string) string {
	lower := strings.ToLower(field)
	for _, keyword := range []string{"password", "senha", "пароль"} {
		if strings.Contains(lower, keyword) {
			return "[FILTERED]"
		}
	}
	return s.Sanitize(value)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
