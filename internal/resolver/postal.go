package resolver

import (
	"regexp"

	"emiteNota/internal/record"
)

// Стратегии поиска CEP по порядку: адрес (5+3, 8 цифр подряд, 5+3 с пунктуацией,
// 2.3-3), затем описание (5+3)
var (
	cepStandard    = regexp.MustCompile(`(\d{5})-?(\d{3})`)
	cepContiguous  = regexp.MustCompile(`(\d{8})`)
	cepPunctuated  = regexp.MustCompile(`(\d{5})[.\-\s]*(\d{3})`)
	cepDottedFirst = regexp.MustCompile(`(\d{2})\.(\d{3})-(\d{3})`)
)

// ExtractPostalCode ищет CEP в адресе, затем в описании. Результат: "NNNNN-NNN".
func ExtractPostalCode(address, description string) (string, bool) {
	if cep, ok := fromAddress(address); ok {
		return cep, true
	}
	if m := cepStandard.FindStringSubmatch(description); m != nil {
		return m[1] + "-" + m[2], true
	}
	return "", false
}

func fromAddress(address string) (string, bool) {
	if address == "" {
		return "", false
	}
	if m := cepStandard.FindStringSubmatch(address); m != nil {
		return m[1] + "-" + m[2], true
	}
	if m := cepContiguous.FindStringSubmatch(address); m != nil {
		return m[1][:5] + "-" + m[1][5:], true
	}
	if m := cepPunctuated.FindStringSubmatch(address); m != nil {
		return m[1] + "-" + m[2], true
	}
	if m := cepDottedFirst.FindStringSubmatch(address); m != nil {
		return m[1] + m[2] + "-" + m[3], true
	}
	return "", false
}

// PostalCodeFor: CEP записи: собственное поле записи важнее извлечённого из адреса
func PostalCodeFor(rec record.SourceRecord) (string, bool) {
	if cep, ok := NormalizePostalCode(rec.PostalCode); ok {
		return cep, true
	}
	return ExtractPostalCode(rec.Address, rec.Description)
}

// NormalizePostalCode приводит 8 цифр с любой пунктуацией к "NNNNN-NNN"
func NormalizePostalCode(raw string) (string, bool) {
	digits := make([]byte, 0, 8)
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) != 8 {
		return "", false
	}
	return string(digits[:5]) + "-" + string(digits[5:]), true
}
