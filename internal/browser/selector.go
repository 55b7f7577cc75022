package browser

import (
	"fmt"
	"regexp"
	"strings"
)

const XPathPrefix = "xpath="

var urlPattern = regexp.MustCompile(`^(?i)(https?|ftp|data|javascript):`)

// ValidateSelector отсекает пустые строки и URL, попавшие на место селектора
func ValidateSelector(selector string) error {
	s := strings.TrimSpace(selector)
	if s == "" {
		return fmt.Errorf("пустой селектор")
	}
	if urlPattern.MatchString(s) {
		return fmt.Errorf("селектор выглядит как URL: %s", s)
	}
	return nil
}

// SplitXPath возвращает выражение XPath без префикса и признак того, что это XPath.
// Голые выражения, начинающиеся с "//" или "(//", тоже считаются XPath.
func SplitXPath(selector string) (string, bool) {
	s := strings.TrimSpace(selector)
	if strings.HasPrefix(s, XPathPrefix) {
		return strings.TrimPrefix(s, XPathPrefix), true
	}
	if strings.HasPrefix(s, "//") || strings.HasPrefix(s, "(//") {
		return s, true
	}
	return s, false
}

// NormalizeSelector приводит селектор к виду, который понимает playwright
func NormalizeSelector(selector string) string {
	if xp, ok := SplitXPath(selector); ok {
		return XPathPrefix + xp
	}
	return strings.TrimSpace(selector)
}

// XPathLiteral экранирует строку для XPath (одинарные кавычки через concat)
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// CSSString экранирует значение атрибута для CSS
func CSSString(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`) + "'"
}
