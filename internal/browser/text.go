package browser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// VisibleText извлекает из HTML текст, который видит пользователь:
// без script/style и скрытых узлов, с нормализованными пробелами
func VisibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, template, [hidden], [aria-hidden='true']").Remove()
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
			s.Remove()
		}
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	return strings.Join(strings.Fields(root.Text()), " "), nil
}
