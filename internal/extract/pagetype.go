package extract

import "strings"

// pageTypeKeywords maps content keywords to page categories, checked in
// order. First match wins; anything unmatched is "custom".
var pageTypeKeywords = []struct {
	keyword  string
	pageType string
}{
	{"about", "about"},
	{"contact", "contact"},
	{"shipping", "shipping"},
	{"return", "returns"},
	{"refund", "refund"},
	{"privacy", "privacy"},
	{"terms", "terms"},
}

// classifyPageType buckets a content page by keywords in its handle or
// title
func classifyPageType(handle, title string) string {
	handle = strings.ToLower(handle)
	title = strings.ToLower(title)

	for _, k := range pageTypeKeywords {
		if strings.Contains(handle, k.keyword) || strings.Contains(title, k.keyword) {
			return k.pageType
		}
	}
	return "custom"
}
