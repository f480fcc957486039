package record

import (
	"slices"
	"strings"
	"unicode"
)

type Product struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Matcher filters text by tracked keywords and tags it with product names.
// Matching is case-insensitive substring containment.
type Matcher struct {
	products []Product
	keywords []string
}

func NewMatcher(products []Product) *Matcher {
	m := &Matcher{products: products}
	for _, product := range products {
		for _, keyword := range product.Keywords {
			if keyword == "" || slices.Contains(m.keywords, keyword) {
				continue
			}
			m.keywords = append(m.keywords, keyword)
		}
	}
	return m
}

// Keywords returns every configured keyword once, in configuration order.
func (m *Matcher) Keywords() []string {
	return slices.Clone(m.keywords)
}

func (m *Matcher) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range m.keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// Products returns the names of products with at least one keyword in text.
func (m *Matcher) Products(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, product := range m.products {
		for _, keyword := range product.Keywords {
			if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
				matched = append(matched, product.Name)
				break
			}
		}
	}
	return matched
}

func (m *Matcher) Tag(r *Record) {
	r.Tags = nil
	r.AddTags(m.Products(r.Title + " " + r.Content)...)
}

// DetectLanguage reports "zh" when CJK ideographs make up more than a tenth
// of the runes in text, "en" otherwise.
func DetectLanguage(text string) string {
	total, han := 0, 0
	for _, r := range text {
		total++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if total > 0 && float64(han) > float64(total)*0.1 {
		return "zh"
	}
	return "en"
}
