package dedup

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	trackingParamRe = regexp.MustCompile(`^utm_\w+$`)
	lowerCaser      = cases.Lower(language.Und)
)

var trackingParams = map[string]bool{
	"ref":    true,
	"source": true,
	"fbclid": true,
	"gclid":  true,
}

func isTrackingParam(key string) bool {
	return trackingParams[key] || trackingParamRe.MatchString(key)
}

// NormalizeURL strips tracking query parameters and trailing slashes and
// coerces http to https. Remaining parameters keep their order and encoding.
func NormalizeURL(rawURL string) string {
	url, fragment, hasFragment := strings.Cut(rawURL, "#")
	base, query, hasQuery := strings.Cut(url, "?")

	if hasQuery {
		var kept []string
		for _, pair := range strings.Split(query, "&") {
			key, _, hasValue := strings.Cut(pair, "=")
			if hasValue && isTrackingParam(key) {
				continue
			}
			kept = append(kept, pair)
		}
		url = base
		if len(kept) > 0 {
			url += "?" + strings.Join(kept, "&")
		}
	}
	if hasFragment {
		url += "#" + fragment
	}

	url = strings.TrimRight(url, "/")
	if len(url) >= 7 && strings.EqualFold(url[:7], "http://") {
		url = "https://" + url[7:]
	}
	return url
}

// NormalizeTitle folds a title for similarity comparison: NFKC, lowercase,
// only letters, digits, marks, underscores and single spaces survive.
func NormalizeTitle(title string) string {
	folded := lowerCaser.String(norm.NFKC.String(title))

	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsMark(r), unicode.Is(unicode.Pc, r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
