package vocab

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics so that learners typing without
// accents still match ("cafe" matches "café").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// Tokens splits s into folded words.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// StripArticle removes a single leading article from a surface form.
func StripArticle(form string, articles []string) string {
	fields := strings.Fields(strings.TrimSpace(form))
	if len(fields) > 1 {
		for _, a := range articles {
			if strings.EqualFold(fields[0], a) {
				return strings.Join(fields[1:], " ")
			}
		}
	}
	// Elided articles such as l'eau.
	for _, a := range articles {
		if strings.HasSuffix(a, "'") && len(form) > len(a) && strings.EqualFold(form[:len(a)], a) {
			return form[len(a):]
		}
	}
	return strings.Join(fields, " ")
}

// WordID returns the canonical id of a target-language form: lowercased with
// its leading article stripped. Accents are kept.
func WordID(form string, articles []string) string {
	return strings.ToLower(StripArticle(form, articles))
}

// Matcher finds vocabulary surface forms inside free text.
type Matcher struct {
	articles []string
	tokens   []string
}

// NewMatcher prepares text for repeated Contains calls.
func NewMatcher(text string, articles []string) *Matcher {
	return &Matcher{articles: articles, tokens: Tokens(text)}
}

// Contains reports whether any of forms occurs in the text as whole words,
// with or without its article.
func (m *Matcher) Contains(forms ...string) bool {
	for _, form := range forms {
		for _, candidate := range []string{form, StripArticle(form, m.articles)} {
			want := Tokens(candidate)
			if len(want) > 0 && containsRun(m.tokens, want) {
				return true
			}
		}
	}
	return false
}

func containsRun(haystack, needle []string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
