package preprocess

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	reSpaces   = regexp.MustCompile(`[ \t]+`)
	reNewlines = regexp.MustCompile(`\n{3,}`)
	reAnyWS    = regexp.MustCompile(`\s+`)

	ligatures = strings.NewReplacer(
		"ﬁ", "fi", "ﬂ", "fl",
		"—", "-", "–", "-",
		"·", ".", "•", "-",
		" ", " ",
	)
)

// CleanBasic drops control characters, fixes common OCR artifacts and collapses blank runs.
func CleanBasic(text string) string {
	if text == "" {
		return ""
	}

	b := strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	b = ligatures.Replace(b)
	b = reSpaces.ReplaceAllString(b, " ")
	b = reNewlines.ReplaceAllString(b, "\n\n")
	return strings.TrimSpace(b)
}

// Collapse folds every whitespace run into a single space.
func Collapse(text string) string {
	return strings.TrimSpace(reAnyWS.ReplaceAllString(text, " "))
}

// StripHTML returns the visible text of an HTML fragment on a single line.
// Plain text passes through unchanged apart from whitespace folding.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return Collapse(CleanBasic(fragment))
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return Collapse(CleanBasic(fragment))
	}
	doc.Find("script,style,noscript").Remove()
	return Collapse(CleanBasic(doc.Text()))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
