package legal

import (
	"strings"

	"github.com/sweetpotato0/nyaya/contrib/embedder/hashing"
)

const generalDomain = "general"

// maxDomains caps how many labels classification keeps.
const maxDomains = 3

type domainKeywords struct {
	domain   string
	keywords []string
}

// taxonomy is ordered; earlier domains win ties.
var taxonomy = []domainKeywords{
	{"constitutional_law", []string{"constitution", "fundamental right", "article"}},
	{"criminal_law", []string{"crime", "criminal", "arrest", "bail", "fir", "police"}},
	{"civil_law", []string{"contract", "tort", "damages", "compensation"}},
	{"family_law", []string{"marriage", "divorce", "custody", "maintenance", "adoption"}},
	{"property_law", []string{"property", "land", "ownership", "title", "possession"}},
	{"labor_law", []string{"employment", "wage", "termination", "labor", "worker"}},
	{"consumer_protection", []string{"consumer", "defective", "refund", "warranty"}},
	{"environmental_law", []string{"environment", "pollution", "forest", "wildlife"}},
	{"tax_law", []string{"tax", "income tax", "gst", "assessment"}},
	{"corporate_law", []string{"company", "corporate", "shareholder", "board"}},
	{"intellectual_property", []string{"patent", "copyright", "trademark", "ip"}},
	{"administrative_law", []string{"government", "public authority", "administrative"}},
	{"civic_rights", []string{"voting", "citizen", "civic", "right to information", "rti"}},
	{"human_rights", []string{"human right", "discrimination", "equality"}},
}

// Domains returns the classification taxonomy in priority order.
func Domains() []string {
	out := make([]string, len(taxonomy))
	for i, d := range taxonomy {
		out[i] = d.domain
	}
	return out
}

func isDomain(name string) bool {
	for _, d := range taxonomy {
		if d.domain == name {
			return true
		}
	}
	return false
}

// keywordDomains returns up to three domains whose keywords occur in query, in
// taxonomy order. Keywords of three characters or fewer must match a whole token
// so that "ip" does not fire on "ship" or "fir" on "first".
func keywordDomains(query string) []string {
	lower := strings.ToLower(query)
	tokens := make(map[string]struct{})
	for _, tok := range hashing.Tokenize(lower) {
		tokens[tok] = struct{}{}
	}
	var out []string
	for _, d := range taxonomy {
		for _, kw := range d.keywords {
			if matchKeyword(lower, tokens, kw) {
				out = append(out, d.domain)
				break
			}
		}
		if len(out) == maxDomains {
			break
		}
	}
	return out
}

func matchKeyword(lower string, tokens map[string]struct{}, kw string) bool {
	if len(kw) <= 3 {
		_, ok := tokens[kw]
		return ok
	}
	return strings.Contains(lower, kw)
}

// filterDomains keeps valid, distinct taxonomy labels in their given order.
func filterDomains(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	var out []string
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if !isDomain(l) {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
		if len(out) == maxDomains {
			break
		}
	}
	return out
}
