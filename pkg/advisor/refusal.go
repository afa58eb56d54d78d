package advisor

import "strings"

// defaultRefusalPhrases are literal substrings meaning "I don't know / can't
// give details". Both Latin (Hinglish/English) and Devanagari (Hindi) forms
// are covered; additional phrases can be appended through Options.
var defaultRefusalPhrases = []string{
	// Latin / Hinglish
	"nahi", "nahin",
	"nahi de sakta", "nahi de sakti",
	"nahi bata sakta", "nahi bata sakti",
	"nahi bata paunga", "nahi bata paungi",
	"mujhe nahi pata", "mujhe nahin pata",
	"mujhe pata nahi", "mujhe pata nahin",
	"pata nahi", "pata nahin",
	"don't know", "dont know",
	"can't say", "cant say",

	// Devanagari Hindi
	"मुझे नहीं पता",
	"मुझे नही पता",
	"मुझे पता नहीं",
	"मुझे पता नही",
	"पता नहीं",
	"पता नही",
	"नहीं पता",
	"नही पता",
}

// refusalDetector matches refusal phrases as substrings of the raw query.
type refusalDetector struct {
	phrases []string
}

func newRefusalDetector(extra []string) refusalDetector {
	phrases := make([]string, 0, len(defaultRefusalPhrases)+len(extra))
	phrases = append(phrases, defaultRefusalPhrases...)
	phrases = append(phrases, extra...)
	return refusalDetector{phrases: phrases}
}

// Detect checks the query as-is and case-folded against every phrase. Script
// and diacritics are preserved for the literal comparison.
func (d refusalDetector) Detect(query string) bool {
	lowered := strings.ToLower(query)
	for _, phrase := range d.phrases {
		if strings.Contains(query, phrase) || strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
