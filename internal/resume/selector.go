// Package resume scores candidate resume profiles against a job posting.
// The selector is a pure function over its inputs, with no browser,
// storage or network dependency, so it can be tested in isolation.
package resume

import (
	"fmt"
	"strings"
	"unicode"

	"go-jobpilot-automation/internal/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Selection is the outcome of scoring every profile against one posting.
type Selection struct {
	Profile         models.ResumeProfile
	Score           float64
	MatchedKeywords []string
}

// normalizeText lowercases and strips diacritics so accented postings
// still match plain-ASCII keywords.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(result)
}

// Select picks the best-matching profile for a posting. The score is the
// count of distinct profile keywords appearing (case-insensitive substring
// match) in title+description, multiplied by the profile weight. Ties go
// to the first-declared profile, and a zero score falls back to the first
// profile rather than an error.
func Select(jobTitle, jobDescription string, profiles []models.ResumeProfile) (Selection, error) {
	if len(profiles) == 0 {
		return Selection{}, fmt.Errorf("no resume profiles configured")
	}

	searchText := normalizeText(jobTitle + " " + jobDescription)

	best := Selection{Profile: profiles[0], Score: 0}
	for _, profile := range profiles {
		var matched []string
		seen := make(map[string]bool)
		for _, keyword := range profile.Keywords {
			kw := normalizeText(strings.TrimSpace(keyword))
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			if strings.Contains(searchText, kw) {
				matched = append(matched, keyword)
			}
		}

		weight := profile.Weight
		if weight == 0 {
			weight = 1.0
		}
		score := float64(len(matched)) * weight

		//strict greater-than keeps the first-declared profile on ties
		if score > best.Score {
			best = Selection{Profile: profile, Score: score, MatchedKeywords: matched}
		}
	}

	return best, nil
}
