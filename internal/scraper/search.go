package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// ExperienceLevel holds the platform's numeric experience filter codes.
type ExperienceLevel string

const (
	Internship ExperienceLevel = "1"
	EntryLevel ExperienceLevel = "2"
	Associate  ExperienceLevel = "3"
	MidSenior  ExperienceLevel = "4"
	Director   ExperienceLevel = "5"
	Executive  ExperienceLevel = "6"
)

// DatePosted holds the platform's recency filter codes (seconds windows).
type DatePosted string

const (
	AnyTime    DatePosted = ""
	PastMonth  DatePosted = "r2592000"
	PastWeek   DatePosted = "r604800"
	Past24Hour DatePosted = "r86400"
)

var experienceLevelNames = map[string]ExperienceLevel{
	"INTERNSHIP":  Internship,
	"ENTRY_LEVEL": EntryLevel,
	"ASSOCIATE":   Associate,
	"MID_SENIOR":  MidSenior,
	"DIRECTOR":    Director,
	"EXECUTIVE":   Executive,
}

var datePostedNames = map[string]DatePosted{
	"ANY_TIME":      AnyTime,
	"PAST_MONTH":    PastMonth,
	"PAST_WEEK":     PastWeek,
	"PAST_24_HOURS": Past24Hour,
}

// ParseExperienceLevels maps config names to filter codes, silently
// dropping unknown names.
func ParseExperienceLevels(names []string) []ExperienceLevel {
	var levels []ExperienceLevel
	for _, n := range names {
		if lvl, ok := experienceLevelNames[strings.ToUpper(strings.TrimSpace(n))]; ok {
			levels = append(levels, lvl)
		}
	}
	return levels
}

// ParseDatePosted maps a config name to a filter code, defaulting to
// PAST_WEEK for unknown values.
func ParseDatePosted(name string) DatePosted {
	if dp, ok := datePostedNames[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return dp
	}
	return PastWeek
}

// SearchQuery describes one paginated keyword search.
type SearchQuery struct {
	Keywords         string
	Location         string
	ExperienceLevels []ExperienceLevel
	DatePosted       DatePosted
	EasyApplyOnly    bool
	MaxPages         int
}

const (
	jobsSearchURL = "https://www.linkedin.com/jobs/search/"
	jobsPerPage   = 25
)

// BuildSearchURL renders the search URL for one result page, sorted by
// date so oldest-first repository ordering stays meaningful.
func BuildSearchURL(q SearchQuery, page int) string {
	params := url.Values{}
	params.Set("keywords", q.Keywords)
	params.Set("location", q.Location)
	params.Set("sortBy", "DD")
	params.Set("start", fmt.Sprintf("%d", page*jobsPerPage))

	if len(q.ExperienceLevels) > 0 {
		codes := make([]string, len(q.ExperienceLevels))
		for i, lvl := range q.ExperienceLevels {
			codes[i] = string(lvl)
		}
		params.Set("f_E", strings.Join(codes, ","))
	}
	if q.DatePosted != AnyTime {
		params.Set("f_TPR", string(q.DatePosted))
	}
	if q.EasyApplyOnly {
		params.Set("f_AL", "true")
	}

	return jobsSearchURL + "?" + params.Encode()
}
