package scraper

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseQuery(t *testing.T, rawURL string) url.Values {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Query()
}

func TestBuildSearchURL_AllFilters(t *testing.T) {
	q := SearchQuery{
		Keywords:         "golang developer",
		Location:         "Remote",
		ExperienceLevels: []ExperienceLevel{EntryLevel, Associate},
		DatePosted:       PastWeek,
		EasyApplyOnly:    true,
	}

	params := mustParseQuery(t, BuildSearchURL(q, 0))
	assert.Equal(t, "golang developer", params.Get("keywords"))
	assert.Equal(t, "Remote", params.Get("location"))
	assert.Equal(t, "2,3", params.Get("f_E"))
	assert.Equal(t, "r604800", params.Get("f_TPR"))
	assert.Equal(t, "true", params.Get("f_AL"))
	assert.Equal(t, "DD", params.Get("sortBy"))
	assert.Equal(t, "0", params.Get("start"))
}

func TestBuildSearchURL_Pagination(t *testing.T) {
	q := SearchQuery{Keywords: "backend", Location: "Remote"}

	assert.Equal(t, "0", mustParseQuery(t, BuildSearchURL(q, 0)).Get("start"))
	assert.Equal(t, "25", mustParseQuery(t, BuildSearchURL(q, 1)).Get("start"))
	assert.Equal(t, "75", mustParseQuery(t, BuildSearchURL(q, 3)).Get("start"))
}

func TestBuildSearchURL_OptionalFiltersOmitted(t *testing.T) {
	q := SearchQuery{Keywords: "backend", Location: "Remote", DatePosted: AnyTime}

	params := mustParseQuery(t, BuildSearchURL(q, 0))
	assert.False(t, params.Has("f_E"))
	assert.False(t, params.Has("f_TPR"))
	assert.False(t, params.Has("f_AL"))
}

func TestBuildSearchURL_EncodesKeywords(t *testing.T) {
	q := SearchQuery{Keywords: "C++ & embedded", Location: "Hà Nội"}

	raw := BuildSearchURL(q, 0)
	params := mustParseQuery(t, raw)
	assert.Equal(t, "C++ & embedded", params.Get("keywords"))
	assert.Equal(t, "Hà Nội", params.Get("location"))
}

func TestParseExperienceLevels(t *testing.T) {
	levels := ParseExperienceLevels([]string{"entry_level", " ASSOCIATE ", "bogus"})
	assert.Equal(t, []ExperienceLevel{EntryLevel, Associate}, levels)
}

func TestParseDatePosted(t *testing.T) {
	assert.Equal(t, PastMonth, ParseDatePosted("past_month"))
	assert.Equal(t, Past24Hour, ParseDatePosted("PAST_24_HOURS"))
	assert.Equal(t, AnyTime, ParseDatePosted("any_time"))
	//unknown values fall back to the past-week window
	assert.Equal(t, PastWeek, ParseDatePosted("whenever"))
}
