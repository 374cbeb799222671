package resume

import (
	"testing"

	"go-jobpilot-automation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProfiles = []models.ResumeProfile{
	{
		Name:     "Backend",
		File:     "Backend.pdf",
		Keywords: []string{"backend", "python", "api", "rest", "sql", "microservices"},
		Weight:   1.0,
	},
	{
		Name:     "Embedded",
		File:     "embedded.pdf",
		Keywords: []string{"firmware", "embedded", "mcu", "rtos", "stm32", "microcontroller"},
		Weight:   1.0,
	},
}

func TestSelect_BackendJob(t *testing.T) {
	sel, err := Select(
		"Senior Python Backend Developer",
		"Build REST APIs with Python and SQL.",
		testProfiles,
	)
	require.NoError(t, err)
	assert.Equal(t, "Backend", sel.Profile.Name)
	assert.GreaterOrEqual(t, sel.Score, 1.0)
	assert.Contains(t, sel.MatchedKeywords, "python")
	assert.Contains(t, sel.MatchedKeywords, "backend")
}

func TestSelect_EmbeddedJob(t *testing.T) {
	sel, err := Select(
		"STM32 Firmware Engineer",
		"Bare-metal C on ARM microcontrollers, RTOS experience required.",
		testProfiles,
	)
	require.NoError(t, err)
	assert.Equal(t, "Embedded", sel.Profile.Name)
	assert.GreaterOrEqual(t, sel.Score, 1.0)
}

func TestSelect_NoMatchFallsBackToFirstProfile(t *testing.T) {
	sel, err := Select("Dental Hygienist", "Cleaning teeth all day.", testProfiles)
	require.NoError(t, err)
	assert.Equal(t, "Backend", sel.Profile.Name, "zero score must fall back to the first-declared profile")
	assert.Equal(t, 0.0, sel.Score)
	assert.Empty(t, sel.MatchedKeywords)
}

func TestSelect_TieGoesToFirstDeclared(t *testing.T) {
	profiles := []models.ResumeProfile{
		{Name: "A", Keywords: []string{"go"}, Weight: 1.0},
		{Name: "B", Keywords: []string{"go"}, Weight: 1.0},
	}
	sel, err := Select("Go Developer", "", profiles)
	require.NoError(t, err)
	assert.Equal(t, "A", sel.Profile.Name)
}

func TestSelect_WeightBreaksScore(t *testing.T) {
	profiles := []models.ResumeProfile{
		{Name: "Light", Keywords: []string{"go", "grpc"}, Weight: 1.0},
		{Name: "Heavy", Keywords: []string{"go"}, Weight: 3.0},
	}
	sel, err := Select("Go gRPC Engineer", "", profiles)
	require.NoError(t, err)
	assert.Equal(t, "Heavy", sel.Profile.Name)
	assert.Equal(t, 3.0, sel.Score)
}

func TestSelect_DuplicateKeywordsCountOnce(t *testing.T) {
	profiles := []models.ResumeProfile{
		{Name: "Dup", Keywords: []string{"go", "Go", "GO"}, Weight: 1.0},
	}
	sel, err := Select("Go Developer", "", profiles)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sel.Score)
}

func TestSelect_MatchingIsCaseInsensitive(t *testing.T) {
	sel, err := Select("FIRMWARE ENGINEER", "EMBEDDED SYSTEMS", testProfiles)
	require.NoError(t, err)
	assert.Equal(t, "Embedded", sel.Profile.Name)
}

func TestSelect_DiacriticsFolded(t *testing.T) {
	profiles := []models.ResumeProfile{
		{Name: "Backend", Keywords: []string{"backend"}, Weight: 1.0},
	}
	sel, err := Select("Développeur Backênd", "", profiles)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sel.Score)
}

func TestSelect_NoProfiles(t *testing.T) {
	_, err := Select("Anything", "", nil)
	assert.Error(t, err)
}

// Adding a matching keyword to a profile never decreases its score.
func TestSelect_MonotonicUnderKeywordGrowth(t *testing.T) {
	title := "Senior Python Backend Developer"
	desc := "REST APIs, SQL, microservices."

	base := []models.ResumeProfile{
		{Name: "P", Keywords: []string{"python"}, Weight: 1.0},
	}
	selBase, err := Select(title, desc, base)
	require.NoError(t, err)

	grown := []models.ResumeProfile{
		{Name: "P", Keywords: []string{"python", "sql"}, Weight: 1.0},
	}
	selGrown, err := Select(title, desc, grown)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, selGrown.Score, selBase.Score)
}
