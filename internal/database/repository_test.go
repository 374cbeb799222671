package database

import (
	"context"
	"os"
	"testing"
	"time"

	"go-jobpilot-automation/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRepo connects to the database named by DATABASE_URL. The tests
// only touch rows they create (unique external IDs) and remove them
// afterwards, so they are safe against a shared development database.
func setupRepo(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := ConnectDB(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func newTestJob(t *testing.T, repo *Repository) *models.Job {
	t.Helper()
	job := &models.Job{
		ExternalID:    "test-" + uuid.NewString(),
		Title:         "Embedded Software Engineer",
		Company:       "Acme Devices",
		Location:      "Remote",
		URL:           "https://www.linkedin.com/jobs/view/0/",
		EasyApply:     true,
		SearchKeyword: "embedded",
	}
	t.Cleanup(func() {
		ctx := context.Background()
		repo.db.Exec(ctx, `DELETE FROM applications WHERE job_id IN (SELECT id FROM jobs WHERE external_id = $1)`, job.ExternalID)
		repo.db.Exec(ctx, `DELETE FROM jobs WHERE external_id = $1`, job.ExternalID)
	})
	return job
}

func containsJob(jobs []models.Job, externalID string) bool {
	for _, j := range jobs {
		if j.ExternalID == externalID {
			return true
		}
	}
	return false
}

func TestUpsertJob_IdempotentRescrape(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	job := newTestJob(t, repo)
	job.Description = "Firmware work on RTOS-based sensor nodes."

	first, isNew, err := repo.UpsertJob(ctx, job)
	require.NoError(t, err)
	require.True(t, isNew)
	firstSeen := first.ScrapedAt

	//the same posting scraped again, this time without a description
	again := &models.Job{
		ExternalID: job.ExternalID,
		Title:      "Embedded Software Engineer (updated)",
		Company:    job.Company,
		URL:        job.URL,
		EasyApply:  true,
	}
	second, isNew, err := repo.UpsertJob(ctx, again)
	require.NoError(t, err)

	assert.False(t, isNew, "a re-scrape must update in place, never insert")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, job.Description, second.Description, "an empty re-scrape must not erase the stored description")
	assert.WithinDuration(t, firstSeen, second.ScrapedAt, time.Second, "first-seen timestamp is preserved")

	stored, err := repo.GetJobByExternalID(ctx, job.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, "Embedded Software Engineer (updated)", stored.Title)
}

func TestUnappliedEasyApplyJobs_ExcludesTerminalStatuses(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for _, status := range []models.ApplicationStatus{models.StatusApplied, models.StatusSkipped} {
		job := newTestJob(t, repo)
		_, _, err := repo.UpsertJob(ctx, job)
		require.NoError(t, err)

		jobs, err := repo.UnappliedEasyApplyJobs(ctx, 1000, 3)
		require.NoError(t, err)
		require.True(t, containsJob(jobs, job.ExternalID), "a fresh job is eligible")

		app, err := repo.CreatePendingApplication(ctx, job.ID, "Embedded")
		require.NoError(t, err)
		require.NoError(t, repo.FinishApplication(ctx, app.ID, status, "", ""))

		jobs, err = repo.UnappliedEasyApplyJobs(ctx, 1000, 3)
		require.NoError(t, err)
		assert.False(t, containsJob(jobs, job.ExternalID), "a %s job must never be offered again", status)
	}
}

func TestUnappliedEasyApplyJobs_RetryBound(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	job := newTestJob(t, repo)
	_, _, err := repo.UpsertJob(ctx, job)
	require.NoError(t, err)

	const maxAttempts = 2
	for i := 0; i < maxAttempts; i++ {
		jobs, err := repo.UnappliedEasyApplyJobs(ctx, 1000, maxAttempts)
		require.NoError(t, err)
		require.True(t, containsJob(jobs, job.ExternalID), "attempt %d is still within the bound", i+1)

		app, err := repo.CreatePendingApplication(ctx, job.ID, "Embedded")
		require.NoError(t, err)
		require.NoError(t, repo.FinishApplication(ctx, app.ID, models.StatusFailed, "", "form did not load"))
	}

	jobs, err := repo.UnappliedEasyApplyJobs(ctx, 1000, maxAttempts)
	require.NoError(t, err)
	assert.False(t, containsJob(jobs, job.ExternalID), "the job is excluded after exactly maxAttempts FAILED rows")

	jobs, err = repo.UnappliedEasyApplyJobs(ctx, 1000, maxAttempts+1)
	require.NoError(t, err)
	assert.True(t, containsJob(jobs, job.ExternalID), "a higher bound makes it eligible again")
}

func TestCreatePendingApplication_ReusesOrphanRow(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	job := newTestJob(t, repo)
	_, _, err := repo.UpsertJob(ctx, job)
	require.NoError(t, err)

	//a crashed run left this PENDING row behind
	first, err := repo.CreatePendingApplication(ctx, job.ID, "Backend")
	require.NoError(t, err)

	second, err := repo.CreatePendingApplication(ctx, job.ID, "Embedded")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "the orphan PENDING row is reused, not duplicated")
	assert.Equal(t, "Embedded", second.ResumeUsed)
}
