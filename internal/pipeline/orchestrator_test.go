package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-jobpilot-automation/internal/applier"
	"go-jobpilot-automation/internal/auth"
	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/scraper"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	err   error
	calls int
}

func (a *fakeAuth) EnsureAuthenticated(context.Context) (playwright.Page, error) {
	a.calls++
	return nil, a.err
}

type fakeSearcher struct {
	jobs     map[string][]models.Job // keyword → results
	enriched []string
}

func (s *fakeSearcher) Search(_ context.Context, _ playwright.Page, q scraper.SearchQuery) ([]models.Job, error) {
	return s.jobs[q.Keywords], nil
}

func (s *fakeSearcher) EnrichDescription(_ context.Context, _ playwright.Page, job *models.Job) error {
	s.enriched = append(s.enriched, job.ExternalID)
	job.Description = "enriched description for " + job.ExternalID
	return nil
}

type fakeRepo struct {
	seen       map[string]*models.Job
	nextID     int64
	backlog    []models.Job
	gotLimit   int
	gotRetries int
	pending    []string // resume names, in creation order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{seen: map[string]*models.Job{}}
}

func (r *fakeRepo) UpsertJob(_ context.Context, job *models.Job) (*models.Job, bool, error) {
	if existing, ok := r.seen[job.ExternalID]; ok {
		if existing.Description == "" {
			existing.Description = job.Description
		}
		return existing, false, nil
	}
	r.nextID++
	stored := *job
	stored.ID = r.nextID
	r.seen[job.ExternalID] = &stored
	return &stored, true, nil
}

func (r *fakeRepo) UnappliedEasyApplyJobs(_ context.Context, limit, maxAttempts int) ([]models.Job, error) {
	r.gotLimit = limit
	r.gotRetries = maxAttempts
	if len(r.backlog) > limit {
		return r.backlog[:limit], nil
	}
	return r.backlog, nil
}

func (r *fakeRepo) CreatePendingApplication(_ context.Context, jobID int64, resumeUsed string) (*models.Application, error) {
	r.pending = append(r.pending, resumeUsed)
	return &models.Application{ID: int64(len(r.pending)), JobID: jobID, Status: models.StatusPending}, nil
}

// fakeApplier returns scripted outcomes keyed by job external ID.
type fakeApplier struct {
	outcomes map[string]applier.Outcome
	applied  []string
	onApply  func()
}

func (a *fakeApplier) Apply(_ context.Context, _ applier.Flow, job models.Job, _ models.ResumeProfile, _ int64) (applier.Outcome, error) {
	a.applied = append(a.applied, job.ExternalID)
	if a.onApply != nil {
		a.onApply()
	}
	if out, ok := a.outcomes[job.ExternalID]; ok {
		return out, nil
	}
	return applier.Outcome{Status: models.StatusApplied}, nil
}

func nilFlowFactory(playwright.Page) applier.Flow { return nil }

var embeddedProfile = models.ResumeProfile{
	Name: "Embedded", File: "embedded.pdf",
	Keywords: []string{"embedded", "firmware", "rtos"}, Weight: 1.0,
}

var backendProfile = models.ResumeProfile{
	Name: "Backend", File: "backend.pdf",
	Keywords: []string{"go", "api", "postgres"}, Weight: 1.0,
}

func testOptions() Options {
	return Options{
		Keywords:        []string{"embedded engineer"},
		Location:        "Remote",
		MaxPages:        2,
		Profiles:        []models.ResumeProfile{backendProfile, embeddedProfile},
		MaxApplications: 10,
		MaxAttempts:     3,
	}
}

func job(externalID, title, desc string) models.Job {
	return models.Job{
		ExternalID:  externalID,
		Title:       title,
		Description: desc,
		Company:     "Acme",
		URL:         "https://www.linkedin.com/jobs/view/" + externalID + "/",
		EasyApply:   true,
	}
}

func TestRunSearch_ChallengeAbortsBeforeAnyWork(t *testing.T) {
	authn := &fakeAuth{err: fmt.Errorf("login: %w", auth.ErrChallengePending)}
	search := &fakeSearcher{}
	repo := newFakeRepo()
	o := New(authn, search, repo, &fakeApplier{}, nilFlowFactory, testOptions())

	report, err := o.RunSearch(context.Background())
	require.ErrorIs(t, err, auth.ErrChallengePending)

	assert.Equal(t, AbortChallenge, report.AbortReason)
	assert.Zero(t, report.Scraped)
	assert.Empty(t, repo.seen, "no job may be stored on an aborted run")
}

func TestRunApply_BadCredentialsReportedDistinctly(t *testing.T) {
	authn := &fakeAuth{err: auth.ErrLoginFailed}
	repo := newFakeRepo()
	repo.backlog = []models.Job{job("1", "Firmware Engineer", "rtos work")}
	o := New(authn, &fakeSearcher{}, repo, &fakeApplier{}, nilFlowFactory, testOptions())

	report, err := o.RunApply(context.Background())
	require.ErrorIs(t, err, auth.ErrLoginFailed)

	assert.Equal(t, AbortBadCredentials, report.AbortReason)
	assert.NotEqual(t, AbortChallenge, report.AbortReason)
	assert.Zero(t, report.Applied+report.Skipped+report.Failed)
	assert.Empty(t, repo.pending, "no application record may be created on an aborted run")
}

func TestRunSearch_DedupsAndEnrichesOnlyNewJobs(t *testing.T) {
	search := &fakeSearcher{jobs: map[string][]models.Job{
		"embedded engineer": {
			job("100", "Embedded Engineer", ""),
			job("200", "Firmware Developer", "already has a description"),
			job("100", "Embedded Engineer", ""), // same posting seen twice
		},
	}}
	repo := newFakeRepo()
	o := New(&fakeAuth{}, search, repo, &fakeApplier{}, nilFlowFactory, testOptions())

	report, err := o.RunSearch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Scraped)
	assert.Equal(t, 2, report.New)
	assert.Len(t, repo.seen, 2)
	assert.Equal(t, []string{"100"}, search.enriched, "only the description-less new job costs a detail visit")
	assert.Equal(t, "enriched description for 100", repo.seen["100"].Description)
}

func TestRunApply_CountsOutcomesAndSelectsResumes(t *testing.T) {
	repo := newFakeRepo()
	repo.backlog = []models.Job{
		job("1", "Embedded Software Engineer", "firmware on rtos targets"),
		job("2", "Go Backend Engineer", "api services on postgres"),
		job("3", "Platform Engineer", "kubernetes things"),
	}
	app := &fakeApplier{outcomes: map[string]applier.Outcome{
		"2": {Status: models.StatusSkipped, Detail: applier.ReasonExternal},
		"3": {Status: models.StatusFailed, Detail: "form did not load"},
	}}
	o := New(&fakeAuth{}, &fakeSearcher{}, repo, app, nilFlowFactory, testOptions())

	report, err := o.RunApply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 3, repo.gotRetries)

	// a PENDING record precedes every attempt, with the matched resume
	assert.Equal(t, []string{"Embedded", "Backend", "Backend"}, repo.pending)
}

func TestRunApply_HonorsPerRunCap(t *testing.T) {
	opts := testOptions()
	opts.MaxApplications = 2

	repo := newFakeRepo()
	for i := 0; i < 5; i++ {
		repo.backlog = append(repo.backlog, job(fmt.Sprint(i), "Engineer", "work"))
	}
	app := &fakeApplier{}
	o := New(&fakeAuth{}, &fakeSearcher{}, repo, app, nilFlowFactory, opts)

	report, err := o.RunApply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, repo.gotLimit)
	assert.Equal(t, 2, report.Applied)
	assert.Len(t, app.applied, 2)
}

func TestRunApply_CancellationStopsAtJobBoundary(t *testing.T) {
	repo := newFakeRepo()
	repo.backlog = []models.Job{
		job("1", "Engineer", "work"),
		job("2", "Engineer", "work"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &fakeApplier{onApply: cancel} // cancel arrives mid-first-job
	o := New(&fakeAuth{}, &fakeSearcher{}, repo, app, nilFlowFactory, testOptions())

	report, err := o.RunApply(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"1"}, app.applied, "the in-flight job finishes, the next never starts")
	assert.Equal(t, 1, report.Applied)
}

func TestRunApply_CancellationDuringInterJobDelay(t *testing.T) {
	opts := testOptions()
	opts.JobDelay = 300 * time.Millisecond

	repo := newFakeRepo()
	repo.backlog = []models.Job{
		job("1", "Engineer", "work"),
		job("2", "Engineer", "work"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	//the cancel lands while the run is waiting out the inter-job delay
	app := &fakeApplier{onApply: func() {
		time.AfterFunc(50*time.Millisecond, cancel)
	}}
	o := New(&fakeAuth{}, &fakeSearcher{}, repo, app, nilFlowFactory, opts)

	report, err := o.RunApply(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"1"}, app.applied, "the delay is part of the job boundary, job 2 must never start")
	assert.Len(t, repo.pending, 1, "no application record may be created after the cancel")
	assert.Equal(t, 1, report.Applied)
}

func TestRunSearch_RetriesMissingDescriptionOnRescrape(t *testing.T) {
	repo := newFakeRepo()
	//a prior run stored the job but its detail fetch failed
	repo.seen["100"] = &models.Job{ID: 1, ExternalID: "100", Title: "Embedded Engineer"}
	repo.nextID = 1

	search := &fakeSearcher{jobs: map[string][]models.Job{
		"embedded engineer": {job("100", "Embedded Engineer", "")},
	}}
	o := New(&fakeAuth{}, search, repo, &fakeApplier{}, nilFlowFactory, testOptions())

	report, err := o.RunSearch(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.New, "a re-scraped job is not new")
	assert.Equal(t, []string{"100"}, search.enriched, "an empty description is retried on re-scrape")
	assert.NotEmpty(t, repo.seen["100"].Description)
}

func TestRunFull_SearchThenApplyWithOneLogin(t *testing.T) {
	authn := &fakeAuth{}
	search := &fakeSearcher{jobs: map[string][]models.Job{
		"embedded engineer": {job("100", "Embedded Engineer", "firmware")},
	}}
	repo := newFakeRepo()
	repo.backlog = []models.Job{job("100", "Embedded Engineer", "firmware")}
	o := New(authn, search, repo, &fakeApplier{}, nilFlowFactory, testOptions())

	report, err := o.RunFull(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, authn.calls, "one authentication covers both phases")
	assert.Equal(t, 1, report.Scraped)
	assert.Equal(t, 1, report.Applied)
	assert.NotEmpty(t, report.RunID)
	assert.Contains(t, report.Summary(), "Applied: 1")
}
