// Package pipeline sequences the run: authenticate, scrape, dedup,
// select a resume, apply, report. It owns run-level policy (caps,
// pacing, abort-on-auth-failure) while the stage packages own their own
// mechanics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-jobpilot-automation/internal/applier"
	"go-jobpilot-automation/internal/auth"
	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/resume"
	"go-jobpilot-automation/internal/scraper"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// Abort reasons surfaced in the run report. A challenge is operator
// work, bad credentials are a config problem; the report must let the
// reader tell them apart without reading logs.
const (
	AbortChallenge      = "security challenge pending, manual login required"
	AbortBadCredentials = "login rejected, check credentials"
)

type Authenticator interface {
	EnsureAuthenticated(ctx context.Context) (playwright.Page, error)
}

type Searcher interface {
	Search(ctx context.Context, page playwright.Page, q scraper.SearchQuery) ([]models.Job, error)
	EnrichDescription(ctx context.Context, page playwright.Page, job *models.Job) error
}

type Repository interface {
	UpsertJob(ctx context.Context, job *models.Job) (*models.Job, bool, error)
	UnappliedEasyApplyJobs(ctx context.Context, limit, maxAttempts int) ([]models.Job, error)
	CreatePendingApplication(ctx context.Context, jobID int64, resumeUsed string) (*models.Application, error)
}

type Applier interface {
	Apply(ctx context.Context, flow applier.Flow, job models.Job, profile models.ResumeProfile, appID int64) (applier.Outcome, error)
}

// FlowFactory builds a fresh apply flow per job on the shared page.
type FlowFactory func(page playwright.Page) applier.Flow

// Options carries the run-level knobs resolved from configuration.
type Options struct {
	Keywords         []string
	Location         string
	ExperienceLevels []scraper.ExperienceLevel
	DatePosted       scraper.DatePosted
	EasyApplyOnly    bool
	MaxPages         int

	Profiles        []models.ResumeProfile
	MaxApplications int
	MaxAttempts     int
	JobDelay        time.Duration
}

// Report summarizes one run for logs and the reporter.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Scraped int
	New     int

	Applied int
	Skipped int
	Failed  int

	// AbortReason is set when the run ended before doing its work.
	AbortReason string
}

type Orchestrator struct {
	auth    Authenticator
	search  Searcher
	repo    Repository
	applier Applier
	flows   FlowFactory
	opts    Options
}

func New(authn Authenticator, search Searcher, repo Repository, app Applier, flows FlowFactory, opts Options) *Orchestrator {
	return &Orchestrator{
		auth:    authn,
		search:  search,
		repo:    repo,
		applier: app,
		flows:   flows,
		opts:    opts,
	}
}

// RunSearch scrapes all configured keyword searches into the repository.
func (o *Orchestrator) RunSearch(ctx context.Context) (*Report, error) {
	report := newReport()
	defer report.finish()

	page, err := o.auth.EnsureAuthenticated(ctx)
	if err != nil {
		return report, o.abort(report, err)
	}
	return report, o.searchPhase(ctx, page, report)
}

// RunApply drains the backlog of unapplied easy-apply jobs, oldest first,
// up to the per-run cap.
func (o *Orchestrator) RunApply(ctx context.Context) (*Report, error) {
	report := newReport()
	defer report.finish()

	page, err := o.auth.EnsureAuthenticated(ctx)
	if err != nil {
		return report, o.abort(report, err)
	}
	return report, o.applyPhase(ctx, page, report)
}

// RunFull is a search phase followed by an apply phase on the same
// authenticated page.
func (o *Orchestrator) RunFull(ctx context.Context) (*Report, error) {
	report := newReport()
	defer report.finish()

	page, err := o.auth.EnsureAuthenticated(ctx)
	if err != nil {
		return report, o.abort(report, err)
	}
	if err := o.searchPhase(ctx, page, report); err != nil {
		return report, err
	}
	return report, o.applyPhase(ctx, page, report)
}

func (o *Orchestrator) searchPhase(ctx context.Context, page playwright.Page, report *Report) error {
	for _, keyword := range o.opts.Keywords {
		if err := ctx.Err(); err != nil {
			return err
		}

		q := scraper.SearchQuery{
			Keywords:         keyword,
			Location:         o.opts.Location,
			ExperienceLevels: o.opts.ExperienceLevels,
			DatePosted:       o.opts.DatePosted,
			EasyApplyOnly:    o.opts.EasyApplyOnly,
			MaxPages:         o.opts.MaxPages,
		}

		jobs, err := o.search.Search(ctx, page, q)
		if err != nil {
			return fmt.Errorf("search for %q failed: %w", keyword, err)
		}
		report.Scraped += len(jobs)

		for i := range jobs {
			stored, isNew, err := o.repo.UpsertJob(ctx, &jobs[i])
			if err != nil {
				return fmt.Errorf("failed to store job %s: %w", jobs[i].ExternalID, err)
			}
			if isNew {
				report.New++
			}

			//a detail-page visit for any posting still missing its
			//description, so a failed fetch gets retried on re-scrape
			if stored.Description == "" {
				if err := o.search.EnrichDescription(ctx, page, stored); err != nil {
					log.Printf("⚠️ Could not fetch description for %s: %v", stored.ExternalID, err)
					continue
				}
				if _, _, err := o.repo.UpsertJob(ctx, stored); err != nil {
					return fmt.Errorf("failed to store description for %s: %w", stored.ExternalID, err)
				}
			}
		}
		log.Printf("📦 %q: %d scraped, %d new so far", keyword, len(jobs), report.New)
	}
	return nil
}

func (o *Orchestrator) applyPhase(ctx context.Context, page playwright.Page, report *Report) error {
	jobs, err := o.repo.UnappliedEasyApplyJobs(ctx, o.opts.MaxApplications, o.opts.MaxAttempts)
	if err != nil {
		return fmt.Errorf("failed to load unapplied jobs: %w", err)
	}
	log.Printf("🎯 %d jobs eligible this run (cap %d)", len(jobs), o.opts.MaxApplications)

	for i, job := range jobs {
		//cancellation is honored between jobs only; a form mid-submission
		//always runs to its conclusion. The inter-job delay is part of the
		//boundary, so a cancel arriving during it stops the run too.
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.opts.JobDelay):
			}
		}

		sel, err := resume.Select(job.Title, job.Description, o.opts.Profiles)
		if err != nil {
			return fmt.Errorf("resume selection failed: %w", err)
		}
		log.Printf("📄 %s @ %s → resume %q (score %.1f)", job.Title, job.Company, sel.Profile.Name, sel.Score)

		app, err := o.repo.CreatePendingApplication(ctx, job.ID, sel.Profile.Name)
		if err != nil {
			return fmt.Errorf("failed to create application record: %w", err)
		}

		outcome, err := o.applier.Apply(ctx, o.flows(page), job, sel.Profile, app.ID)
		if err != nil {
			return err
		}
		switch outcome.Status {
		case models.StatusApplied:
			report.Applied++
		case models.StatusSkipped:
			report.Skipped++
		case models.StatusFailed:
			report.Failed++
			log.Printf("❌ %s @ %s failed: %s", job.Title, job.Company, outcome.Detail)
		}
	}
	return nil
}

// abort classifies an authentication failure. No scraping or applying
// has happened when this is called.
func (o *Orchestrator) abort(report *Report, err error) error {
	switch {
	case errors.Is(err, auth.ErrChallengePending):
		report.AbortReason = AbortChallenge
	case errors.Is(err, auth.ErrLoginFailed):
		report.AbortReason = AbortBadCredentials
	default:
		report.AbortReason = err.Error()
	}
	log.Printf("🛑 Run %s aborted: %s", report.RunID, report.AbortReason)
	return err
}

func newReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

func (r *Report) finish() {
	r.Duration = time.Since(r.StartedAt).Round(time.Second)
}

// Summary renders the report as the human-readable block used by both
// the log and the Telegram reporter.
func (r *Report) Summary() string {
	if r.AbortReason != "" {
		return fmt.Sprintf("Run %s aborted after %s: %s", r.RunID, r.Duration, r.AbortReason)
	}
	return fmt.Sprintf(
		"Run %s finished in %s\nScraped: %d (%d new)\nApplied: %d | Skipped: %d | Failed: %d",
		r.RunID, r.Duration, r.Scraped, r.New, r.Applied, r.Skipped, r.Failed,
	)
}
