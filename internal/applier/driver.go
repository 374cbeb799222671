package applier

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"go-jobpilot-automation/internal/ai"
	"go-jobpilot-automation/internal/models"
)

const (
	// ReasonExternal marks the expected non-error outcome of a posting
	// whose apply button leaves the platform.
	ReasonExternal = "external application"
	// ReasonAlreadyApplied marks the defensive skip when the platform
	// reports a prior application the repository does not know about.
	ReasonAlreadyApplied = "already applied on platform"

	maxFormSteps = 10
)

// ApplicationWriter is the slice of the repository the driver needs:
// the single write path that moves an application out of PENDING.
type ApplicationWriter interface {
	FinishApplication(ctx context.Context, appID int64, status models.ApplicationStatus, coverLetter, errDetail string) error
}

// Driver walks one job's application form to a terminal state:
//
//	SELECTED → FORM_OPENED → {STEP_SUBMITTING}* → SUBMITTED | ABORTED
type Driver struct {
	repo             ApplicationWriter
	letters          ai.Client // nil disables generated cover letters
	letterTimeout    time.Duration
	candidateSummary string
	resumesDir       string
}

func NewDriver(repo ApplicationWriter, letters ai.Client, letterTimeout time.Duration, candidateSummary, resumesDir string) *Driver {
	return &Driver{
		repo:             repo,
		letters:          letters,
		letterTimeout:    letterTimeout,
		candidateSummary: candidateSummary,
		resumesDir:       resumesDir,
	}
}

// Outcome is the terminal result of one apply attempt.
type Outcome struct {
	Status models.ApplicationStatus
	Detail string
}

// Apply drives the flow for one job and records the terminal state
// through the repository before returning. The returned error is reserved
// for repository write failures; form trouble is expressed as a FAILED
// or SKIPPED outcome, not an error.
//
// Cancellation is deliberately not checked between steps: severing a
// half-submitted form would leave the remote account in an inconsistent
// state, so an in-progress submission always runs to its own conclusion.
func (d *Driver) Apply(ctx context.Context, flow Flow, job models.Job, profile models.ResumeProfile, appID int64) (Outcome, error) {
	outcome := d.runFlow(ctx, flow, job, profile)

	if err := d.repo.FinishApplication(ctx, appID, outcome.Status, outcome.coverLetter, outcome.Detail); err != nil {
		return outcome.Outcome, fmt.Errorf("failed to record application outcome: %w", err)
	}
	return outcome.Outcome, nil
}

type flowResult struct {
	Outcome
	coverLetter string
}

func (d *Driver) runFlow(ctx context.Context, flow Flow, job models.Job, profile models.ResumeProfile) flowResult {
	defer flow.Close(ctx)

	kind, err := flow.Open(ctx, job.URL)
	if err != nil {
		return failed(fmt.Sprintf("failed to open apply flow: %v", err))
	}

	switch kind {
	case FlowExternal:
		log.Printf("↪️ %s @ %s uses an external application, skipping.", job.Title, job.Company)
		return skipped(ReasonExternal)
	case FlowAlreadyApplied:
		log.Printf("↪️ %s @ %s already applied on platform, skipping.", job.Title, job.Company)
		return skipped(ReasonAlreadyApplied)
	}

	var coverLetter string
	for step := 0; step < maxFormSteps; step++ {
		formStep, err := flow.CurrentStep(ctx)
		if err != nil {
			return failed(fmt.Sprintf("failed to inspect form step: %v", err))
		}
		if formStep == nil {
			//confirmation reached without a final advance
			return applied(coverLetter)
		}

		switch formStep.Kind {
		case StepResume:
			path := filepath.Join(d.resumesDir, profile.File)
			if err := flow.AttachResume(ctx, path); err != nil {
				return failed(fmt.Sprintf("failed to attach resume: %v", err))
			}
			log.Printf("📎 Attached resume %s", profile.File)

		case StepCoverLetter:
			coverLetter = d.coverLetterFor(ctx, job)
			if err := flow.FillCoverLetter(ctx, coverLetter); err != nil {
				return failed(fmt.Sprintf("failed to fill cover letter: %v", err))
			}

		case StepCustom:
			//never guess an answer to an unrecognized required question
			log.Printf("❓ Unanswerable question %q, skipping job.", formStep.Label)
			return skipped(fmt.Sprintf("unanswerable question: %s", formStep.Label))
		}

		submitted, err := flow.Advance(ctx)
		if err != nil {
			return failed(fmt.Sprintf("failed to advance form: %v", err))
		}
		if submitted {
			log.Printf("✅ Application submitted for %s @ %s", job.Title, job.Company)
			return applied(coverLetter)
		}
	}

	return failed(fmt.Sprintf("form did not reach confirmation within %d steps", maxFormSteps))
}

// coverLetterFor asks the cover-letter service within its budget and
// degrades to the deterministic template on any failure. A missing letter
// must never abort an otherwise fillable application.
func (d *Driver) coverLetterFor(ctx context.Context, job models.Job) string {
	req := ai.Request{
		JobTitle:         job.Title,
		Company:          job.Company,
		JobDescription:   job.Description,
		CandidateSummary: d.candidateSummary,
	}
	if d.letters == nil {
		return ai.TemplateLetter(req)
	}

	//detached from run cancellation: the form is already mid-submission
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.letterTimeout)
	defer cancel()

	letter, err := d.letters.Generate(genCtx, req)
	if err != nil {
		log.Printf("⚠️ Cover letter service failed (%v), using template.", err)
		return ai.TemplateLetter(req)
	}
	return letter
}

func applied(coverLetter string) flowResult {
	return flowResult{Outcome: Outcome{Status: models.StatusApplied}, coverLetter: coverLetter}
}

func skipped(reason string) flowResult {
	return flowResult{Outcome: Outcome{Status: models.StatusSkipped, Detail: reason}}
}

func failed(detail string) flowResult {
	return flowResult{Outcome: Outcome{Status: models.StatusFailed, Detail: detail}}
}
