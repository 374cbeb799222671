// Package applier drives a job's multi-step application form to a
// terminal outcome. The hardest bugs in this class of system are
// partial-submission inconsistencies, so every step outcome is an
// explicit tagged value and every terminal transition is written to the
// repository before the driver moves on.
package applier

import "context"

// FlowKind is what opening a job's apply flow revealed.
type FlowKind int

const (
	// FlowNative is the platform's in-page multi-step form.
	FlowNative FlowKind = iota
	// FlowExternal redirects to an external application site. Expected,
	// not an error; recorded as SKIPPED.
	FlowExternal
	// FlowAlreadyApplied means the platform reports a prior application.
	FlowAlreadyApplied
)

// StepKind classifies the current form step.
type StepKind int

const (
	// StepNeutral needs no input from us; just advance.
	StepNeutral StepKind = iota
	// StepResume wants a document upload.
	StepResume
	// StepCoverLetter is a free-text field recognizable as a cover letter.
	StepCoverLetter
	// StepCustom has required fields we cannot fill automatically. The
	// driver aborts as SKIPPED rather than guessing an answer.
	StepCustom
)

// FormStep describes the form's current step.
type FormStep struct {
	Kind  StepKind
	Label string
}

// Flow abstracts the browser-driven application form so the driver's
// state machine can be exercised without a browser.
type Flow interface {
	// Open navigates to the job's apply flow and reports its kind.
	Open(ctx context.Context, jobURL string) (FlowKind, error)

	// CurrentStep inspects the open form. A nil step means the
	// confirmation screen was reached.
	CurrentStep(ctx context.Context) (*FormStep, error)

	AttachResume(ctx context.Context, path string) error
	FillCoverLetter(ctx context.Context, text string) error

	// Advance clicks the form's primary action and reports whether the
	// submission confirmation appeared.
	Advance(ctx context.Context) (submitted bool, err error)

	// Close dismisses the form, discarding any in-progress draft.
	Close(ctx context.Context) error
}
