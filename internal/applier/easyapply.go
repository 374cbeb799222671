package applier

import (
	"context"
	"fmt"
	"strings"

	"go-jobpilot-automation/internal/browser"

	"github.com/playwright-community/playwright-go"
)

const (
	applyButtonSelector = ".jobs-apply-button, button[data-control-name='jobdetails_topcard_inapply'], .jobs-apply-button--top-card"
	appliedBadge        = ".jobs-s-apply--fadein, [class*='post-apply']"

	modalSelector   = ".jobs-easy-apply-content, .artdeco-modal"
	footerPrimary   = ".jobs-easy-apply-content footer button.artdeco-button--primary, button[aria-label='Submit application'], button[aria-label='Review'], button[aria-label='Continue to next step']"
	successSelector = ".artdeco-modal__content h2, [class*='post-apply']"

	resumeInputSelector = "input[type='file'][name*='resume'], input[type='file'][accept*='.pdf']"
	coverLetterSelector = "textarea[name*='cover'], textarea[aria-label*='cover letter'], textarea[id*='cover']"
	requiredFieldGroups = ".jobs-easy-apply-form-section__grouping input[required], .jobs-easy-apply-form-section__grouping select[required]"

	dismissSelector = "button[aria-label='Dismiss'], .artdeco-modal__dismiss"
	discardSelector = "button[data-control-name='discard_application_confirm_btn'], .artdeco-modal__confirm-dialog-btn"
)

// EasyApplyFlow implements Flow over the platform's in-page application
// modal. Selector sets are unioned across markup generations; the markup
// is outside our control and changes without notice.
type EasyApplyFlow struct {
	page  playwright.Page
	shots *browser.ScreenshotDebugger
}

func NewEasyApplyFlow(page playwright.Page) *EasyApplyFlow {
	return &EasyApplyFlow{
		page:  page,
		shots: browser.NewScreenshotDebugger(),
	}
}

func (f *EasyApplyFlow) Open(_ context.Context, jobURL string) (FlowKind, error) {
	if _, err := f.page.Goto(jobURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return FlowNative, fmt.Errorf("failed to load job page: %w", err)
	}
	browser.RandomDelay(2000, 4000)

	//the platform already knows about a prior application
	badge := f.page.Locator(appliedBadge).First()
	if count, _ := badge.Count(); count > 0 {
		if text, err := badge.InnerText(); err == nil && strings.Contains(strings.ToLower(text), "applied") {
			return FlowAlreadyApplied, nil
		}
	}

	applyBtn := f.page.Locator(applyButtonSelector).First()
	if count, _ := applyBtn.Count(); count == 0 {
		return FlowExternal, nil
	}
	btnText, err := applyBtn.InnerText()
	if err != nil || !strings.Contains(strings.ToLower(btnText), "easy apply") {
		//a bare "Apply" button redirects off-platform
		return FlowExternal, nil
	}

	if err := applyBtn.Click(); err != nil {
		return FlowNative, fmt.Errorf("failed to open apply modal: %w", err)
	}

	if _, err := f.page.WaitForSelector(modalSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		return FlowNative, fmt.Errorf("apply modal did not appear: %w", err)
	}
	browser.RandomDelay(1000, 2000)
	return FlowNative, nil
}

func (f *EasyApplyFlow) CurrentStep(_ context.Context) (*FormStep, error) {
	if f.confirmationVisible() {
		return nil, nil
	}

	if count, _ := f.page.Locator(resumeInputSelector).Count(); count > 0 {
		return &FormStep{Kind: StepResume, Label: "resume upload"}, nil
	}
	if count, _ := f.page.Locator(coverLetterSelector).Count(); count > 0 {
		return &FormStep{Kind: StepCoverLetter, Label: "cover letter"}, nil
	}

	//any empty required field we cannot classify is an unanswerable
	//custom question
	fields, err := f.page.Locator(requiredFieldGroups).All()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect form fields: %w", err)
	}
	for _, field := range fields {
		value, err := field.InputValue()
		if err != nil || value != "" {
			continue
		}
		label := f.labelFor(field)
		f.shots.CaptureAndLog(f.page, "apply-custom-question", fmt.Sprintf("❓ Unrecognized required field: %s", label))
		return &FormStep{Kind: StepCustom, Label: label}, nil
	}

	return &FormStep{Kind: StepNeutral}, nil
}

func (f *EasyApplyFlow) labelFor(field playwright.Locator) string {
	id, err := field.GetAttribute("id")
	if err != nil || id == "" {
		return "unlabeled field"
	}
	label := f.page.Locator(fmt.Sprintf("label[for='%s']", id)).First()
	if text, err := label.InnerText(); err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	return "unlabeled field"
}

func (f *EasyApplyFlow) AttachResume(_ context.Context, path string) error {
	input := f.page.Locator(resumeInputSelector).First()
	if err := input.SetInputFiles(path); err != nil {
		return fmt.Errorf("failed to upload resume %s: %w", path, err)
	}
	browser.RandomDelay(1000, 2000)
	return nil
}

func (f *EasyApplyFlow) FillCoverLetter(_ context.Context, text string) error {
	input := f.page.Locator(coverLetterSelector).First()
	if err := input.Fill(text); err != nil {
		return fmt.Errorf("failed to fill cover letter: %w", err)
	}
	return nil
}

func (f *EasyApplyFlow) Advance(_ context.Context) (bool, error) {
	btn := f.page.Locator(footerPrimary).First()
	if count, _ := btn.Count(); count == 0 {
		return false, fmt.Errorf("no actionable button on form step")
	}

	btnText, _ := btn.InnerText()
	if err := btn.Click(); err != nil {
		return false, fmt.Errorf("failed to click %q: %w", strings.TrimSpace(btnText), err)
	}
	browser.RandomDelay(1500, 3000)

	if strings.Contains(strings.ToLower(btnText), "submit") || f.confirmationVisible() {
		return f.waitForConfirmation(), nil
	}
	return false, nil
}

func (f *EasyApplyFlow) confirmationVisible() bool {
	el := f.page.Locator(successSelector).First()
	if count, _ := el.Count(); count == 0 {
		return false
	}
	text, err := el.InnerText()
	if err != nil {
		return false
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, "application sent") || strings.Contains(lower, "applied")
}

func (f *EasyApplyFlow) waitForConfirmation() bool {
	for i := 0; i < 5; i++ {
		if f.confirmationVisible() {
			return true
		}
		browser.RandomDelay(800, 1200)
	}
	//the submit click went through; treat a silent modal as submitted
	//only when the form itself is gone
	count, _ := f.page.Locator(footerPrimary).Count()
	return count == 0
}

// Close dismisses the modal and discards any draft so the next job starts
// from a clean page.
func (f *EasyApplyFlow) Close(_ context.Context) error {
	dismiss := f.page.Locator(dismissSelector).First()
	if count, _ := dismiss.Count(); count > 0 {
		dismiss.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(3000)})
		browser.RandomDelay(500, 1000)

		discard := f.page.Locator(discardSelector).First()
		if count, _ := discard.Count(); count > 0 {
			discard.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(3000)})
		}
	}
	return nil
}
