package auth

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go-jobpilot-automation/internal/browser"
	"go-jobpilot-automation/internal/session"

	"github.com/playwright-community/playwright-go"
)

const (
	loginURL = "https://www.linkedin.com/login"
	feedURL  = "https://www.linkedin.com/feed/"

	//selectors that only render for a logged-in member
	loggedInSelector = "#global-nav, .scaffold-layout__main, .feed-shared-update-v2"
)

// Authenticator owns the account session: it is the only component that
// reads or writes the session store, and the only source of authenticated
// pages for the scraper and the application driver.
type Authenticator struct {
	manager    *browser.Manager
	store      session.Store
	email      string
	password   string
	maxAge     time.Duration
	shots      *browser.ScreenshotDebugger
	state      State
	browserCtx playwright.BrowserContext
}

func New(manager *browser.Manager, store session.Store, email, password string, maxAge time.Duration) *Authenticator {
	return &Authenticator{
		manager:  manager,
		store:    store,
		email:    email,
		password: password,
		maxAge:   maxAge,
		shots:    browser.NewScreenshotDebugger(),
		state:    StateNoSession,
	}
}

func (a *Authenticator) State() State { return a.state }

func (a *Authenticator) transition(to State) {
	if !IsTransitionAllowed(a.state, to) {
		log.Printf("⚠️ Unexpected auth transition %s → %s", a.state, to)
	}
	a.state = to
}

// EnsureAuthenticated returns a page with a valid session, re-using the
// stored session when it is fresh and still accepted by the service, and
// submitting credentials otherwise. On success the session is re-persisted
// so the next run can skip login entirely.
func (a *Authenticator) EnsureAuthenticated(ctx context.Context) (playwright.Page, error) {
	//a prior run's context is replaced, not reused: its pages may be gone
	a.Close()
	a.transition(StateAuthenticating)

	if page, ok := a.tryStoredSession(ctx); ok {
		a.transition(StateAuthenticated)
		return page, nil
	}

	page, err := a.login(ctx)
	if err != nil {
		return nil, err
	}
	a.transition(StateAuthenticated)
	return page, nil
}

// tryStoredSession restores the persisted blob and probes it with a
// lightweight feed navigation. Any failure just falls back to login.
func (a *Authenticator) tryStoredSession(ctx context.Context) (playwright.Page, bool) {
	state, ok := a.store.Load(ctx)
	if !ok {
		log.Println("🔑 No stored session found.")
		return nil, false
	}
	if state.IsStale(a.maxAge) {
		log.Printf("🔑 Stored session is older than %s, discarding.", a.maxAge)
		a.store.Invalidate(ctx)
		return nil, false
	}

	browserCtx, err := a.manager.NewContext(state.BrowserState)
	if err != nil {
		log.Printf("⚠️ Could not restore session context: %v", err)
		return nil, false
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		return nil, false
	}

	if !a.probeLoggedIn(page) {
		log.Println("🔑 Stored session rejected by the service, re-authenticating.")
		a.store.Invalidate(ctx)
		browserCtx.Close()
		return nil, false
	}

	log.Println("✅ Stored session still valid, skipping login.")
	a.browserCtx = browserCtx
	return page, true
}

// probeLoggedIn navigates to the feed and waits for an element that only
// renders for authenticated members.
func (a *Authenticator) probeLoggedIn(page playwright.Page) bool {
	if _, err := page.Goto(feedURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return false
	}
	_, err := page.WaitForSelector(loggedInSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(10000),
	})
	return err == nil
}

func (a *Authenticator) login(ctx context.Context) (playwright.Page, error) {
	if a.email == "" || a.password == "" {
		a.transition(StateFailed)
		return nil, fmt.Errorf("%w: no stored session and no credentials configured", ErrLoginFailed)
	}

	browserCtx, err := a.manager.NewContext(nil)
	if err != nil {
		a.transition(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		a.transition(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	log.Println("🔐 Submitting credentials...")
	if _, err := page.Goto(loginURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		browserCtx.Close()
		a.transition(StateFailed)
		return nil, fmt.Errorf("%w: login page unreachable: %v", ErrLoginFailed, err)
	}

	if err := page.Locator("#username").Fill(a.email); err != nil {
		browserCtx.Close()
		a.transition(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if err := page.Locator("#password").Fill(a.password); err != nil {
		browserCtx.Close()
		a.transition(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if err := page.Locator(`button[type="submit"]`).Click(); err != nil {
		browserCtx.Close()
		a.transition(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	browser.RandomDelay(4000, 6000)

	//interactive verification wall: nothing automated can get past it
	if url := page.URL(); strings.Contains(url, "checkpoint") || strings.Contains(url, "challenge") {
		a.shots.CaptureAndLog(page, "auth-challenge", "🚨 Security challenge detected during login")
		browserCtx.Close()
		a.transition(StateChallengePending)
		return nil, ErrChallengePending
	}

	if !a.probeLoggedIn(page) {
		browserCtx.Close()
		a.transition(StateFailed)
		return nil, ErrLoginFailed
	}

	log.Println("✅ Login successful.")
	a.browserCtx = browserCtx
	a.persistSession(ctx, browserCtx)
	return page, nil
}

// persistSession captures and saves the session blob. A save failure is
// logged, not fatal: the run already holds a live session.
func (a *Authenticator) persistSession(ctx context.Context, browserCtx playwright.BrowserContext) {
	blob, err := browser.CaptureState(browserCtx)
	if err != nil {
		log.Printf("⚠️ Failed to capture session state: %v", err)
		return
	}
	if err := a.store.Save(ctx, &session.State{
		CapturedAt:   time.Now().UTC(),
		BrowserState: blob,
	}); err != nil {
		log.Printf("⚠️ Failed to persist session: %v", err)
		return
	}
	log.Println("💾 Session persisted for future runs.")
}

func (a *Authenticator) Close() {
	if a.browserCtx != nil {
		a.browserCtx.Close()
		a.browserCtx = nil
	}
}
