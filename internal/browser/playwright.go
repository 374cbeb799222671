package browser

import (
	"encoding/json"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Manager owns the playwright runtime and a single chromium instance for
// the lifetime of a run. One browser, one context: the remote service's
// anti-automation defenses make parallel sessions counterproductive.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

type Options struct {
	Headless bool
	SlowMoMs int
}

func NewManager(opts Options) (*Manager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMoMs)),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	return &Manager{pw: pw, browser: browser}, nil
}

// NewContext creates a browser context, restoring the serialized storage
// state when one is provided. A nil blob yields a fresh logged-out context.
func (m *Manager) NewContext(storageState []byte) (playwright.BrowserContext, error) {
	opts := playwright.BrowserNewContextOptions{}

	if len(storageState) > 0 {
		var state playwright.OptionalStorageState
		if err := json.Unmarshal(storageState, &state); err != nil {
			return nil, fmt.Errorf("failed to parse storage state: %w", err)
		}
		opts.StorageState = &state
	}

	ctx, err := m.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	return ctx, nil
}

// CaptureState serializes the context's cookies and local storage so the
// session can be restored in a later run.
func CaptureState(ctx playwright.BrowserContext) ([]byte, error) {
	state, err := ctx.StorageState()
	if err != nil {
		return nil, fmt.Errorf("failed to read storage state: %w", err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize storage state: %w", err)
	}
	return data, nil
}

func (m *Manager) Close() error {
	var firstErr error
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			firstErr = err
		}
	}
	if m.pw != nil {
		if err := m.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
