package browser

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenshotDebugger captures full-page screenshots when the pipeline hits
// an unexpected page state (challenge wall, broken form), so the operator
// can see what the browser saw.
type ScreenshotDebugger struct {
	outputDir string
}

func NewScreenshotDebugger() *ScreenshotDebugger {
	return &ScreenshotDebugger{outputDir: filepath.Join("logs", "screenshots")}
}

// CaptureAndLog logs the message and saves a full-page screenshot named
// after the event. The capture is best-effort: its own failure is logged
// and returned but must never escalate past the caller.
func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, name, message string) error {
	log.Printf("📸 %s", message)

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		log.Printf("⚠️ Could not create screenshot directory: %v", err)
		return err
	}

	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", sanitizeName(name), time.Now().Format("20060102-150405")))
	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return err
	}

	log.Printf("   Saved %s (page: %s)", path, page.URL())
	return nil
}

// sanitizeName keeps event names filesystem-safe.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
}
