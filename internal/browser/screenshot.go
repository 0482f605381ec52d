package browser

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenshotDebugger saves a full-page screenshot when a page does not look
// the way a scraper expects, so selector drift can be diagnosed after the run.
type ScreenshotDebugger struct {
	outputDir string
}

// NewScreenshotDebugger returns nil for an empty dir; a nil debugger is a no-op.
func NewScreenshotDebugger(dir string) *ScreenshotDebugger {
	if dir == "" {
		return nil
	}
	return &ScreenshotDebugger{outputDir: dir}
}

func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, name, message string) {
	if s == nil {
		return
	}
	log.Printf("📸 %s", message)

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		log.Printf("⚠️ Failed to create screenshot dir: %v", err)
		return
	}

	filename := fmt.Sprintf("%s_%s.png", name, time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.outputDir, filename)
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return
	}
	log.Printf("   Screenshot saved: %s", path)
}
