package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScrollToBottom scrolls in steps so lazily rendered list items get attached.
func ScrollToBottom(page playwright.Page, steps int) error {
	for i := 0; i < steps; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight)"); err != nil {
			return err
		}
		time.Sleep(300 * time.Millisecond)
	}
	_, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}
