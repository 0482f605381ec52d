package microsoft

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-careerwatch/internal/browser"
	"go-careerwatch/internal/filter"
	"go-careerwatch/internal/scraper"

	"github.com/playwright-community/playwright-go"
)

const (
	companyName  = "Microsoft"
	baseURL      = "https://apply.careers.microsoft.com"
	listSelector = `div[role="list"]`
)

type MicrosoftScraper struct {
	opener     browser.Opener
	timeout    time.Duration
	screenshot *browser.ScreenshotDebugger
}

func NewMicrosoftScraper(opener browser.Opener, timeout time.Duration, screenshot *browser.ScreenshotDebugger) *MicrosoftScraper {
	return &MicrosoftScraper{
		opener:     opener,
		timeout:    timeout,
		screenshot: screenshot,
	}
}

func (s *MicrosoftScraper) Name() string {
	return companyName
}

func (s *MicrosoftScraper) Scrape(ctx context.Context, target scraper.Target) ([]scraper.Posting, error) {
	if err := ctx.Err(); err != nil {
		return nil, &scraper.FetchError{Source: companyName, Err: err}
	}

	page, err := s.opener.NewPage()
	if err != nil {
		return nil, &scraper.FetchError{Source: companyName, Err: err}
	}
	defer func() { _ = page.Context().Close() }()

	timeoutMs := float64(s.timeout.Milliseconds())

	//navigate
	log.Printf("🔍 Navigating to %s ...", target.URL)
	if _, err := page.Goto(target.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(timeoutMs),
	}); err != nil {
		return nil, &scraper.FetchError{Source: companyName, Err: fmt.Errorf("navigate: %w", err)}
	}

	//wait for the job list to render
	if err := page.Locator(listSelector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(timeoutMs),
	}); err != nil {
		s.screenshot.CaptureAndLog(page, "microsoft-no-list", "🚨 Microsoft: job list did not render")
		return nil, &scraper.FetchError{Source: companyName, Err: fmt.Errorf("job list %s not found: %w", listSelector, err)}
	}

	//lazy loaded cards
	if err := browser.ScrollToBottom(page, 3); err != nil {
		log.Printf("⚠️ Scroll failed: %v", err)
	}

	html, err := page.Content()
	if err != nil {
		return nil, &scraper.FetchError{Source: companyName, Err: fmt.Errorf("read page content: %w", err)}
	}

	cards, err := ParseCards(html)
	if err != nil {
		return nil, &scraper.FetchError{Source: companyName, Err: err}
	}
	log.Printf("📦 Found %d job cards", len(cards))

	return toPostings(cards, target.Role, time.Now()), nil
}

func toPostings(cards []Card, role string, now time.Time) []scraper.Posting {
	postings := make([]scraper.Posting, 0, len(cards))
	for _, c := range cards {
		p, err := c.Posting(now)
		if err != nil {
			log.Printf("⚠️ Skipping malformed card: %v", err)
			continue
		}
		if !filter.MatchesRole(p.Title, role) {
			continue
		}
		postings = append(postings, p)
		log.Printf("      ✅ %s - %s", p.Title, p.Location)
	}
	return postings
}
