package browser

import (
	"errors"
	"fmt"
	"log"

	"github.com/playwright-community/playwright-go"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Opener hands out pages and API request contexts to scrapers.
type Opener interface {
	NewPage() (playwright.Page, error)
	NewRequest() (playwright.APIRequestContext, error)
}

// PlaywrightManager owns the driver and a lazily launched Chromium.
// Sources that only call JSON endpoints never start a browser.
type PlaywrightManager struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	headless bool
}

func NewPlaywright(headless bool) (*PlaywrightManager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	return &PlaywrightManager{pw: pw, headless: headless}, nil
}

func (pm *PlaywrightManager) launch() (playwright.Browser, error) {
	if pm.browser != nil {
		return pm.browser, nil
	}
	log.Println("🌐 Launching Chromium...")
	browser, err := pm.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(pm.headless),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}
	pm.browser = browser
	return browser, nil
}

// NewPage opens a page in a fresh context. Closing the page's context
// (page.Context().Close()) releases both.
func (pm *PlaywrightManager) NewPage() (playwright.Page, error) {
	browser, err := pm.launch()
	if err != nil {
		return nil, err
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return page, nil
}

// NewRequest returns an API request context; the caller disposes it.
func (pm *PlaywrightManager) NewRequest() (playwright.APIRequestContext, error) {
	req, err := pm.pw.Request.NewContext(playwright.APIRequestNewContextOptions{
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create request context: %w", err)
	}
	return req, nil
}

func (pm *PlaywrightManager) Close() error {
	var errs []error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if err := pm.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}
