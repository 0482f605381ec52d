package amazon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-careerwatch/internal/browser"
	"go-careerwatch/internal/config"
	"go-careerwatch/internal/scraper"

	"github.com/playwright-community/playwright-go"
)

const (
	companyName   = "Amazon"
	siteURL       = "https://www.amazon.jobs"
	searchPageURL = siteURL + "/en/search"
	searchJSONURL = siteURL + "/en/search.json"
	// settle time after navigation so late XHRs are captured
	interceptWait = 6 * time.Second
)

// AmazonScraper queries the search.json endpoint and falls back to loading
// the search page and capturing its XHR responses when the endpoint yields nothing.
type AmazonScraper struct {
	opener  browser.Opener
	cfg     config.AmazonConfig
	timeout time.Duration
}

func NewAmazonScraper(opener browser.Opener, cfg config.AmazonConfig, timeout time.Duration) *AmazonScraper {
	return &AmazonScraper{
		opener:  opener,
		cfg:     cfg,
		timeout: timeout,
	}
}

func (s *AmazonScraper) Name() string {
	return companyName
}

// Params are the search parameters sent to both the endpoint and the page.
func (s *AmazonScraper) Params(target scraper.Target) map[string]string {
	query := s.cfg.BaseQuery
	if query == "" {
		query = target.Role
	}
	return map[string]string{
		"base_query":   query,
		"sort":         s.cfg.Sort,
		"offset":       strconv.Itoa(s.cfg.Offset),
		"result_limit": strconv.Itoa(s.cfg.ResultLimit),
	}
}

func (s *AmazonScraper) Scrape(ctx context.Context, target scraper.Target) ([]scraper.Posting, error) {
	if err := ctx.Err(); err != nil {
		return nil, &scraper.FetchError{Source: companyName, Err: err}
	}
	params := s.Params(target)

	log.Printf("🔍 Querying %s (%s)", searchJSONURL, params["base_query"])
	payload, jsonErr := s.fetchJSON(params)
	if jsonErr == nil {
		postings := ParsePayloads([][]byte{payload}, target.Role, time.Now())
		if len(postings) > 0 {
			return postings, nil
		}
		log.Println("ℹ️ search.json returned no postings, falling back to the search page")
	} else {
		log.Printf("⚠️ search.json failed: %v. Falling back to the search page", jsonErr)
	}

	if err := ctx.Err(); err != nil {
		return nil, &scraper.FetchError{Source: companyName, Err: err}
	}

	payloads, pageErr := s.interceptFromPage(params)
	if pageErr != nil {
		if jsonErr != nil {
			return nil, &scraper.FetchError{Source: companyName, Err: errors.Join(jsonErr, pageErr)}
		}
		log.Printf("⚠️ Search page fallback failed: %v", pageErr)
		return nil, nil
	}
	log.Printf("📦 Captured %d JSON responses from the search page", len(payloads))
	return ParsePayloads(payloads, target.Role, time.Now()), nil
}

func (s *AmazonScraper) fetchJSON(params map[string]string) ([]byte, error) {
	req, err := s.opener.NewRequest()
	if err != nil {
		return nil, err
	}
	defer func() { _ = req.Dispose() }()

	resp, err := req.Get(withQuery(searchJSONURL, params), playwright.APIRequestContextGetOptions{
		Timeout: playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	if !resp.Ok() {
		return nil, fmt.Errorf("unexpected status %d", resp.Status())
	}
	body, err := resp.Body()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	//a 200 with a bot-check page is a failure, not an empty result
	if _, err := ExtractPositions(body); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *AmazonScraper) interceptFromPage(params map[string]string) ([][]byte, error) {
	page, err := s.opener.NewPage()
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Context().Close() }()

	gotoOpts := playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(s.timeout.Milliseconds())),
	}

	log.Printf("🔍 Navigating to %s ...", searchPageURL)
	if _, err := page.Goto(searchPageURL, gotoOpts); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	//capture only the query navigation; bodies are read after it, never inside the event handler
	var mu sync.Mutex
	var captured []playwright.Response
	page.OnResponse(func(resp playwright.Response) {
		if resp.Status() != 200 || !looksLikeSearchXHR(resp.URL(), resp.Headers()["content-type"]) {
			return
		}
		mu.Lock()
		captured = append(captured, resp)
		mu.Unlock()
	})

	//navigate again with the query so the UI issues the right search request
	if _, err := page.Goto(SearchPageURL(params), gotoOpts); err != nil {
		log.Printf("⚠️ Query navigation failed: %v", err)
	}
	time.Sleep(interceptWait)

	mu.Lock()
	responses := append([]playwright.Response(nil), captured...)
	mu.Unlock()

	var payloads [][]byte
	for _, resp := range responses {
		body, err := resp.Body()
		if err != nil {
			log.Printf("⚠️ Skipping captured response %s: %v", resp.URL(), err)
			continue
		}
		payloads = append(payloads, body)
	}
	return payloads, nil
}

// SearchPageURL is the UI search URL for params.
func SearchPageURL(params map[string]string) string {
	return withQuery(searchPageURL, params)
}

func withQuery(base string, params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return base + "?" + q.Encode()
}

func looksLikeSearchXHR(u, contentType string) bool {
	if !strings.Contains(contentType, "json") {
		return false
	}
	return strings.Contains(u, "search") || strings.Contains(u, "/api/")
}
