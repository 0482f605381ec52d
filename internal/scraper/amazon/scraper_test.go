package amazon

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"go-careerwatch/internal/config"
	"go-careerwatch/internal/scraper"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponse struct {
	playwright.APIResponse
	status int
	body   string
}

func (r *fakeResponse) Ok() bool              { return r.status >= 200 && r.status < 300 }
func (r *fakeResponse) Status() int           { return r.status }
func (r *fakeResponse) Body() ([]byte, error) { return []byte(r.body), nil }

type fakeRequest struct {
	playwright.APIRequestContext
	resp     *fakeResponse
	err      error
	gotURL   string
	disposed bool
}

func (r *fakeRequest) Get(u string, options ...playwright.APIRequestContextGetOptions) (playwright.APIResponse, error) {
	r.gotURL = u
	if r.err != nil {
		return nil, r.err
	}
	return r.resp, nil
}

func (r *fakeRequest) Dispose(options ...playwright.APIRequestContextDisposeOptions) error {
	r.disposed = true
	return nil
}

// fakeOpener serves API requests; page loads always fail.
type fakeOpener struct {
	req *fakeRequest
}

func (o *fakeOpener) NewPage() (playwright.Page, error) {
	return nil, errors.New("no browser in unit tests")
}

func (o *fakeOpener) NewRequest() (playwright.APIRequestContext, error) {
	return o.req, nil
}

func newTestScraper(req *fakeRequest) *AmazonScraper {
	cfg := config.AmazonConfig{BaseQuery: "Software Engineer", Sort: "recent", Offset: 0, ResultLimit: 50}
	return NewAmazonScraper(&fakeOpener{req: req}, cfg, 5*time.Second)
}

func TestAmazonScraper_JSONEndpoint(t *testing.T) {
	req := &fakeRequest{resp: &fakeResponse{status: 200, body: `{"jobs": [{"id_icims": "1", "title": "Software Engineer I"}, {"id_icims": "2", "title": "Software Engineer II"}]}`}}

	got, err := newTestScraper(req).Scrape(context.Background(), scraper.Target{Role: "Software Engineer"})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "amazon:1", got[0].ID)
	u, err := url.Parse(req.gotURL)
	require.NoError(t, err)
	assert.Equal(t, "/en/search.json", u.Path)
	assert.Equal(t, url.Values{
		"base_query":   {"Software Engineer"},
		"sort":         {"recent"},
		"offset":       {"0"},
		"result_limit": {"50"},
	}, u.Query())
	assert.True(t, req.disposed)
}

func TestAmazonScraper_BothPathsFail(t *testing.T) {
	req := &fakeRequest{resp: &fakeResponse{status: 503}}

	_, err := newTestScraper(req).Scrape(context.Background(), scraper.Target{Role: "Software Engineer"})

	var fe *scraper.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Amazon", fe.Source)
	assert.Contains(t, err.Error(), "503")
}

func TestAmazonScraper_UnreadableBodyAndNoPage(t *testing.T) {
	req := &fakeRequest{resp: &fakeResponse{status: 200, body: `<html><title>Robot check</title></html>`}}

	got, err := newTestScraper(req).Scrape(context.Background(), scraper.Target{Role: "Software Engineer"})

	var fe *scraper.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Amazon", fe.Source)
	assert.Contains(t, err.Error(), "decode search response")
	assert.Empty(t, got)
}

func TestAmazonScraper_EmptyEndpointAndNoPageIsEmpty(t *testing.T) {
	req := &fakeRequest{resp: &fakeResponse{status: 200, body: `{"jobs": []}`}}

	got, err := newTestScraper(req).Scrape(context.Background(), scraper.Target{Role: "Software Engineer"})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAmazonScraper_RequestError(t *testing.T) {
	req := &fakeRequest{err: errors.New("timeout 5000ms exceeded")}

	_, err := newTestScraper(req).Scrape(context.Background(), scraper.Target{})

	var fe *scraper.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestParams_DefaultQueryIsRole(t *testing.T) {
	s := NewAmazonScraper(nil, config.AmazonConfig{Sort: "recent", ResultLimit: 25}, time.Second)

	params := s.Params(scraper.Target{Role: "Data Engineer"})

	assert.Equal(t, "Data Engineer", params["base_query"])
	assert.Equal(t, "25", params["result_limit"])
}

func TestSearchPageURL(t *testing.T) {
	u, err := url.Parse(SearchPageURL(map[string]string{"base_query": "Software Engineer", "sort": "recent"}))

	require.NoError(t, err)
	assert.Equal(t, "/en/search", u.Path)
	assert.Equal(t, "Software Engineer", u.Query().Get("base_query"))
	assert.Equal(t, "recent", u.Query().Get("sort"))
}

func TestLooksLikeSearchXHR(t *testing.T) {
	assert.True(t, looksLikeSearchXHR("https://www.amazon.jobs/en/search.json?x=1", "application/json; charset=utf-8"))
	assert.False(t, looksLikeSearchXHR("https://www.amazon.jobs/en/search?x=1", "text/html"))
	assert.False(t, looksLikeSearchXHR("https://cdn.amazon.jobs/app.json", "application/json"))
}
