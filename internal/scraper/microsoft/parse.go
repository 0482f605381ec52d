package microsoft

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-careerwatch/internal/scraper"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoList means the page rendered without the job list container.
var ErrNoList = errors.New("job list container missing")

// Card is one job card as rendered on the search page.
type Card struct {
	Title    string
	Link     string
	Location string
}

// ParseCards extracts job cards from the rendered search page.
func ParseCards(html string) ([]Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if doc.Find(listSelector).Length() == 0 {
		return nil, ErrNoList
	}

	var cards []Card
	doc.Find(`div[role="listitem"]`).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("h3").First().Text())
		if title == "" {
			title = strings.TrimSpace(card.Find("h2").First().Text())
		}

		link, _ := card.Find("a[href]").First().Attr("href")
		link = absolute(strings.TrimSpace(link))

		cards = append(cards, Card{
			Title:    title,
			Link:     link,
			Location: location(card),
		})
	})
	return cards, nil
}

// Posting validates the card and turns it into a Posting keyed by the
// last segment of its link.
func (c Card) Posting(now time.Time) (scraper.Posting, error) {
	id := ""
	if c.Link != "" {
		id = "microsoft:" + lastSegment(c.Link)
	}
	loc := c.Location
	if loc == "" {
		loc = "Unknown Location"
	}
	return scraper.Validate(scraper.Posting{
		ID:       id,
		Title:    c.Title,
		Location: loc,
		URL:      c.Link,
		Company:  companyName,
		FoundAt:  now,
	})
}

func absolute(link string) string {
	if link == "" || strings.HasPrefix(link, "http") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return baseURL + link
}

// location is the first text line of the card outside the heading and links.
func location(card *goquery.Selection) string {
	lines := textLines(card)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

// textLines returns the trimmed text of each leaf element that is not part of
// a heading or link, in document order.
func textLines(sel *goquery.Selection) []string {
	var lines []string
	sel.Find("*").Each(func(_ int, el *goquery.Selection) {
		if el.Children().Length() > 0 || el.Closest("h2, h3, a").Length() > 0 {
			return
		}
		if text := strings.Join(strings.Fields(el.Text()), " "); text != "" {
			lines = append(lines, text)
		}
	})
	return lines
}

func lastSegment(link string) string {
	link = strings.SplitN(link, "?", 2)[0]
	link = strings.SplitN(link, "#", 2)[0]
	link = strings.TrimRight(link, "/")
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}
