// Define the Posting record and the interface every careers source implements
// Validate scraped records at the boundary

package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Posting is a single job listing. ID is stable across runs and namespaced by source.
type Posting struct {
	ID       string    `json:"id" validate:"required"`
	Title    string    `json:"title" validate:"required"`
	Location string    `json:"location"`
	URL      string    `json:"url" validate:"required,url"`
	Company  string    `json:"company"`
	FoundAt  time.Time `json:"found_at"`
}

// Target is what a source is asked to search for.
type Target struct {
	URL  string
	Role string
}

// Source defines the interface that all careers site adapters must implement
type Source interface {
	//Scrape postings for the target, newest first
	Scrape(ctx context.Context, target Target) ([]Posting, error)

	//Name is the company name (Microsoft, Amazon, ...)
	Name() string
}

// FetchError is returned when a source could not produce a listing
// (network, timeout or an unexpected page shape).
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

var validate = validator.New()

// Validate trims the record and checks it is complete enough to notify about.
func Validate(p Posting) (Posting, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	p.Location = strings.TrimSpace(p.Location)
	p.URL = strings.TrimSpace(p.URL)
	p.Company = strings.TrimSpace(p.Company)

	if err := validate.Struct(p); err != nil {
		return Posting{}, fmt.Errorf("invalid posting %q: %w", p.ID, err)
	}
	return p, nil
}
