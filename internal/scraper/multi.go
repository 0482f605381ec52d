package scraper

import (
	"context"
	"errors"
	"log"
)

// Entry binds a source to what it should search.
type Entry struct {
	Source Source
	Target Target
}

// Multi runs its sources one after another and concatenates their postings
// in source order. A failing source is skipped as long as another one succeeds:
// the skipped source's postings simply stay unseen until a later run.
type Multi struct {
	entries []Entry
}

func NewMulti(entries ...Entry) *Multi {
	return &Multi{entries: entries}
}

func (m *Multi) Name() string {
	return "all sources"
}

// Names lists the configured sources in run order.
func (m *Multi) Names() []string {
	names := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		names = append(names, e.Source.Name())
	}
	return names
}

// Fetch returns the combined postings, or a *FetchError when every source failed.
func (m *Multi) Fetch(ctx context.Context) ([]Posting, error) {
	if len(m.entries) == 0 {
		return nil, &FetchError{Source: m.Name(), Err: errors.New("no sources configured")}
	}

	var all []Posting
	var errs []error
	for _, e := range m.entries {
		if ctx.Err() != nil {
			return nil, &FetchError{Source: e.Source.Name(), Err: ctx.Err()}
		}

		log.Printf("▶️ Starting source: %s", e.Source.Name())
		postings, err := e.Source.Scrape(ctx, e.Target)
		if err != nil {
			log.Printf("❌ Source %s failed: %v", e.Source.Name(), err)
			errs = append(errs, err)
			continue
		}
		log.Printf("✅ Source %s finished. Found %d postings.", e.Source.Name(), len(postings))
		all = append(all, postings...)
	}

	if len(errs) == len(m.entries) {
		return nil, &FetchError{Source: m.Name(), Err: errors.Join(errs...)}
	}
	return all, nil
}
