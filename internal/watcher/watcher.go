// Package watcher runs one load, fetch, diff, notify, save pass.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-careerwatch/internal/dedup"
	"go-careerwatch/internal/notify"
	"go-careerwatch/internal/scraper"

	"github.com/google/uuid"
)

type State string

const (
	Idle        State = "idle"
	Loading     State = "loading"
	LoadFailed  State = "load_failed"
	Fetching    State = "fetching"
	FetchFailed State = "fetch_failed"
	Fetched     State = "fetched"
	Diffing     State = "diffing"
	Notifying   State = "notifying"
	Saving      State = "saving"
	SaveFailed  State = "save_failed"
	Done        State = "done"
)

// Fetcher returns the postings currently on the careers pages.
type Fetcher interface {
	Fetch(ctx context.Context) ([]scraper.Posting, error)
}

// Store is the part of state.Store a run needs.
type Store interface {
	Load(ctx context.Context) (dedup.SeenSet, error)
	Save(ctx context.Context, seen dedup.SeenSet) error
}

// Result describes one finished run, failed or not.
type Result struct {
	RunID     uuid.UUID
	Trace     []State
	Fetched   int
	New       []scraper.Posting
	Notified  bool
	NotifyErr error
	Seen      int
}

// Final is the last state the run reached.
func (r Result) Final() State {
	if len(r.Trace) == 0 {
		return Idle
	}
	return r.Trace[len(r.Trace)-1]
}

type Watcher struct {
	fetcher   Fetcher
	store     Store
	notifier  notify.Notifier
	recipient string
}

func New(fetcher Fetcher, store Store, notifier notify.Notifier, recipient string) *Watcher {
	return &Watcher{
		fetcher:   fetcher,
		store:     store,
		notifier:  notifier,
		recipient: recipient,
	}
}

// Run performs one pass. A fetch failure returns before anything is saved, so
// the next run retries against the same baseline. A notify failure is recorded
// in Result.NotifyErr and the new IDs are still saved.
func (w *Watcher) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.New()}
	enter := func(s State) {
		res.Trace = append(res.Trace, s)
		log.Printf("🔄 [%s] %s", res.RunID.String()[:8], s)
	}

	enter(Idle)

	enter(Loading)
	seen, err := w.store.Load(ctx)
	if err != nil {
		enter(LoadFailed)
		return res, fmt.Errorf("load seen postings: %w", err)
	}

	enter(Fetching)
	postings, err := w.fetcher.Fetch(ctx)
	if err != nil {
		enter(FetchFailed)
		var fErr *scraper.FetchError
		if !errors.As(err, &fErr) {
			err = &scraper.FetchError{Source: "fetcher", Err: err}
		}
		return res, err
	}
	enter(Fetched)
	res.Fetched = len(postings)
	log.Printf("📊 Fetched %d postings", res.Fetched)

	enter(Diffing)
	res.New = dedup.ComputeNew(postings, seen)
	log.Printf("🆕 %d new postings (%d already seen)", len(res.New), seen.Len())

	if len(res.New) > 0 {
		enter(Notifying)
		if err := w.notify(ctx, res.New); err != nil {
			res.NotifyErr = err
			log.Printf("⚠️ Notification failed, new postings are still marked seen: %v", err)
		} else {
			res.Notified = true
		}
	} else {
		log.Println("📭 No new postings, nothing to send")
	}

	enter(Saving)
	next := seen.Union(res.New)
	if err := w.store.Save(ctx, next); err != nil {
		enter(SaveFailed)
		return res, fmt.Errorf("save seen postings: %w", err)
	}
	res.Seen = next.Len()

	enter(Done)
	return res, nil
}

func (w *Watcher) notify(ctx context.Context, postings []scraper.Posting) error {
	msg, err := notify.Render(w.recipient, postings)
	if err != nil {
		return &notify.Error{Notifier: w.notifier.Name(), Err: err}
	}
	return w.notifier.Notify(ctx, msg)
}
