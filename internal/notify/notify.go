// Package notify renders the new-postings message and delivers it.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Message is one rendered notification.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Notifier delivers a rendered message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Name() string
}

// Error is a delivery failure of one notifier.
type Error struct {
	Notifier string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Notifier, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fanout delivers to every notifier and joins the failures.
type Fanout []Notifier

func (f Fanout) Name() string {
	return "fanout"
}

func (f Fanout) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, msg); err != nil {
			var nErr *Error
			if !errors.As(err, &nErr) {
				err = &Error{Notifier: n.Name(), Err: err}
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
