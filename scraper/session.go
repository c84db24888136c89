package scraper

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWaitTimeout is returned when an element did not appear in time.
	ErrWaitTimeout = errors.New("timed out waiting for element")

	// ErrElementNotFound is returned when an element is absent right now.
	ErrElementNotFound = errors.New("element not found")
)

// Launcher hands out one isolated browser session per search.
type Launcher interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session is a single browser instance driving a single page. It is owned
// exclusively by the search that acquired it and must be closed on every
// exit path. Close is idempotent.
type Session interface {
	Navigate(ctx context.Context, url string) error

	// WaitElement blocks until selector matches or timeout elapses, in which
	// case the error wraps ErrWaitTimeout.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// Element looks selector up once without waiting. A missing element
	// yields an error wrapping ErrElementNotFound.
	Element(ctx context.Context, selector string) (Element, error)

	Close() error
}

// Element is a handle on one DOM element of a session's page.
type Element interface {
	// Options returns the visible text of a <select>'s options in
	// document order.
	Options(ctx context.Context) ([]string, error)

	// SelectIndex selects the option at index i and fires input/change.
	SelectIndex(ctx context.Context, i int) error

	Input(ctx context.Context, text string) error
	Click(ctx context.Context) error

	// Text is the rendered innerText.
	Text(ctx context.Context) (string, error)

	// HTML is the outer HTML.
	HTML(ctx context.Context) (string, error)

	// TableRows walks the element's rows in the page and returns each
	// row's header then data cells as rendered innerText, trimmed. Rows
	// without cells are dropped.
	TableRows(ctx context.Context) ([][]string, error)

	Visible(ctx context.Context) (bool, error)
	ScrollIntoView(ctx context.Context) error

	// Screenshot captures a PNG scoped to the element.
	Screenshot(ctx context.Context) ([]byte, error)
}
