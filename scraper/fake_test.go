package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeElement is an in-memory DOM element.
type fakeElement struct {
	options  []string
	selected int
	typed    []string
	clicks   int

	text    string
	html    string
	rows    [][]string
	visible bool
	png     []byte

	optionsErr error
	textErr    error
	htmlErr    error
	rowsErr    error
	scrollErr  error
	shotErr    error
	panicMsg   string

	onClick func()
}

func newDropdown(options ...string) *fakeElement {
	return &fakeElement{options: options, selected: -1}
}

func (e *fakeElement) Options(context.Context) ([]string, error) {
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	return e.options, e.optionsErr
}

func (e *fakeElement) SelectIndex(_ context.Context, i int) error {
	if i < 0 || i >= len(e.options) {
		return fmt.Errorf("index %d out of range", i)
	}
	e.selected = i
	return nil
}

func (e *fakeElement) Input(_ context.Context, text string) error {
	e.typed = append(e.typed, text)
	return nil
}

func (e *fakeElement) Click(context.Context) error {
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Text(context.Context) (string, error) { return e.text, e.textErr }
func (e *fakeElement) HTML(context.Context) (string, error) { return e.html, e.htmlErr }

// TableRows serves rows when set. Without them it fails the way a page
// without layout does, which sends callers to the HTML path.
func (e *fakeElement) TableRows(context.Context) ([][]string, error) {
	if e.rowsErr != nil {
		return nil, e.rowsErr
	}
	if e.rows == nil {
		return nil, errNoLayout
	}
	return e.rows, nil
}

func (e *fakeElement) Visible(context.Context) (bool, error) { return e.visible, nil }
func (e *fakeElement) ScrollIntoView(context.Context) error { return e.scrollErr }
func (e *fakeElement) Screenshot(context.Context) ([]byte, error) { return e.png, e.shotErr }

// fakeSession resolves selectors against a mutable element map. Waits never
// block: an absent element times out immediately.
type fakeSession struct {
	mu          sync.Mutex
	elements    map[string]*fakeElement
	navigated   []string
	navigateErr error
	closes      int
}

func newFakeSession(elements map[string]*fakeElement) *fakeSession {
	return &fakeSession{elements: elements}
}

func (s *fakeSession) add(selector string, el *fakeElement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[selector] = el
}

func (s *fakeSession) lookup(selector string) (*fakeElement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[selector]
	return el, ok
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return s.navigateErr
}

func (s *fakeSession) WaitElement(_ context.Context, selector string, _ time.Duration) (Element, error) {
	if el, ok := s.lookup(selector); ok {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrWaitTimeout, selector)
}

func (s *fakeSession) Element(_ context.Context, selector string) (Element, error) {
	if el, ok := s.lookup(selector); ok {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// fakeLauncher hands out a single prepared session.
type fakeLauncher struct {
	sess     *fakeSession
	err      error
	acquired int
}

func (l *fakeLauncher) Acquire(context.Context) (Session, error) {
	l.acquired++
	if l.err != nil {
		return nil, l.err
	}
	return l.sess, nil
}

var (
	errBoom     = errors.New("boom")
	errNoLayout = errors.New("table not rendered")
)
