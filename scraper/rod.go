package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/propsearch/config"
	"github.com/ysmood/gson"
)

// RodLauncher starts a fresh Chromium process for every search. Nothing is
// pooled: the portals keep cookies and dropdown state that must not bleed
// from one search into the next.
type RodLauncher struct {
	cfg config.BrowserConfig
}

// NewRodLauncher creates a launcher using cfg for every browser it starts.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Acquire launches and connects a browser and opens its single page.
// On any failure everything started so far is torn down.
func (l *RodLauncher) Acquire(ctx context.Context) (Session, error) {
	ln := launcher.New().
		Context(ctx).
		Headless(l.cfg.Headless).
		NoSandbox(l.cfg.NoSandbox)

	if l.cfg.BrowserBin != "" {
		ln = ln.Bin(l.cfg.BrowserBin)
	}
	if l.cfg.Proxy != "" {
		ln = ln.Proxy(l.cfg.Proxy)
	}

	ln.Set(flags.Flag("disable-dev-shm-usage"))
	ln.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", l.cfg.WindowWidth, l.cfg.WindowHeight))
	ln.Set(flags.Flag("disable-extensions"))
	ln.Set(flags.Flag("disable-component-update"))
	ln.Set(flags.Flag("no-first-run"))
	if l.cfg.Stealth {
		ln.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		ln.Delete(flags.Flag("enable-automation"))
	}

	controlURL, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	s := &rodSession{ln: ln}
	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.browser = nil
		_ = s.Close()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.page = page

	if err := s.preparePage(l.cfg); err != nil {
		_ = s.Close()
		return nil, err
	}

	slog.Debug("browser session acquired", "controlURL", controlURL)
	return s, nil
}

// rodSession owns one browser process, its connection and its page.
type rodSession struct {
	ln      *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter

	once     sync.Once
	closeErr error
}

// preparePage applies viewport, stealth, headers and request blocking.
// All of it must happen before the first navigation.
func (s *rodSession) preparePage(cfg config.BrowserConfig) error {
	if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	if cfg.Stealth {
		if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if cfg.AcceptLanguage != "" {
		err := proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{"Accept-Language": gson.New(cfg.AcceptLanguage)},
		}.Call(s.page)
		if err != nil {
			slog.Warn("setting Accept-Language failed, proceeding with browser default", "error", err)
		}
	}

	s.router = setupHijack(s.page, cfg.BlockedResourceTypes, cfg.BlockAds)
	return nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *rodSession) WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := s.page.Context(waitCtx).Element(selector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s after %s", ErrWaitTimeout, selector, timeout)
		}
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (s *rodSession) Element(ctx context.Context, selector string) (Element, error) {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return &rodElement{el: el}, nil
}

// Close stops interception, closes the page and the browser, then kills
// the process and removes its profile directory. Safe to call repeatedly.
func (s *rodSession) Close() error {
	s.once.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		if s.page != nil {
			_ = s.page.Close()
		}
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		s.ln.Kill()
		s.ln.Cleanup()
	})
	return s.closeErr
}

// rodElement rebinds the element to the caller's context on every call, so
// an element found under a short wait deadline stays usable afterwards.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Options(ctx context.Context) ([]string, error) {
	res, err := e.el.Context(ctx).Eval(`() => Array.from(this.options || []).map(o => o.text)`)
	if err != nil {
		return nil, err
	}
	arr := res.Value.Arr()
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		out = append(out, v.Str())
	}
	return out, nil
}

func (e *rodElement) SelectIndex(ctx context.Context, i int) error {
	_, err := e.el.Context(ctx).Eval(`(i) => {
		this.selectedIndex = i;
		this.dispatchEvent(new Event('input', { bubbles: true }));
		this.dispatchEvent(new Event('change', { bubbles: true }));
	}`, i)
	return err
}

func (e *rodElement) Input(ctx context.Context, text string) error {
	return e.el.Context(ctx).Input(text)
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) HTML(ctx context.Context) (string, error) {
	return e.el.Context(ctx).HTML()
}

const tableRowsJS = `() => Array.from(this.querySelectorAll('tr'))
	.map(tr => [...tr.querySelectorAll('th'), ...tr.querySelectorAll('td')].map(c => c.innerText.trim()))
	.filter(cells => cells.length > 0)`

func (e *rodElement) TableRows(ctx context.Context) ([][]string, error) {
	res, err := e.el.Context(ctx).Eval(tableRowsJS)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0)
	for _, row := range res.Value.Arr() {
		cells := make([]string, 0, len(row.Arr()))
		for _, cell := range row.Arr() {
			cells = append(cells, cell.Str())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func (e *rodElement) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e *rodElement) ScrollIntoView(ctx context.Context) error {
	return e.el.Context(ctx).ScrollIntoView()
}

func (e *rodElement) Screenshot(ctx context.Context) ([]byte, error) {
	return e.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}
