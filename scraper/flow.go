package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/use-agent/propsearch/models"
)

type requestIDKey struct{}

// WithRequestID tags ctx so search logs can be correlated with the request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Runner executes site searches, one private browser session per search.
// It is safe for concurrent use and holds no cross-search state apart from
// the active-session gauge.
type Runner struct {
	launcher Launcher
	timing   Timing
	active   atomic.Int32
}

// NewRunner creates a Runner acquiring sessions from launcher.
func NewRunner(launcher Launcher, timing Timing) *Runner {
	return &Runner{launcher: launcher, timing: timing}
}

// ActiveSessions returns the number of browser sessions currently held.
func (r *Runner) ActiveSessions() int {
	return int(r.active.Load())
}

// Search drives site's form with fields and returns exactly one of the
// three ExtractionResult shapes. It never returns nil and never panics.
//
// Lifecycle:
//
//  1. Detach         – a client disconnect does not abort the search;
//     SearchTimeout bounds it instead
//  2. Acquire        – launch a private browser
//  3. DEFER: release – close the browser on every path, exactly once
//  4. DEFER: recover – driver panics become a failed result
//  5. Navigate → WaitForReady → PopulateFields → Submit → WaitForOutcome → Extract
func (r *Runner) Search(ctx context.Context, site *Site, fields map[string]string) (result *models.ExtractionResult) {
	start := time.Now()
	log := slog.With("site", site.Name, "request_id", requestIDFrom(ctx))

	// ── 1. Detach ─────────────────────────────────────────────────────
	ctx = context.WithoutCancel(ctx)
	if r.timing.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timing.SearchTimeout)
		defer cancel()
	}

	// ── 2. Acquire ────────────────────────────────────────────────────
	sess, err := r.launcher.Acquire(ctx)
	if err != nil {
		log.Error("search: browser launch failed", "error", err)
		return models.FailedResult(errorMessage(
			models.NewSearchError(models.ErrCodeBrowserLaunch, "failed to launch browser", err),
		))
	}
	r.active.Add(1)

	// ── 3. Release ────────────────────────────────────────────────────
	defer func() {
		r.active.Add(-1)
		if closeErr := sess.Close(); closeErr != nil {
			log.Warn("search: browser close failed", "error", closeErr)
		}
		log.Info("search finished",
			"success", result.Success,
			"error", result.Error,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	// ── 4. Recover ────────────────────────────────────────────────────
	defer func() {
		if p := recover(); p != nil {
			log.Error("search: driver panic", "panic", p)
			result = models.FailedResult(fmt.Sprint(p))
		}
	}()

	// ── 5. Drive the form ─────────────────────────────────────────────
	res, err := r.run(ctx, log, sess, site, fields)
	if err != nil {
		var se *models.SearchError
		if errors.As(err, &se) {
			log.Error("search failed", "code", se.Code, "error", err)
		} else {
			log.Error("search failed", "error", err)
		}
		return models.FailedResult(errorMessage(err))
	}
	return res
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, sess Session, site *Site, fields map[string]string) (*models.ExtractionResult, error) {
	// Navigate
	if err := sess.Navigate(ctx, site.URL); err != nil {
		return nil, models.NewSearchError(models.ErrCodeSiteUnavailable,
			fmt.Sprintf("failed to load %s", site.URL), err)
	}

	// WaitForReady
	if _, err := sess.WaitElement(ctx, site.Anchor, r.timing.ReadyTimeout); err != nil {
		msg := fmt.Sprintf("search page did not load: %s not found", site.Anchor)
		if errors.Is(err, ErrWaitTimeout) {
			return nil, models.NewSearchError(models.ErrCodeSiteUnavailable, msg, nil)
		}
		return nil, models.NewSearchError(models.ErrCodeSiteUnavailable, msg, err)
	}

	// PopulateFields
	for _, f := range site.Fields {
		if v := fields[f.Param]; v != "" {
			if err := r.populate(ctx, log, sess, f, v); err != nil {
				return nil, err
			}
		}
		if f.Settle {
			if err := sleep(ctx, r.timing.DependentSettle); err != nil {
				return nil, models.NewSearchError(models.ErrCodeInternal, "search interrupted", err)
			}
		}
	}

	// Submit
	button, err := sess.Element(ctx, site.Submit)
	if err != nil {
		return nil, models.NewSearchError(models.ErrCodeSiteUnavailable,
			fmt.Sprintf("search control %s not found", site.Submit), err)
	}
	if err := Submit(ctx, button); err != nil {
		return nil, models.NewSearchError(models.ErrCodeSiteUnavailable, "failed to submit search", err)
	}
	if err := sleep(ctx, r.timing.SubmitSettle); err != nil {
		return nil, models.NewSearchError(models.ErrCodeInternal, "search interrupted", err)
	}

	// WaitForOutcome
	container, err := sess.WaitElement(ctx, site.Result, r.timing.ResultTimeout)
	if err != nil {
		if !errors.Is(err, ErrWaitTimeout) {
			return nil, models.NewSearchError(models.ErrCodeInternal, "failed waiting for results", err)
		}
		if r.confirmedEmpty(ctx, sess, site) {
			log.Info("search: site reported no records")
			return models.NoRecordsResult(), nil
		}
		return nil, models.NewSearchError(models.ErrCodeResultsTimeout, models.MsgResultsTimeout, nil)
	}

	// Extract
	switch site.Extract {
	case ExtractTextKind:
		text, err := ExtractText(ctx, container)
		if err != nil {
			return nil, models.NewSearchError(models.ErrCodeExtraction, "failed to read results", err)
		}
		return models.TextResult(text, CaptureImage(ctx, container, r.timing.CaptureSettle)), nil
	default:
		rows := readTable(ctx, log, container)
		return models.TableResult(rows, CaptureImage(ctx, container, r.timing.CaptureSettle)), nil
	}
}

func (r *Runner) populate(ctx context.Context, log *slog.Logger, sess Session, f FieldBinding, value string) error {
	el, err := sess.Element(ctx, f.Selector)
	if err != nil {
		return models.NewSearchError(models.ErrCodeSiteUnavailable,
			fmt.Sprintf("form field %s not found", f.Selector), err)
	}

	switch f.Kind {
	case FieldDropdown:
		matched, err := SelectOption(ctx, el, value)
		if err != nil {
			return models.NewSearchError(models.ErrCodeInternal,
				fmt.Sprintf("failed to set %s", f.Param), err)
		}
		if !matched {
			log.Debug("search: no dropdown option matched, keeping default",
				"field", f.Param, "value", value)
		}
	case FieldText:
		if err := FillText(ctx, el, value); err != nil {
			return models.NewSearchError(models.ErrCodeInternal,
				fmt.Sprintf("failed to set %s", f.Param), err)
		}
	}
	return nil
}

// confirmedEmpty reports whether the site's no-records indicator is shown.
func (r *Runner) confirmedEmpty(ctx context.Context, sess Session, site *Site) bool {
	if site.NoRecords == "" {
		return false
	}
	el, err := sess.Element(ctx, site.NoRecords)
	if err != nil {
		return false
	}
	visible, err := el.Visible(ctx)
	return err == nil && visible
}

// errorMessage renders err for the response body. SearchErrors expose their
// message (and cause, if any) without the internal code.
func errorMessage(err error) string {
	var se *models.SearchError
	if errors.As(err, &se) {
		if se.Err != nil {
			return se.Message + ": " + se.Err.Error()
		}
		return se.Message
	}
	return err.Error()
}
