package scraper

import (
	"context"
	"fmt"
	"strings"
)

// SelectOption picks the option of dropdown whose visible text equals
// desired; failing that, the first option (in document order) whose text
// contains desired case-insensitively. When nothing matches the dropdown
// keeps its current selection and SelectOption returns false with a nil
// error. Errors are reserved for driver failures.
func SelectOption(ctx context.Context, dropdown Element, desired string) (bool, error) {
	options, err := dropdown.Options(ctx)
	if err != nil {
		return false, fmt.Errorf("read dropdown options: %w", err)
	}

	idx := matchOption(options, desired)
	if idx < 0 {
		return false, nil
	}
	if err := dropdown.SelectIndex(ctx, idx); err != nil {
		return false, fmt.Errorf("select option %q: %w", options[idx], err)
	}
	return true, nil
}

// matchOption returns the index SelectOption would choose, or -1.
func matchOption(options []string, desired string) int {
	want := strings.TrimSpace(desired)
	for i, o := range options {
		if strings.TrimSpace(o) == want {
			return i
		}
	}

	lower := strings.ToLower(desired)
	for i, o := range options {
		if strings.Contains(strings.ToLower(o), lower) {
			return i
		}
	}
	return -1
}

// FillText types value into field verbatim.
func FillText(ctx context.Context, field Element, value string) error {
	if err := field.Input(ctx, value); err != nil {
		return fmt.Errorf("fill text: %w", err)
	}
	return nil
}

// Submit clicks button. Waiting for the outcome is the caller's job.
func Submit(ctx context.Context, button Element) error {
	if err := button.Click(ctx); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}
