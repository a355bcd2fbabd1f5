// Package dates turns free-text deadline expressions into canonical
// YYYY-MM-DD strings. Anything it cannot interpret becomes the no-deadline
// sentinel; the caller never sees a parse error.
package dates

import (
	"strings"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/models"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const dayFormat = "2006-01-02"

// skipWords are explicit "no deadline" choices, not parse failures.
var skipWords = map[string]struct{}{
	"skip":  {},
	"/skip": {},
	"none":  {},
	"no":    {},
}

// Layouts carrying an explicit year are stored as given.
var yearLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"January 2 2006",
	"January 2, 2006",
	"2 January 2006",
}

// Layouts without a year resolve in the reference year and roll forward when
// the date has already passed. Deadlines are assumed forward-looking.
var yearlessLayouts = []string{
	"Jan 2",
	"2 Jan",
	"January 2",
	"2 January",
	"02/01",
	"2/1",
	"02.01",
	"2.1",
}

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Normalize resolves text against the reference instant and returns either a
// zero-padded YYYY-MM-DD string or models.NoDeadline. It is deterministic for
// a fixed reference instant; callers sample "now" in UTC once per call.
func Normalize(text string, ref time.Time) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.NoDeadline
	}
	if _, ok := skipWords[strings.ToLower(trimmed)]; ok {
		return models.NoDeadline
	}

	ref = ref.UTC()

	for _, layout := range yearLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(dayFormat)
		}
	}

	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	for _, layout := range yearlessLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		day := time.Date(ref.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(refDay) {
			day = day.AddDate(1, 0, 0)
		}
		return day.Format(dayFormat)
	}

	// Relative phrases ("tomorrow", "next friday", "in 3 days") resolve
	// against the reference instant as-is.
	if r, err := parser.Parse(trimmed, ref); err == nil && r != nil {
		return r.Time.Format(dayFormat)
	}

	return models.NoDeadline
}
