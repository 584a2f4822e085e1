package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"SLComply/internal/domain"
)

const historicalPeriod = "Historical"

// Window is a resolved recency period. Historical windows must not be used
// as a cutoff: every row qualifies.
type Window struct {
	Cutoff     time.Time
	Historical bool
}

// Contains reports whether a revision date falls inside the window.
func (w Window) Contains(revision time.Time) bool {
	return w.Historical || revision.After(w.Cutoff)
}

// ResolveRecency turns a period token into a cutoff relative to now.
func ResolveRecency(period string, now time.Time) (Window, error) {
	token, ok := canonicalPeriod(period)
	if !ok {
		return Window{}, fmt.Errorf("%w: %q", domain.ErrInvalidPeriod, period)
	}

	if token == historicalPeriod {
		return Window{Cutoff: addMonths(now, -24), Historical: true}, nil
	}

	parts := strings.Fields(token)
	number, err := strconv.Atoi(parts[0])
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", domain.ErrInvalidPeriod, period)
	}
	unit := parts[1]
	if number == 1 {
		unit += "s"
	}

	switch unit {
	case "months":
		return Window{Cutoff: addMonths(now, -number)}, nil
	case "years":
		return Window{Cutoff: addMonths(now, -12*number)}, nil
	}
	return Window{}, fmt.Errorf("%w: %q", domain.ErrInvalidPeriod, period)
}

func canonicalPeriod(period string) (string, bool) {
	period = strings.TrimSpace(period)
	for _, token := range RecencyPeriods {
		if strings.EqualFold(token, period) {
			return token, true
		}
	}
	return "", false
}

// addMonths shifts t by whole months, clamping the day to the target month's length.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
