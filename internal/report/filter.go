package report

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"timetrack/internal/timelog"
)

// Filter selects which records to report.
type Filter struct {
	// Since keeps records that started within this window before Now. Zero
	// disables the window.
	Since time.Duration
	// Last keeps only the newest Last records. Zero keeps all.
	Last int
	// Now anchors Since. Defaults to time.Now.
	Now func() time.Time
}

// Apply collects seq and returns the matching records, oldest first.
func (f Filter) Apply(seq iter.Seq[timelog.Record]) []timelog.Record {
	now := f.Now
	if now == nil {
		now = time.Now
	}
	var cutoff time.Time
	if f.Since > 0 {
		cutoff = now().Add(-f.Since)
	}

	out := []timelog.Record{}
	for r := range seq {
		if !cutoff.IsZero() && r.Start.Time().Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	if f.Last > 0 && len(out) > f.Last {
		out = out[len(out)-f.Last:]
	}
	return out
}

// ParseDuration accepts a bare number of minutes ("90"), a number of days
// ("7d") or a Go duration ("1h30m").
func ParseDuration(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if days, ok := strings.CutSuffix(input, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q: days must be a whole number", input)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid duration %q: must not be negative", input)
		}
		return time.Duration(n) * time.Minute, nil
	}

	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use minutes (90), days (7d) or a duration like 1h30m", input)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", input)
	}
	return d, nil
}
