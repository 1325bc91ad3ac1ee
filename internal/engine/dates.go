package engine

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateRange bounds a search in time. Nil ends mean unbounded.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether no bound is set.
func (r DateRange) IsZero() bool { return r.From == nil && r.To == nil }

// RFC3339Bounds renders the range for APIs that filter on RFC3339 timestamps.
// Unset ends come back as empty strings.
func (r DateRange) RFC3339Bounds() (after, before string) {
	if r.From != nil {
		after = r.From.UTC().Format(time.RFC3339)
	}
	if r.To != nil {
		before = r.To.UTC().Format(time.RFC3339)
	}
	return after, before
}

// Years returns the bounding years for APIs that filter by year.
func (r DateRange) Years() (from, to int, ok bool) {
	if r.From == nil || r.To == nil {
		return 0, 0, false
	}
	return r.From.Year(), r.To.Year(), true
}

var (
	yearRE      = regexp.MustCompile(`^\d{4}$`)
	yearRangeRE = regexp.MustCompile(`^(\d{4})\s*-\s*(\d{4})$`)
)

// ParseSearchDates turns the shortcut's free-form date expression into a
// DateRange. Supported forms: "2020", "2020-2022" (also with an en dash or
// " to " as separator, reversed bounds are swapped), and a full "2006-01-02"
// date. Anything else yields an unbounded range; this never fails.
func ParseSearchDates(expr string) DateRange {
	s := strings.TrimSpace(expr)
	if s == "" {
		return DateRange{}
	}
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, " to ", "-")

	if yearRE.MatchString(s) {
		y, _ := strconv.Atoi(s)
		return yearRange(y, y)
	}
	if m := yearRangeRE.FindStringSubmatch(s); m != nil {
		y1, _ := strconv.Atoi(m[1])
		y2, _ := strconv.Atoi(m[2])
		if y1 > y2 {
			y1, y2 = y2, y1
		}
		return yearRange(y1, y2)
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		to := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC)
		return DateRange{From: &from, To: &to}
	}

	slog.Debug("unparseable searchDates, searching unbounded", slog.String("expr", expr))
	return DateRange{}
}

func yearRange(from, to int) DateRange {
	f := time.Date(from, time.January, 1, 0, 0, 0, 0, time.UTC)
	t := time.Date(to, time.December, 31, 23, 59, 59, 0, time.UTC)
	return DateRange{From: &f, To: &t}
}
