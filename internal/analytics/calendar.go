package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a calendar day.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned for day strings that cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// Clock supplies the current instant. Tests pin it; production uses SystemClock.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)

// Calendar decides which day and month an instant belongs to. All counters
// are bucketed in one fixed reference offset, never the server's locale.
type Calendar struct {
	loc        *time.Location
	cutoffHour int
}

// NewCalendar builds a calendar at UTC+offsetMinutes whose monthly rollup
// opens at cutoffHour local time.
func NewCalendar(offsetMinutes, cutoffHour int) Calendar {
	sign := '+'
	if offsetMinutes < 0 {
		sign = '-'
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, abs(offsetMinutes)/60, abs(offsetMinutes)%60)
	return Calendar{
		loc:        time.FixedZone(name, offsetMinutes*60),
		cutoffHour: cutoffHour,
	}
}

func (c Calendar) Location() *time.Location {
	return c.loc
}

func (c Calendar) CutoffHour() int {
	return c.cutoffHour
}

// Local converts t into the reference zone.
func (c Calendar) Local(t time.Time) time.Time {
	return t.In(c.loc)
}

// Day returns the reference-zone calendar day of t.
func (c Calendar) Day(t time.Time) string {
	return t.In(c.loc).Format(DateLayout)
}

// PastCutoff reports whether t is at or after the rollup cutoff on its day.
func (c Calendar) PastCutoff(t time.Time) bool {
	return t.In(c.loc).Hour() >= c.cutoffHour
}

// ParseDay normalises a user supplied date into a day string. Plain dates are
// taken as reference-zone days; full timestamps are converted first.
func (c Calendar) ParseDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidDate
	}
	if t, err := time.ParseInLocation(DateLayout, s, c.loc); err == nil {
		return t.Format(DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return c.Day(t), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MonthBounds returns the first and last day of year/month.
func (c Calendar) MonthBounds(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, c.loc)
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout)
}

// PreviousMonth steps back one month, rolling the year over from January.
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// MonthsBetween counts whole calendar months from (fromYear, fromMonth) to (toYear, toMonth).
func MonthsBetween(fromYear, fromMonth, toYear, toMonth int) int {
	return (toYear-fromYear)*12 + (toMonth - fromMonth)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
