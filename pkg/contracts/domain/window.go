package domain

import (
	"fmt"
	"time"
)

// Window is the inclusive date range an analysis is computed over.
// Filtering applies to the order purchase timestamp.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window (inclusive on both ends)
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Duration returns the window's length
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Previous returns the window of identical length immediately preceding this
// one, for period-over-period comparison.
func (w Window) Previous() Window {
	length := w.End.Sub(w.Start)
	return Window{
		Start: w.Start.Add(-length - time.Nanosecond),
		End:   w.Start.Add(-time.Nanosecond),
	}
}

// String returns a compact label for the window
func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// WindowSpec selects the analysis window: either an explicit inclusive date
// range, or a year with an optional month. Exactly one form must be used.
type WindowSpec struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
	Year  *int       `json:"year,omitempty"`
	Month *int       `json:"month,omitempty"`
}

// NewRangeSpec builds a WindowSpec from an explicit date range
func NewRangeSpec(start, end time.Time) WindowSpec {
	return WindowSpec{Start: &start, End: &end}
}

// NewYearSpec builds a WindowSpec covering a full calendar year
func NewYearSpec(year int) WindowSpec {
	return WindowSpec{Year: &year}
}

// NewMonthSpec builds a WindowSpec covering a single calendar month
func NewMonthSpec(year, month int) WindowSpec {
	return WindowSpec{Year: &year, Month: &month}
}

// Validate checks the spec is well formed: exactly one of the two forms,
// end not before start, month in range and only alongside a year.
func (s WindowSpec) Validate() error {
	hasRange := s.Start != nil || s.End != nil
	hasYear := s.Year != nil

	switch {
	case hasRange && hasYear:
		return fmt.Errorf("window spec: explicit range and year/month are mutually exclusive")
	case !hasRange && !hasYear:
		if s.Month != nil {
			return fmt.Errorf("window spec: month requires a year")
		}
		return fmt.Errorf("window spec: either a date range or a year must be supplied")
	case hasRange:
		if s.Start == nil || s.End == nil {
			return fmt.Errorf("window spec: both start and end are required for an explicit range")
		}
		if s.End.Before(*s.Start) {
			return fmt.Errorf("window spec: end %s is before start %s",
				s.End.Format("2006-01-02"), s.Start.Format("2006-01-02"))
		}
		return nil
	default:
		if s.Month != nil && (*s.Month < 1 || *s.Month > 12) {
			return fmt.Errorf("window spec: month %d out of range 1-12", *s.Month)
		}
		return nil
	}
}

// Normalize resolves the spec into a concrete inclusive window in UTC.
// A year without a month covers the full calendar year; a year with a month
// covers that single month, first instant through last.
func (s WindowSpec) Normalize() (Window, error) {
	if err := s.Validate(); err != nil {
		return Window{}, err
	}

	if s.Start != nil {
		return Window{Start: *s.Start, End: *s.End}, nil
	}

	year := *s.Year
	if s.Month != nil {
		start := time.Date(year, time.Month(*s.Month), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		return Window{Start: start, End: end}, nil
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	return Window{Start: start, End: end}, nil
}
