package labentry

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day format accepted by the date filter.
const DateLayout = "2006-01-02"

// Query carries the raw, optional list filters as received from a caller.
type Query struct {
	Class   string
	Section string
	Date    string
}

// Filter is a resolved query. Zero values mean "not provided"; From and To
// are inclusive bounds on the entry time.
type Filter struct {
	Class   string
	Section string
	From    *time.Time
	To      *time.Time
}

// DayBounds returns the first and last millisecond of the calendar day in loc.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end, nil
}

// Resolve trims the raw inputs and turns the date into day bounds.
func (q Query) Resolve(loc *time.Location) (Filter, error) {
	f := Filter{
		Class:   strings.TrimSpace(q.Class),
		Section: strings.TrimSpace(q.Section),
	}
	if date := strings.TrimSpace(q.Date); date != "" {
		start, end, err := DayBounds(date, loc)
		if err != nil {
			return Filter{}, &ValidationError{Field: "date", Message: "Invalid date"}
		}
		f.From, f.To = &start, &end
	}
	return f, nil
}

// Matches reports whether e satisfies every provided filter.
func (f Filter) Matches(e Entry) bool {
	if f.Class != "" && e.Student.Class != f.Class {
		return false
	}
	if f.Section != "" && e.Student.Section != f.Section {
		return false
	}
	if f.From != nil && e.EntryTime.Before(*f.From) {
		return false
	}
	if f.To != nil && e.EntryTime.After(*f.To) {
		return false
	}
	return true
}
