package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the wire format of a selected date.
const DateLayout = "2006-01-02"

// GridCells is the size of the month grid: 6 full weeks.
const GridCells = 42

// ErrSelectionRejected is returned when a disabled day is picked.
var ErrSelectionRejected = errors.New("date is not selectable")

// WeekdaySet is the set of weekdays (Sunday=0) a doctor practices on.
type WeekdaySet map[time.Weekday]struct{}

// NewWeekdaySet builds a set from weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	set := make(WeekdaySet, len(days))
	for _, d := range days {
		set.Add(d)
	}
	return set
}

// Add adds a weekday; values outside 0-6 are ignored.
func (s WeekdaySet) Add(d time.Weekday) {
	if d < time.Sunday || d > time.Saturday {
		return
	}
	s[d] = struct{}{}
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	_, ok := s[d]
	return ok
}

// Empty reports whether no weekday is available.
func (s WeekdaySet) Empty() bool {
	return len(s) == 0
}

// Sorted returns the weekdays in ascending order.
func (s WeekdaySet) Sorted() []time.Weekday {
	out := make([]time.Weekday, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Window is the inclusive booking window.
type Window struct {
	Min time.Time
	Max time.Time
}

// DefaultWindow returns [today+minDays, today+maxDays].
func DefaultWindow(today time.Time, minDays, maxDays int) Window {
	day := Day(today)
	return Window{
		Min: day.AddDate(0, 0, minDays),
		Max: day.AddDate(0, 0, maxDays),
	}
}

// Contains reports whether date falls in the window, comparing calendar days only.
// Each value is read in its own location, so a UTC midnight and a Jakarta
// midnight of the same date compare equal.
func (w Window) Contains(date time.Time) bool {
	d := civil(date)
	return d >= civil(w.Min) && d <= civil(w.Max)
}

func civil(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// IsDaySelectable reports whether date lies in the window and on an available weekday.
func IsDaySelectable(date time.Time, weekdays WeekdaySet, window Window) bool {
	if weekdays.Empty() {
		return false
	}
	return window.Contains(date) && weekdays.Has(date.Weekday())
}

// Month identifies a displayed calendar month.
type Month struct {
	Year  int
	Month time.Month
	Loc   *time.Location
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month(), Loc: t.Location()}
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string, loc *time.Location) (Month, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return MonthOf(t), nil
}

// First returns the first day of the month.
func (m Month) First() time.Time {
	loc := m.Loc
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Next returns the following month.
func (m Month) Next() Month {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

// Previous returns the preceding month.
func (m Month) Previous() Month {
	return MonthOf(m.First().AddDate(0, -1, 0))
}

// Contains reports whether t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// String renders YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Cell is one day of the month grid.
type Cell struct {
	Date       time.Time
	InMonth    bool
	Selectable bool
}

// Grid returns the 42 days shown for m, starting on the Sunday on or before the 1st.
// Days outside m are rendered but never selectable.
func Grid(m Month, weekdays WeekdaySet, window Window) []Cell {
	first := m.First()
	start := first.AddDate(0, 0, -int(first.Weekday()))

	cells := make([]Cell, GridCells)
	for i := range cells {
		d := start.AddDate(0, 0, i)
		inMonth := m.Contains(d)
		cells[i] = Cell{
			Date:       d,
			InMonth:    inMonth,
			Selectable: inMonth && IsDaySelectable(d, weekdays, window),
		}
	}
	return cells
}
