package calendar

import (
	"time"
)

// Selection holds the date-picker state of one booking view.
type Selection struct {
	weekdays  WeekdaySet
	window    Window
	displayed Month
	selected  *time.Time
}

// NewSelection creates a picker showing the month of window.Min.
func NewSelection(weekdays WeekdaySet, window Window) *Selection {
	if weekdays == nil {
		weekdays = NewWeekdaySet()
	}
	return &Selection{
		weekdays:  weekdays,
		window:    window,
		displayed: MonthOf(window.Min),
	}
}

// Displayed returns the month currently shown.
func (s *Selection) Displayed() Month {
	return s.displayed
}

// Show jumps to an arbitrary month.
func (s *Selection) Show(m Month) {
	s.displayed = m
}

// NextMonth moves the displayed month forward. Navigation is unconstrained.
func (s *Selection) NextMonth() Month {
	s.displayed = s.displayed.Next()
	return s.displayed
}

// PreviousMonth moves the displayed month backward.
func (s *Selection) PreviousMonth() Month {
	s.displayed = s.displayed.Previous()
	return s.displayed
}

// Grid returns the cells of the displayed month.
func (s *Selection) Grid() []Cell {
	return Grid(s.displayed, s.weekdays, s.window)
}

// NoAvailableDays reports the all-disabled state of a doctor without practice days.
func (s *Selection) NoAvailableDays() bool {
	return s.weekdays.Empty()
}

// Selectable reports whether date can be picked in the displayed month.
func (s *Selection) Selectable(date time.Time) bool {
	return s.displayed.Contains(date) && IsDaySelectable(date, s.weekdays, s.window)
}

// Select picks date and returns it as YYYY-MM-DD.
// A disabled date returns ErrSelectionRejected and leaves the state untouched.
func (s *Selection) Select(date time.Time) (string, error) {
	if !s.Selectable(date) {
		return "", ErrSelectionRejected
	}
	d := Day(date)
	s.selected = &d
	return FormatDate(d), nil
}

// Selected returns the picked date, if any.
func (s *Selection) Selected() (time.Time, bool) {
	if s.selected == nil {
		return time.Time{}, false
	}
	return *s.selected, true
}

// Clear drops the current selection.
func (s *Selection) Clear() {
	s.selected = nil
}
