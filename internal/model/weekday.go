package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownWeekday is returned when a day name from SIMRS cannot be mapped.
var ErrUnknownWeekday = errors.New("unknown weekday")

// weekdayAliases maps upstream day names to the numeric weekday (Sunday=0).
// Some SIMRS installations send AKHAD/AHAD instead of MINGGU.
var weekdayAliases = map[string]time.Weekday{
	"MINGGU": time.Sunday,
	"AKHAD":  time.Sunday,
	"AHAD":   time.Sunday,
	"SENIN":  time.Monday,
	"SELASA": time.Tuesday,
	"RABU":   time.Wednesday,
	"KAMIS":  time.Thursday,
	"JUMAT":  time.Friday,
	"JUM'AT": time.Friday,
	"SABTU":  time.Saturday,
}

var dayNames = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// ParseWeekday converts an Indonesian day name into a time.Weekday.
func ParseWeekday(raw string) (time.Weekday, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if w, ok := weekdayAliases[key]; ok {
		return w, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, raw)
}

// DayName returns the Indonesian name of a weekday.
func DayName(w time.Weekday) string {
	if w < time.Sunday || w > time.Saturday {
		return ""
	}
	return dayNames[w]
}

// MonthName returns the Indonesian name of a month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// FormatLongDate renders t as "Senin, 22 Desember 2025".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d", DayName(t.Weekday()), t.Day(), MonthName(t.Month()), t.Year())
}
