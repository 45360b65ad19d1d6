package schedule

import (
	"errors"
	"time"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/model"
)

// ErrEmptySchedule means a doctor has no usable practice entries.
var ErrEmptySchedule = errors.New("no schedule available")

// ClinicGroup is the schedule of one doctor at one clinic.
type ClinicGroup struct {
	ClinicName string                      `json:"clinic_name"`
	Entries    []model.WeeklyScheduleEntry `json:"entries"`
}

// Occurrence is an entry resolved to its nearest calendar date.
type Occurrence struct {
	Entry    model.WeeklyScheduleEntry `json:"entry"`
	Date     string                    `json:"date"`
	LongDate string                    `json:"long_date"`
	IsToday  bool                      `json:"is_today"`
	Hours    string                    `json:"hours"`
	Badge    string                    `json:"badge,omitempty"`
}

// ClinicOccurrences groups resolved occurrences per clinic.
type ClinicOccurrences struct {
	ClinicName  string       `json:"clinic_name"`
	Occurrences []Occurrence `json:"occurrences"`
}

// NextOccurrence returns the nearest date on or after today falling on weekday.
func NextOccurrence(weekday time.Weekday, today time.Time) (time.Time, bool) {
	delta := int(weekday) - int(today.Weekday())
	if delta < 0 {
		delta += 7
	}
	return calendar.Day(today).AddDate(0, 0, delta), delta == 0
}

// Usable drops the "no schedule" sentinel entries.
func Usable(entries []model.WeeklyScheduleEntry) []model.WeeklyScheduleEntry {
	out := make([]model.WeeklyScheduleEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsNoSchedule() {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Group partitions usable entries by clinic in first-seen order.
// Entries without a clinic name fall under "Poli {specialization}".
func Group(entries []model.WeeklyScheduleEntry, specialization string) []ClinicGroup {
	fallback := "Poli " + specialization

	var groups []ClinicGroup
	index := make(map[string]int)
	for _, e := range Usable(entries) {
		name := e.ClinicName
		if name == "" {
			name = fallback
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, ClinicGroup{ClinicName: name})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// Resolve computes the next occurrence of every entry in groups.
func Resolve(groups []ClinicGroup, today time.Time) []ClinicOccurrences {
	out := make([]ClinicOccurrences, 0, len(groups))
	for _, g := range groups {
		co := ClinicOccurrences{
			ClinicName:  g.ClinicName,
			Occurrences: make([]Occurrence, 0, len(g.Entries)),
		}
		for _, e := range g.Entries {
			next, isToday := NextOccurrence(e.Weekday, today)
			co.Occurrences = append(co.Occurrences, Occurrence{
				Entry:    e,
				Date:     calendar.FormatDate(next),
				LongDate: model.FormatLongDate(next),
				IsToday:  isToday,
				Hours:    e.Hours(),
				Badge:    Badge(e),
			})
		}
		out = append(out, co)
	}
	return out
}

// Badge derives the display badge of an entry from its status and note.
func Badge(e model.WeeklyScheduleEntry) string {
	switch e.Status {
	case model.ScheduleStatusOnLeave:
		return "Cuti"
	case model.ScheduleStatusRescheduled:
		if e.Note != "" {
			return "Jadwal Berubah: " + e.Note
		}
		return "Jadwal Berubah"
	}
	return e.Note
}

// AvailableWeekdays returns the practice weekdays of the usable entries.
func AvailableWeekdays(entries []model.WeeklyScheduleEntry) calendar.WeekdaySet {
	set := calendar.NewWeekdaySet()
	for _, e := range Usable(entries) {
		set.Add(e.Weekday)
	}
	return set
}

// DoctorSchedule is the display model of a doctor's upcoming practice days.
type DoctorSchedule struct {
	Doctor  model.Doctor        `json:"doctor"`
	Clinics []ClinicOccurrences `json:"clinics"`
}

// Build groups and resolves a doctor's schedule.
// It returns ErrEmptySchedule when no usable entry remains.
func Build(doc model.Doctor, today time.Time) (*DoctorSchedule, error) {
	groups := Group(doc.Schedule, doc.Specialization)
	if len(groups) == 0 {
		return nil, ErrEmptySchedule
	}
	return &DoctorSchedule{
		Doctor:  doc,
		Clinics: Resolve(groups, today),
	}, nil
}
