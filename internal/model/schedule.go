package model

import (
	"strings"
	"time"
)

// NoScheduleTime marks an entry that SIMRS uses as "no practice".
const NoScheduleTime = "00:00:00"

// ScheduleStatus is the closed set of schedule tags sent by SIMRS.
type ScheduleStatus string

const (
	ScheduleStatusNormal      ScheduleStatus = "normal"
	ScheduleStatusRescheduled ScheduleStatus = "rescheduled"
	ScheduleStatusOnLeave     ScheduleStatus = "on_leave"
	ScheduleStatusUnknown     ScheduleStatus = "unknown"
)

// ParseScheduleStatus maps a raw upstream status into ScheduleStatus.
func ParseScheduleStatus(raw string) ScheduleStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "NORMAL", "AKTIF":
		return ScheduleStatusNormal
	case "RESCHEDULE", "RESCHEDULED":
		return ScheduleStatusRescheduled
	case "LEAVE", "ON_LEAVE", "CUTI":
		return ScheduleStatusOnLeave
	default:
		return ScheduleStatusUnknown
	}
}

// WeeklyScheduleEntry is one recurring practice slot of a doctor at a clinic.
type WeeklyScheduleEntry struct {
	ClinicName      string         `json:"clinic_name"`
	Weekday         time.Weekday   `json:"weekday"`
	StartTime       string         `json:"start_time"` // "08:00:00"
	EndTime         string         `json:"end_time"`   // "12:00:00"
	Quota           *int           `json:"quota,omitempty"`
	ConsultationFee *float64       `json:"consultation_fee,omitempty"`
	Status          ScheduleStatus `json:"status,omitempty"`
	Note            string         `json:"note,omitempty"`
}

// IsNoSchedule reports whether the entry is the "no schedule" sentinel.
func (e WeeklyScheduleEntry) IsNoSchedule() bool {
	return e.StartTime == NoScheduleTime && e.EndTime == NoScheduleTime
}

// Hours returns the practice hours as "08:00 - 12:00".
func (e WeeklyScheduleEntry) Hours() string {
	return trimSeconds(e.StartTime) + " - " + trimSeconds(e.EndTime)
}

func trimSeconds(t string) string {
	if len(t) == len("15:04:05") {
		return t[:5]
	}
	return t
}

// Doctor is the doctor lookup envelope returned by SIMRS.
type Doctor struct {
	Code           string                `json:"code"`
	Name           string                `json:"name"`
	Specialization string                `json:"specialization"`
	Schedule       []WeeklyScheduleEntry `json:"schedule"`
}
