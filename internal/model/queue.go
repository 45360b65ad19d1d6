package model

import (
	"math"
	"strings"
	"time"
)

// QueueState is the closed set of clinic-day queue states.
type QueueState string

const (
	QueueStateActive   QueueState = "active"
	QueueStateFinished QueueState = "finished"
	QueueStateError    QueueState = "error"
	QueueStateUnknown  QueueState = "unknown"
)

// ParseQueueState maps the SIMRS status string ("Aktif", "Selesai", "Error").
func ParseQueueState(raw string) QueueState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "aktif", "active":
		return QueueStateActive
	case "selesai", "finished":
		return QueueStateFinished
	case "error":
		return QueueStateError
	default:
		return QueueStateUnknown
	}
}

// QueueStatus is a snapshot of one clinic-day queue.
type QueueStatus struct {
	DoctorCode    string     `json:"doctor_code"`
	ClinicCode    string     `json:"clinic_code"`
	Date          string     `json:"date"`
	CurrentNumber int        `json:"current_number"`
	TotalQueue    int        `json:"total_queue"`
	TotalWaiting  int        `json:"total_waiting"`
	State         QueueState `json:"state"`
	LastUpdated   time.Time  `json:"last_updated"`
	Message       string     `json:"message,omitempty"`
}

// NewQueueStatus builds a snapshot and enforces the counter invariants.
// waiting is nil when the upstream did not provide it. A provided count is
// kept within [0, total-current].
func NewQueueStatus(doctorCode, clinicCode, date string, current, total int, waiting *int) QueueStatus {
	if total < 0 {
		total = 0
	}
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}

	qs := QueueStatus{
		DoctorCode:    doctorCode,
		ClinicCode:    clinicCode,
		Date:          date,
		CurrentNumber: current,
		TotalQueue:    total,
	}
	qs.TotalWaiting = total - current
	if waiting != nil && *waiting < qs.TotalWaiting {
		qs.TotalWaiting = max(*waiting, 0)
	}
	return qs
}

// NoQueue reports whether no tickets have been issued.
func (q QueueStatus) NoQueue() bool {
	return q.TotalQueue == 0
}

// IsFinished reports whether the clinic has finished calling patients.
func (q QueueStatus) IsFinished() bool {
	return q.State == QueueStateFinished
}

// Progress returns the rounded percentage of called tickets.
// The second value is false when no tickets exist.
func (q QueueStatus) Progress() (int, bool) {
	if q.TotalQueue <= 0 {
		return 0, false
	}
	return int(math.Round(float64(q.CurrentNumber) / float64(q.TotalQueue) * 100)), true
}
