package simrs

import (
	"time"

	"github.com/rs/zerolog"

	"jadwalpoli/internal/model"
)

// lastUpdatedLayouts are the timestamp formats seen from SIMRS installations.
var lastUpdatedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

type queueStatusWire struct {
	DoctorCode    string `json:"doctorCode"`
	PoliCode      string `json:"poliCode"`
	Date          string `json:"date"`
	CurrentNumber int    `json:"currentNumber"`
	TotalQueue    int    `json:"totalQueue"`
	TotalWaiting  *int   `json:"totalWaiting"`
	Status        string `json:"status"`
	LastUpdated   string `json:"lastUpdated"`
	Message       string `json:"message"`
}

func (w queueStatusWire) toModel(doctorCode, clinicCode, date string) model.QueueStatus {
	if w.DoctorCode != "" {
		doctorCode = w.DoctorCode
	}
	if w.PoliCode != "" {
		clinicCode = w.PoliCode
	}
	if w.Date != "" {
		date = w.Date
	}

	qs := model.NewQueueStatus(doctorCode, clinicCode, date, w.CurrentNumber, w.TotalQueue, w.TotalWaiting)
	qs.State = model.ParseQueueState(w.Status)
	qs.Message = w.Message
	qs.LastUpdated = parseTimestamp(w.LastUpdated)
	return qs
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range lastUpdatedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type scheduleEntryWire struct {
	ClinicName      string   `json:"clinicName"`
	Weekday         string   `json:"weekday"`
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	Quota           *int     `json:"quota"`
	ConsultationFee *float64 `json:"consultationFee"`
	Status          string   `json:"status"`
	Note            string   `json:"note"`
}

type doctorWire struct {
	Code            string              `json:"code"`
	Name            string              `json:"name"`
	Specialization  string              `json:"specialization"`
	ScheduleDetails []scheduleEntryWire `json:"scheduleDetails"`
}

// toModel converts the upstream doctor. Entries with an unknown day name
// cannot be placed on a calendar and are dropped.
func (w doctorWire) toModel(logger zerolog.Logger) model.Doctor {
	doc := model.Doctor{
		Code:           w.Code,
		Name:           w.Name,
		Specialization: w.Specialization,
		Schedule:       make([]model.WeeklyScheduleEntry, 0, len(w.ScheduleDetails)),
	}

	for _, e := range w.ScheduleDetails {
		day, err := model.ParseWeekday(e.Weekday)
		if err != nil {
			logger.Warn().Err(err).Str("doctor", w.Code).Msg("skipping schedule entry")
			continue
		}
		fee := e.ConsultationFee
		if fee != nil && *fee < 0 {
			fee = nil
		}
		doc.Schedule = append(doc.Schedule, model.WeeklyScheduleEntry{
			ClinicName:      e.ClinicName,
			Weekday:         day,
			StartTime:       e.StartTime,
			EndTime:         e.EndTime,
			Quota:           e.Quota,
			ConsultationFee: fee,
			Status:          model.ParseScheduleStatus(e.Status),
			Note:            e.Note,
		})
	}
	return doc
}
