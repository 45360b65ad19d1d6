package queue

import (
	"context"
	"errors"
	"time"

	"jadwalpoli/internal/model"
)

var (
	// ErrFetchFailed wraps any network or upstream failure of a queue fetch.
	ErrFetchFailed = errors.New("queue status fetch failed")
	// ErrWatchNotFound is returned for an unknown or stopped watch id.
	ErrWatchNotFound = errors.New("watch not found")
)

// Fetcher reads the queue status of one clinic-day from SIMRS.
type Fetcher interface {
	FetchQueueStatus(ctx context.Context, doctorCode, clinicCode, date string) (*model.QueueStatus, error)
}

// Key identifies one clinic-day queue.
type Key struct {
	DoctorCode string `json:"doctor_code"`
	ClinicCode string `json:"clinic_code"`
	Date       string `json:"date"`
}

// Enabled reports whether all parts of the key are present.
// A disabled key is never fetched.
func (k Key) Enabled() bool {
	return k.DoctorCode != "" && k.ClinicCode != "" && k.Date != ""
}

func (k Key) String() string {
	return k.DoctorCode + "/" + k.ClinicCode + "/" + k.Date
}

// View is the display state derived from the latest applied fetch.
type View struct {
	Key        Key                `json:"key"`
	Status     *model.QueueStatus `json:"status,omitempty"`
	Err        error              `json:"-"`
	Error      string             `json:"error,omitempty"`
	Disabled   bool               `json:"disabled,omitempty"`
	Loading    bool               `json:"loading,omitempty"`
	NoQueue    bool               `json:"no_queue"`
	IsFinished bool               `json:"is_finished"`
	Progress   *int               `json:"progress,omitempty"`
	Waiting    int                `json:"waiting"`
	FetchedAt  time.Time          `json:"fetched_at,omitempty"`
}

func newView(key Key, status *model.QueueStatus, err error, at time.Time) View {
	v := View{Key: key, FetchedAt: at}
	if err != nil {
		v.Err = err
		v.Error = err.Error()
		return v
	}

	v.Status = status
	v.NoQueue = status.NoQueue()
	v.IsFinished = status.IsFinished()
	v.Waiting = status.TotalWaiting
	if p, ok := status.Progress(); ok {
		v.Progress = &p
	}
	return v
}

func disabledView(key Key) View {
	return View{Key: key, Disabled: true}
}
