package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Weekday
	}{
		{"SENIN", time.Monday},
		{"selasa", time.Tuesday},
		{" Rabu ", time.Wednesday},
		{"KAMIS", time.Thursday},
		{"JUMAT", time.Friday},
		{"JUM'AT", time.Friday},
		{"SABTU", time.Saturday},
		{"MINGGU", time.Sunday},
		{"AKHAD", time.Sunday},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseWeekday(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseWeekday("FUNDAY")
	assert.ErrorIs(t, err, ErrUnknownWeekday)
}

func TestFormatLongDate(t *testing.T) {
	d := time.Date(2025, 12, 22, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Senin, 22 Desember 2025", FormatLongDate(d))
	assert.Equal(t, "Minggu", DayName(time.Sunday))
	assert.Equal(t, "", DayName(time.Weekday(9)))
	assert.Equal(t, "Mei", MonthName(time.May))
}

func TestParseScheduleStatus(t *testing.T) {
	assert.Equal(t, ScheduleStatusNormal, ParseScheduleStatus(""))
	assert.Equal(t, ScheduleStatusRescheduled, ParseScheduleStatus("RESCHEDULE"))
	assert.Equal(t, ScheduleStatusOnLeave, ParseScheduleStatus("leave"))
	assert.Equal(t, ScheduleStatusUnknown, ParseScheduleStatus("HOLIDAY"))
}

func TestWeeklyScheduleEntry(t *testing.T) {
	e := WeeklyScheduleEntry{StartTime: "00:00:00", EndTime: "00:00:00"}
	assert.True(t, e.IsNoSchedule())

	e = WeeklyScheduleEntry{StartTime: "00:00:00", EndTime: "12:00:00"}
	assert.False(t, e.IsNoSchedule())
	assert.Equal(t, "00:00 - 12:00", e.Hours())
}

func TestParseQueueState(t *testing.T) {
	assert.Equal(t, QueueStateActive, ParseQueueState("Aktif"))
	assert.Equal(t, QueueStateFinished, ParseQueueState("Selesai"))
	assert.Equal(t, QueueStateError, ParseQueueState("Error"))
	assert.Equal(t, QueueStateUnknown, ParseQueueState("Tutup"))
}

func TestQueueStatus_Math(t *testing.T) {
	t.Run("derived waiting and progress", func(t *testing.T) {
		qs := NewQueueStatus("D1", "P1", "2025-12-17", 7, 20, nil)
		assert.Equal(t, 13, qs.TotalWaiting)
		p, ok := qs.Progress()
		require.True(t, ok)
		assert.Equal(t, 35, p)
		assert.False(t, qs.NoQueue())
	})

	t.Run("provided waiting wins", func(t *testing.T) {
		waiting := 4
		qs := NewQueueStatus("D1", "P1", "2025-12-17", 7, 20, &waiting)
		assert.Equal(t, 4, qs.TotalWaiting)
	})

	t.Run("provided waiting is clamped", func(t *testing.T) {
		negative := -3
		qs := NewQueueStatus("D1", "P1", "2025-12-17", 7, 20, &negative)
		assert.Equal(t, 0, qs.TotalWaiting)

		tooMany := 50
		qs = NewQueueStatus("D1", "P1", "2025-12-17", 7, 20, &tooMany)
		assert.Equal(t, 13, qs.TotalWaiting)
	})

	t.Run("empty queue has no progress", func(t *testing.T) {
		qs := NewQueueStatus("D1", "P1", "2025-12-17", 0, 0, nil)
		assert.True(t, qs.NoQueue())
		assert.Equal(t, 0, qs.TotalWaiting)
		_, ok := qs.Progress()
		assert.False(t, ok)
	})

	t.Run("current clamped to total", func(t *testing.T) {
		qs := NewQueueStatus("D1", "P1", "2025-12-17", 25, 20, nil)
		assert.Equal(t, 20, qs.CurrentNumber)
		assert.Equal(t, 0, qs.TotalWaiting)
		p, _ := qs.Progress()
		assert.Equal(t, 100, p)
	})

	t.Run("finished", func(t *testing.T) {
		qs := QueueStatus{State: QueueStateFinished}
		assert.True(t, qs.IsFinished())
	})
}
