package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/directory"
	"jadwalpoli/internal/model"
	"jadwalpoli/internal/queue"
	"jadwalpoli/internal/simrs"
)

type fakeTelegram struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	updates  chan tgbotapi.Update
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegram) SelfUser() tgbotapi.User {
	return tgbotapi.User{UserName: "jadwal_test_bot"}
}

func (f *fakeTelegram) Sent() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), f.sent...)
}

// texts returns the text of every sent message and edit.
func (f *fakeTelegram) texts() []string {
	var out []string
	for _, c := range f.Sent() {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeTelegram) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type fakeDirectory struct {
	doctors map[string]*model.Doctor
	list    []model.Doctor
}

func (f *fakeDirectory) Lookup(_ context.Context, code string) (*directory.Result, error) {
	if code == "broken" {
		return nil, errors.New("timeout")
	}
	doc, ok := f.doctors[code]
	if !ok {
		return nil, simrs.ErrNotFound
	}
	return &directory.Result{Doctor: doc}, nil
}

func (f *fakeDirectory) List(context.Context) ([]model.Doctor, bool, error) {
	return f.list, false, nil
}

type stubFetcher struct{}

func (stubFetcher) FetchQueueStatus(_ context.Context, doctorCode, clinicCode, date string) (*model.QueueStatus, error) {
	qs := model.NewQueueStatus(doctorCode, clinicCode, date, 7, 20, nil)
	qs.State = model.QueueStateActive
	return &qs, nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func testDirectory() *fakeDirectory {
	return &fakeDirectory{doctors: map[string]*model.Doctor{
		"D001": {
			Code:           "D001",
			Name:           "dr. Sari",
			Specialization: "Anak",
			Schedule: []model.WeeklyScheduleEntry{
				{ClinicName: "Poli Anak", Weekday: time.Monday, StartTime: "08:00:00", EndTime: "12:00:00", Quota: intPtr(20), ConsultationFee: floatPtr(150000)},
				{ClinicName: "Poli Anak", Weekday: time.Wednesday, StartTime: "13:00:00", EndTime: "15:00:00", Status: model.ScheduleStatusOnLeave},
			},
		},
		"D404": {
			Code: "D404", Name: "dr. Kosong", Specialization: "Gigi",
			Schedule: []model.WeeklyScheduleEntry{{Weekday: time.Tuesday, StartTime: model.NoScheduleTime, EndTime: model.NoScheduleTime}},
		},
	}}
}

func newTestBot(t *testing.T) (*Bot, *fakeTelegram, *queue.Poller) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	poller := queue.NewPoller(stubFetcher{}, queue.Config{Interval: time.Hour}, &logger)
	t.Cleanup(poller.StopAll)

	tg := &fakeTelegram{updates: make(chan tgbotapi.Update)}
	b, err := newBot(tg, testDirectory(), poller, BookingRules{}, time.UTC, &logger)
	require.NoError(t, err)
	// Wednesday.
	b.now = func() time.Time { return time.Date(2025, 12, 17, 9, 0, 0, 0, time.UTC) }
	return b, tg, poller
}

func command(text string) *tgbotapi.Update {
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: 42},
		From: &tgbotapi.User{ID: 7},
	}}
}

func callback(data string) *tgbotapi.Update {
	return &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: 42}},
	}}
}

func TestGenerateCalendarKeyboard(t *testing.T) {
	today := time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC)
	sel := calendar.NewSelection(calendar.NewWeekdaySet(time.Monday, time.Wednesday), calendar.DefaultWindow(today, 1, 14))

	kb := GenerateCalendarKeyboard("D001", sel)
	rows := kb.InlineKeyboard
	require.Len(t, rows, 9, "title, weekday header, six weeks and navigation")
	assert.Equal(t, "Desember 2025", rows[0][0].Text)
	assert.Equal(t, "Min", rows[1][0].Text)

	var selectable []string
	for _, row := range rows[2:8] {
		require.Len(t, row, 7)
		for _, btn := range row {
			require.NotNil(t, btn.CallbackData)
			if strings.HasPrefix(*btn.CallbackData, callbackDate) {
				selectable = append(selectable, *btn.CallbackData)
			}
		}
	}
	assert.Equal(t, []string{
		"date:D001:2025-12-22", "date:D001:2025-12-24", "date:D001:2025-12-29", "date:D001:2025-12-31",
	}, selectable)

	// 2025-11-30 leads the grid and belongs to the previous month.
	assert.Equal(t, " ", rows[2][0].Text)
	// 2025-12-17 is today, outside the window.
	assert.Equal(t, "·", rows[4][3].Text)
	assert.Equal(t, callbackNoop, *rows[4][3].CallbackData)

	nav := rows[8]
	assert.Equal(t, "cal:D001:2025-11", *nav[0].CallbackData)
	assert.Equal(t, "cal:D001:2026-01", *nav[1].CallbackData)
}

func TestScheduleCommand(t *testing.T) {
	b, tg, _ := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command("/jadwal D001"))
	text := tg.lastText()
	assert.Contains(t, text, "dr. Sari (Anak)")
	assert.Contains(t, text, "🏥 Poli Anak")
	assert.Contains(t, text, "• Senin, 22 Desember 2025 · 08:00 - 12:00")
	assert.Contains(t, text, "Kuota: 20, Biaya: Rp150.000")
	assert.Contains(t, text, "• Rabu, 17 Desember 2025 (Hari ini) · 13:00 - 15:00 [Cuti]")

	b.handleUpdate(ctx, command("/jadwal D404"))
	assert.Contains(t, tg.lastText(), emptyScheduleText)

	b.handleUpdate(ctx, command("/jadwal nobody"))
	assert.Contains(t, tg.lastText(), "tidak ditemukan")

	b.handleUpdate(ctx, command("/jadwal broken"))
	assert.Contains(t, tg.lastText(), "tidak dapat dimuat")

	b.handleUpdate(ctx, command("/jadwal"))
	assert.Contains(t, tg.lastText(), "Format: /jadwal")
}

func TestCalendarFlow(t *testing.T) {
	b, tg, _ := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command("/kalender D001"))
	sent := tg.Sent()
	require.Len(t, sent, 1)
	msg, ok := sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, msg.ReplyMarkup)

	b.handleUpdate(ctx, callback("cal:D001:2026-01"))
	sent = tg.Sent()
	require.Len(t, sent, 2)
	edit, ok := sent[1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 99, edit.MessageID)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, "Januari 2026", edit.ReplyMarkup.InlineKeyboard[0][0].Text)

	b.handleUpdate(ctx, callback("date:D001:2025-12-22"))
	assert.Equal(t, "Tanggal kunjungan dr. Sari: Senin, 22 Desember 2025 (2025-12-22)", tg.lastText())

	before := len(tg.Sent())
	for _, data := range []string{"date:D001:2025-12-23", "date:D001:2025-12-17", "date:D001:bad", "noop", "date:nobody:2025-12-22"} {
		b.handleUpdate(ctx, callback(data))
	}
	assert.Len(t, tg.Sent(), before, "disabled days are ignored silently")
	assert.Len(t, tg.requests, 7, "every callback is answered")
}

func TestQueueCommands(t *testing.T) {
	b, tg, poller := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command("/antrian D001 ANA 17-12-2025"))
	assert.Contains(t, tg.lastText(), "YYYY-MM-DD")
	assert.Equal(t, 0, poller.Active())

	b.handleUpdate(ctx, command("/antrian D001 ANA 2025-12-17"))
	assert.Equal(t, 1, poller.Active())
	assert.Eventually(t, func() bool {
		return strings.Contains(tg.lastText(), "Nomor dilayani: 7 dari 20")
	}, 2*time.Second, 10*time.Millisecond)

	text := tg.lastText()
	assert.Contains(t, text, "Rabu, 17 Desember 2025")
	assert.Contains(t, text, "Menunggu: 13")
	assert.Contains(t, text, "Progres: 35%")

	// A new watch replaces the previous one in the same chat.
	b.handleUpdate(ctx, command("/antrian D001 ANA 2025-12-18"))
	assert.Equal(t, 1, poller.Active())

	b.handleUpdate(ctx, command("/refresh"))
	b.handleUpdate(ctx, command("/stop"))
	assert.Equal(t, "Pemantauan antrian dihentikan.", tg.lastText())
	assert.Equal(t, 0, poller.Active())

	b.handleUpdate(ctx, command("/refresh"))
	assert.Contains(t, tg.lastText(), "Tidak ada antrian")
	b.handleUpdate(ctx, command("/stop"))
	assert.Contains(t, tg.lastText(), "Tidak ada antrian")
}

func TestStart_StopsWatchesOnShutdown(t *testing.T) {
	b, tg, poller := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()

	tg.updates <- *command("/antrian D001 ANA 2025-12-17")
	assert.Eventually(t, func() bool { return poller.Active() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, poller.Active())
}

func TestRenderDoctorPage(t *testing.T) {
	docs := make([]model.Doctor, 10)
	for i := range docs {
		docs[i] = model.Doctor{Code: fmt.Sprintf("D%02d", i), Name: fmt.Sprintf("dr. %d", i), Specialization: "Umum"}
	}

	text, kb := renderDoctorPage(docs, 0, false)
	assert.Contains(t, text, "Halaman 1 dari 2")
	require.Len(t, kb.InlineKeyboard, 9)
	assert.Equal(t, "jadwal:D00", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "dok:1", *kb.InlineKeyboard[8][0].CallbackData)

	text, kb = renderDoctorPage(docs, 5, true)
	assert.Contains(t, text, "Halaman 2 dari 2")
	assert.Contains(t, text, "data tersimpan")
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, "dok:0", *kb.InlineKeyboard[2][0].CallbackData)
}

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "Rp0"},
		{500, "Rp500"},
		{1000, "Rp1.000"},
		{150000, "Rp150.000"},
		{1250000.4, "Rp1.250.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRupiah(tt.in))
	}
}

func TestRenderQueue(t *testing.T) {
	key := queue.Key{DoctorCode: "D001", ClinicCode: "ANA", Date: "2025-12-17"}

	assert.Contains(t, renderQueue(queue.View{Key: key, Disabled: true}, time.UTC), "Pilih dokter")
	assert.Contains(t, renderQueue(queue.View{Key: key, Loading: true}, time.UTC), "Memuat")
	assert.Contains(t, renderQueue(queue.View{Key: key, Err: errors.New("x"), Error: "x"}, time.UTC), "/refresh")

	empty := model.NewQueueStatus("D001", "ANA", "2025-12-17", 0, 0, nil)
	assert.Contains(t, renderQueue(queue.View{Key: key, Status: &empty, NoQueue: true}, time.UTC), "Belum ada antrian")

	done := model.NewQueueStatus("D001", "ANA", "2025-12-17", 20, 20, nil)
	done.State = model.QueueStateFinished
	p := 100
	text := renderQueue(queue.View{Key: key, Status: &done, IsFinished: true, Progress: &p}, time.UTC)
	assert.Contains(t, text, "Progres: 100%")
	assert.Contains(t, text, "Pelayanan selesai")
}
