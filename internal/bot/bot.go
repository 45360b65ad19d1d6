package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/directory"
	"jadwalpoli/internal/metrics"
	"jadwalpoli/internal/model"
	"jadwalpoli/internal/queue"
	"jadwalpoli/internal/schedule"
	"jadwalpoli/internal/simrs"
)

const helpText = `Perintah yang tersedia:
/dokter - daftar dokter
/jadwal <kode> - jadwal praktik dokter
/kalender <kode> - pilih tanggal kunjungan
/antrian <dokter> <poli> <YYYY-MM-DD> - pantau antrian
/refresh - perbarui antrian sekarang
/stop - berhenti memantau antrian`

// BookingRules bounds the dates offered on the calendar, in days from today.
type BookingRules struct {
	MinDaysAhead int
	MaxDaysAhead int
}

// Bot is the Telegram front-end for schedules, booking dates and live queues.
type Bot struct {
	tg      telegramClient
	doctors DoctorDirectory
	poller  *queue.Poller
	rules   BookingRules
	loc     *time.Location
	now     func() time.Time
	logger  *zerolog.Logger

	mu      sync.Mutex
	watches map[int64]*chatWatch
}

func New(
	token string,
	debug bool,
	doctors DoctorDirectory,
	poller *queue.Poller,
	rules BookingRules,
	loc *time.Location,
	logger *zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	tg := newThrottledClient(&realTelegramClient{api: api}, DefaultThrottleConfig())
	return newBot(tg, doctors, poller, rules, loc, logger)
}

func newBot(
	tg telegramClient,
	doctors DoctorDirectory,
	poller *queue.Poller,
	rules BookingRules,
	loc *time.Location,
	logger *zerolog.Logger,
) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	if rules.MinDaysAhead <= 0 {
		rules.MinDaysAhead = 1
	}
	if rules.MaxDaysAhead <= 0 {
		rules.MaxDaysAhead = 14
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "bot").Logger()
	return &Bot{
		tg:      tg,
		doctors: doctors,
		poller:  poller,
		rules:   rules,
		loc:     loc,
		now:     time.Now,
		logger:  &l,
		watches: make(map[int64]*chatWatch),
	}, nil
}

// Start polls updates until ctx is done, then stops every chat watch.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("Telegram bot authorized")
	defer b.stopAllWatches()

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			l := b.logger.With().Str("request_id", uuid.New().String()).Logger()
			b.handleUpdate(l.WithContext(ctx), &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("Handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		l.Debug().
			Int64("chat_id", update.Message.Chat.ID).
			Str("text", update.Message.Text).
			Msg("Handling message")
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) today() time.Time {
	return calendar.Day(b.now().In(b.loc))
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil {
		return
	}
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return
	}
	cmd, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	args := fields[1:]
	chatID := msg.Chat.ID

	switch strings.ToLower(cmd) {
	case "start", "help":
		b.reply(chatID, helpText)
	case "dokter":
		b.handleDoctors(ctx, chatID, 0, 0)
	case "jadwal":
		if len(args) != 1 {
			b.reply(chatID, "Format: /jadwal <kode dokter>")
			return
		}
		b.handleSchedule(ctx, chatID, args[0])
	case "kalender":
		if len(args) != 1 {
			b.reply(chatID, "Format: /kalender <kode dokter>")
			return
		}
		b.handleCalendar(ctx, chatID, args[0])
	case "antrian":
		if len(args) != 3 {
			b.reply(chatID, "Format: /antrian <dokter> <poli> <YYYY-MM-DD>")
			return
		}
		b.handleQueue(ctx, chatID, queue.Key{DoctorCode: args[0], ClinicCode: args[1], Date: args[2]})
	case "refresh":
		b.handleRefresh(ctx, chatID)
	case "stop":
		b.handleStop(chatID)
	default:
		b.reply(chatID, helpText)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	data := cq.Data
	_ = b.answerCallback(cq.ID)
	if data == callbackNoop {
		return
	}

	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID

	switch {
	case strings.HasPrefix(data, callbackCalendar):
		code, month, ok := splitCallback(data, callbackCalendar)
		if !ok {
			return
		}
		b.handleCalendarNav(ctx, chatID, messageID, code, month)
	case strings.HasPrefix(data, callbackDate):
		code, date, ok := splitCallback(data, callbackDate)
		if !ok {
			return
		}
		b.handleDatePick(ctx, chatID, code, date)
	case strings.HasPrefix(data, callbackDoctorPage):
		page, err := strconv.Atoi(strings.TrimPrefix(data, callbackDoctorPage))
		if err != nil {
			return
		}
		b.handleDoctors(ctx, chatID, messageID, page)
	case strings.HasPrefix(data, callbackSchedule):
		b.handleSchedule(ctx, chatID, strings.TrimPrefix(data, callbackSchedule))
	}
}

// splitCallback parses "<prefix><code>:<value>". Doctor codes never contain ':'.
func splitCallback(data, prefix string) (string, string, bool) {
	code, value, ok := strings.Cut(strings.TrimPrefix(data, prefix), ":")
	if !ok || code == "" || value == "" {
		return "", "", false
	}
	return code, value, true
}

func (b *Bot) lookupDoctor(ctx context.Context, chatID int64, code string) (*directory.Result, bool) {
	res, err := b.doctors.Lookup(ctx, code)
	switch {
	case errors.Is(err, simrs.ErrNotFound):
		b.reply(chatID, fmt.Sprintf("Dokter dengan kode %s tidak ditemukan.", code))
		return nil, false
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Str("doctor", code).Msg("doctor lookup failed")
		b.reply(chatID, "Jadwal sedang tidak dapat dimuat. Silakan coba lagi nanti.")
		return nil, false
	}
	return res, true
}

func (b *Bot) handleDoctors(ctx context.Context, chatID int64, messageID, page int) {
	docs, stale, err := b.doctors.List(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("doctor list failed")
		b.reply(chatID, "Daftar dokter sedang tidak dapat dimuat.")
		return
	}
	if len(docs) == 0 {
		b.reply(chatID, "Belum ada dokter terdaftar.")
		return
	}

	text, markup := renderDoctorPage(docs, page, stale)
	if messageID != 0 {
		_, _ = b.tg.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup))
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, _ = b.tg.Send(msg)
}

func (b *Bot) handleSchedule(ctx context.Context, chatID int64, code string) {
	res, ok := b.lookupDoctor(ctx, chatID, code)
	if !ok {
		return
	}
	ds, err := schedule.Build(*res.Doctor, b.today())
	if errors.Is(err, schedule.ErrEmptySchedule) {
		b.reply(chatID, fmt.Sprintf("%s\n%s", res.Doctor.Name, emptyScheduleText))
		return
	}
	if err != nil {
		b.reply(chatID, "Jadwal sedang tidak dapat dimuat.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, renderSchedule(ds, res.Stale, res.FetchedAt))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗓 Pilih tanggal", callbackCalendar+res.Doctor.Code+":"+calendar.MonthOf(b.window().Min).String()),
		),
	)
	_, _ = b.tg.Send(msg)
}

func (b *Bot) window() calendar.Window {
	return calendar.DefaultWindow(b.today(), b.rules.MinDaysAhead, b.rules.MaxDaysAhead)
}

func (b *Bot) selection(res *directory.Result) *calendar.Selection {
	return calendar.NewSelection(schedule.AvailableWeekdays(res.Doctor.Schedule), b.window())
}

func (b *Bot) handleCalendar(ctx context.Context, chatID int64, code string) {
	res, ok := b.lookupDoctor(ctx, chatID, code)
	if !ok {
		return
	}
	sel := b.selection(res)
	msg := tgbotapi.NewMessage(chatID, calendarText(res.Doctor, sel))
	msg.ReplyMarkup = GenerateCalendarKeyboard(res.Doctor.Code, sel)
	_, _ = b.tg.Send(msg)
}

func (b *Bot) handleCalendarNav(ctx context.Context, chatID int64, messageID int, code, rawMonth string) {
	month, err := calendar.ParseMonth(rawMonth, b.loc)
	if err != nil {
		return
	}
	res, ok := b.lookupDoctor(ctx, chatID, code)
	if !ok {
		return
	}
	sel := b.selection(res)
	sel.Show(month)
	_, _ = b.tg.Send(tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, calendarText(res.Doctor, sel), GenerateCalendarKeyboard(res.Doctor.Code, sel),
	))
}

// handleDatePick confirms a tapped day. Days that are not selectable are ignored without a reply.
func (b *Bot) handleDatePick(ctx context.Context, chatID int64, code, rawDate string) {
	date, err := calendar.ParseDate(rawDate, b.loc)
	if err != nil {
		return
	}
	res, err := b.doctors.Lookup(ctx, code)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("doctor", code).Msg("date pick lookup failed")
		return
	}

	sel := b.selection(res)
	sel.Show(calendar.MonthOf(date))
	picked, err := sel.Select(date)
	if err != nil {
		metrics.IncSelection("rejected")
		return
	}
	metrics.IncSelection("accepted")

	b.reply(chatID, fmt.Sprintf("Tanggal kunjungan %s: %s (%s)",
		res.Doctor.Name, model.FormatLongDate(date), picked))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) answerCallback(id string) error {
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}
