package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/queue"
)

// chatWatch ties a queue watch to the message it keeps up to date.
type chatWatch struct {
	watch     *queue.Watch
	messageID int
}

func (b *Bot) handleQueue(ctx context.Context, chatID int64, key queue.Key) {
	if _, err := calendar.ParseDate(key.Date, b.loc); err != nil {
		b.reply(chatID, "Tanggal harus berformat YYYY-MM-DD.")
		return
	}

	b.stopWatch(chatID)

	sent, err := b.tg.Send(tgbotapi.NewMessage(chatID, renderQueue(queue.View{Key: key, Loading: true}, b.loc)))
	if err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("queue message send failed")
		return
	}
	messageID := sent.MessageID

	// The watch outlives the update that started it.
	w := b.poller.Watch(context.WithoutCancel(ctx), key, func(v queue.View) {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, renderQueue(v, b.loc))
		if _, err := b.tg.Send(edit); err != nil {
			b.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("queue message edit failed")
		}
	})

	b.mu.Lock()
	b.watches[chatID] = &chatWatch{watch: w, messageID: messageID}
	b.mu.Unlock()
}

func (b *Bot) handleRefresh(ctx context.Context, chatID int64) {
	b.mu.Lock()
	cw := b.watches[chatID]
	b.mu.Unlock()

	if cw == nil || cw.watch.Stopped() {
		b.reply(chatID, "Tidak ada antrian yang sedang dipantau.")
		return
	}
	cw.watch.Refresh(ctx)
}

func (b *Bot) handleStop(chatID int64) {
	if !b.stopWatch(chatID) {
		b.reply(chatID, "Tidak ada antrian yang sedang dipantau.")
		return
	}
	b.reply(chatID, "Pemantauan antrian dihentikan.")
}

func (b *Bot) stopWatch(chatID int64) bool {
	b.mu.Lock()
	cw := b.watches[chatID]
	delete(b.watches, chatID)
	b.mu.Unlock()

	if cw == nil {
		return false
	}
	cw.watch.Stop()
	return true
}

func (b *Bot) stopAllWatches() {
	b.mu.Lock()
	watches := b.watches
	b.watches = make(map[int64]*chatWatch)
	b.mu.Unlock()

	for _, cw := range watches {
		cw.watch.Stop()
	}
}
