package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jadwalpoli/internal/model"
)

const (
	doctorsPerPage     = 8
	callbackDoctorPage = "dok:"
	callbackSchedule   = "jadwal:"
)

// renderDoctorPage lists one page of doctors with a schedule button per doctor.
func renderDoctorPage(docs []model.Doctor, page int, stale bool) (string, tgbotapi.InlineKeyboardMarkup) {
	pages := (len(docs) + doctorsPerPage - 1) / doctorsPerPage
	if pages == 0 {
		pages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	start := page * doctorsPerPage
	end := start + doctorsPerPage
	if end > len(docs) {
		end = len(docs)
	}

	var message strings.Builder
	message.WriteString("Daftar dokter\n")
	message.WriteString(fmt.Sprintf("Halaman %d dari %d\n\n", page+1, pages))

	current := docs[start:end]
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(current)+1)
	for i, doc := range current {
		message.WriteString(fmt.Sprintf("%d. %s (%s)\n", start+i+1, doc.Name, doc.Specialization))
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d. %s", start+i+1, doc.Name),
				callbackSchedule+doc.Code,
			),
		})
	}
	if stale {
		message.WriteString("\n⚠️ Daftar dari data tersimpan.")
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Sebelumnya", fmt.Sprintf("%s%d", callbackDoctorPage, page-1)))
	}
	if page < pages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Berikutnya ➡️", fmt.Sprintf("%s%d", callbackDoctorPage, page+1)))
	}
	if len(nav) > 0 {
		keyboard = append(keyboard, nav)
	}

	return message.String(), tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
