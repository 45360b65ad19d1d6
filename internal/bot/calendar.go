package bot

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/model"
)

const (
	callbackNoop     = "noop"
	callbackCalendar = "cal:"
	callbackDate     = "date:"
)

var weekdayHeader = []string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}

// GenerateCalendarKeyboard builds the Sunday-first 6x7 inline calendar of the displayed month.
// Only selectable days carry a date callback, every other cell answers "noop".
func GenerateCalendarKeyboard(doctorCode string, sel *calendar.Selection) tgbotapi.InlineKeyboardMarkup {
	m := sel.Displayed()
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 9)

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d", model.MonthName(m.Month), m.Year), callbackNoop),
	})

	header := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for _, d := range weekdayHeader {
		header = append(header, tgbotapi.NewInlineKeyboardButtonData(d, callbackNoop))
	}
	rows = append(rows, header)

	cells := sel.Grid()
	for week := 0; week < len(cells)/7; week++ {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for _, c := range cells[week*7 : week*7+7] {
			switch {
			case !c.InMonth:
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", callbackNoop))
			case !c.Selectable:
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("·", callbackNoop))
			default:
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(
					strconv.Itoa(c.Date.Day()),
					callbackDate+doctorCode+":"+calendar.FormatDate(c.Date),
				))
			}
		}
		rows = append(rows, row)
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("◀️", callbackCalendar+doctorCode+":"+m.Previous().String()),
		tgbotapi.NewInlineKeyboardButtonData("▶️", callbackCalendar+doctorCode+":"+m.Next().String()),
	})

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func calendarText(doc *model.Doctor, sel *calendar.Selection) string {
	if sel.NoAvailableDays() {
		return fmt.Sprintf("%s belum memiliki hari praktik.", doc.Name)
	}
	return fmt.Sprintf("Pilih tanggal kunjungan %s:", doc.Name)
}
