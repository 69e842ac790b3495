package bot

import (
	"fmt"
	"strings"

	"taxibot/internal/domain/models"
	"taxibot/internal/notify"
	"taxibot/internal/services"
	"taxibot/internal/utils"
)

const (
	MsgWelcome        = "🚖 Добро пожаловать в систему бронирования такси! Выберите действие:"
	MsgChooseDir      = "Выберите направление:"
	MsgChooseDate     = "Выберите дату поездки:"
	MsgNoTrips        = "❌ Нет доступных поездок для этого направления."
	MsgAskAddress     = "📍 Укажите ваш адрес отправления (ответным сообщением):"
	MsgBooked         = "✅ Бронирование успешно выполнено!"
	MsgSeatsExhausted = "❌ К сожалению, на эту поездку больше нет мест."
	MsgOrphanInput    = "❌ Ошибка: отсутствуют данные бронирования."
	MsgGenericError   = "❌ Произошла ошибка. Пожалуйста, попробуйте позже."
	MsgNotFound       = "❌ Поездка не найдена."
	MsgConflict       = "⚠️ Такая поездка уже есть в расписании."
	MsgInvalidInput   = "⚠️ Некорректные данные. Проверьте ввод и попробуйте снова."
	MsgBanned         = "⛔ Доступ к бронированию для вас ограничен."
	MsgAdminOnly      = "⛔ Команда доступна только администратору."
	MsgUnknownCommand = "Неизвестная команда. Используйте /start."
	MsgCancelled      = "❎ Бронирование отменено."
	MsgNothingPending = "Нет активного бронирования."
	MsgNoBookings     = "У вас пока нет бронирований."
)

var (
	menuRows = [][]notify.Button{
		{{Label: "Посмотреть расписание", Data: ActionViewSchedule}},
		{{Label: "Забронировать место", Data: ActionBookSeat}},
		{{Label: "Мои бронирования", Data: ActionMyBookings}},
	}
	backToStart = [][]notify.Button{{{Label: "Назад", Data: ActionStart}}}
	backToBook  = [][]notify.Button{{{Label: "Назад", Data: ActionBookSeat}}}
)

func directionRows() [][]notify.Button {
	rows := make([][]notify.Button, 0, len(models.Directions)+1)
	for _, d := range models.Directions {
		rows = append(rows, []notify.Button{{Label: d.Label(), Data: EncodeBook(d)}})
	}
	return append(rows, backToStart[0])
}

func tripRows(dir models.Direction, trips []services.AvailableTrip) [][]notify.Button {
	rows := make([][]notify.Button, 0, len(trips)+1)
	for _, t := range trips {
		label := fmt.Sprintf("Дата: %s (свободно: %d)", t.Date, t.Available)
		if t.Available == 0 {
			label = fmt.Sprintf("Дата: %s (мест нет)", t.Date)
		}
		rows = append(rows, []notify.Button{{Label: label, Data: EncodeConfirm(dir, t.TripID)}})
	}
	return append(rows, backToBook[0])
}

type directionSchedule struct {
	Direction models.Direction
	Trips     []services.AvailableTrip
}

func scheduleText(days []directionSchedule) string {
	var b strings.Builder
	b.WriteString("📅 Расписание поездок:\n\n")
	for _, d := range days {
		fmt.Fprintf(&b, "%s:\n", d.Direction.Label())
		if len(d.Trips) == 0 {
			b.WriteString("Нет запланированных поездок\n")
		}
		for _, t := range d.Trips {
			fmt.Fprintf(&b, "📆 Дата: %s, свободно мест: %d\n", t.Date, t.Available)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func bookedText(res services.BookingResult) string {
	var b strings.Builder
	b.WriteString(MsgBooked)
	fmt.Fprintf(&b, "\n\n🚐 %s, %s\n📍 %s", res.Trip.Direction.Label(), res.Trip.Date, res.Address)
	if res.FreeTrip {
		b.WriteString("\n🎁 Эта поездка для вас бесплатна по программе лояльности!")
	} else {
		fmt.Fprintf(&b, "\n⭐ Поездок до бесплатной: %d из %d", res.LoyaltyPoints, services.LoyaltyThreshold)
	}
	if res.ReminderScheduled {
		fmt.Fprintf(&b, "\n🔔 Напомним о поездке %s.", res.ReminderAt.Format("02.01.2006 15:04"))
	}
	return b.String()
}

func myBookingsText(views []models.BookingView) string {
	if len(views) == 0 {
		return MsgNoBookings
	}
	var b strings.Builder
	b.WriteString("📋 Ваши бронирования:\n")
	for _, v := range views {
		fmt.Fprintf(&b, "\n🚐 %s, %s, адрес: %s", v.Direction.Label(), v.TripDate, utils.TrimOrEmpty(v.Address))
	}
	return b.String()
}
