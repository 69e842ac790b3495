// Package bot turns chat updates into booking workflow calls and renders
// the results back to the user.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"taxibot/internal/domain"
	"taxibot/internal/domain/models"
	"taxibot/internal/notify"
	"taxibot/internal/repositories"
	"taxibot/internal/services"
	"taxibot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type callbackAnswerer interface {
	AnswerCallback(callbackID string) error
}

// usageError is shown to the user verbatim.
type usageError string

func (e usageError) Error() string { return string(e) }

// Dispatcher routes one update at a time. It is safe for concurrent use as
// long as the services it holds are.
type Dispatcher struct {
	Booking  services.BookingService
	Admin    services.AdminService
	Docs     services.DocsService
	Finance  services.FinanceService
	Users    repositories.UserRepository
	Notifier notify.Notifier
	IsAdmin  func(userID int64) bool
}

// Handle processes a single update. Errors and panics never escape; the
// user gets a message and the cause is logged.
func (d *Dispatcher) Handle(ctx context.Context, upd tgbotapi.Update) {
	chatID, userID := target(upd)
	defer func() {
		if p := recover(); p != nil {
			utils.LogEvent("", "bot", "panic", fmt.Sprintf("update_id=%d user_id=%d panic=%v", upd.UpdateID, userID, p))
			if chatID != 0 {
				d.send(ctx, chatID, MsgGenericError, nil)
			}
		}
	}()
	if userID == 0 || chatID == 0 {
		return
	}

	if upd.CallbackQuery != nil {
		if a, ok := d.Notifier.(callbackAnswerer); ok {
			if err := a.AnswerCallback(upd.CallbackQuery.ID); err != nil {
				utils.LogEvent("", "bot", "answer_callback", fmt.Sprintf("user_id=%d err=%v", userID, err))
			}
		}
	}

	user, err := d.Users.Get(ctx, userID)
	if err != nil {
		d.fail(ctx, chatID, userID, "load_user", err)
		return
	}
	if user.Banned {
		d.send(ctx, chatID, MsgBanned, nil)
		return
	}

	var action string
	switch {
	case upd.CallbackQuery != nil:
		action = "callback"
		err = d.handleCallback(ctx, chatID, userID, upd.CallbackQuery.Data)
	case upd.Message != nil && upd.Message.IsCommand():
		action = "command"
		err = d.handleCommand(ctx, chatID, userID, upd.Message)
	case upd.Message != nil:
		action = "address"
		err = d.handleText(ctx, chatID, userID, upd.Message.Text)
	}
	if err != nil {
		d.fail(ctx, chatID, userID, action, err)
	}
}

func target(upd tgbotapi.Update) (chatID, userID int64) {
	switch {
	case upd.CallbackQuery != nil:
		if upd.CallbackQuery.From != nil {
			userID = upd.CallbackQuery.From.ID
		}
		chatID = userID
		if m := upd.CallbackQuery.Message; m != nil && m.Chat != nil {
			chatID = m.Chat.ID
		}
	case upd.Message != nil:
		if upd.Message.From != nil {
			userID = upd.Message.From.ID
		}
		if upd.Message.Chat != nil {
			chatID = upd.Message.Chat.ID
		}
	}
	return chatID, userID
}

func (d *Dispatcher) handleCallback(ctx context.Context, chatID, userID int64, data string) error {
	cb, err := ParseCallback(data)
	if err != nil {
		return err
	}
	switch cb.Action {
	case ActionStart:
		return d.sendErr(ctx, chatID, MsgWelcome, menuRows)
	case ActionViewSchedule:
		return d.showSchedule(ctx, chatID)
	case ActionBookSeat:
		return d.sendErr(ctx, chatID, MsgChooseDir, directionRows())
	case ActionMyBookings:
		return d.showMyBookings(ctx, chatID, userID)
	case ActionCancel:
		return d.cancel(ctx, chatID, userID)
	case ActionBook:
		trips, err := d.Booking.ListAvailableTrips(ctx, cb.Direction)
		if err != nil {
			return err
		}
		if len(trips) == 0 {
			return d.sendErr(ctx, chatID, MsgNoTrips, backToBook)
		}
		return d.sendErr(ctx, chatID, MsgChooseDate, tripRows(cb.Direction, trips))
	case ActionConfirm:
		if _, err := d.Booking.SelectTrip(ctx, userID, cb.TripID); err != nil {
			return err
		}
		return d.sendErr(ctx, chatID, MsgAskAddress, nil)
	}
	return domain.ValidationError{Field: "callback", Msg: "unhandled action " + cb.Action}
}

func (d *Dispatcher) handleText(ctx context.Context, chatID, userID int64, text string) error {
	res, err := d.Booking.CompleteBooking(ctx, userID, text)
	if err != nil {
		return err
	}
	// The booking is committed; a failed confirmation must not be reported as a booking error.
	d.send(ctx, chatID, bookedText(res), backToStart)
	return nil
}

func (d *Dispatcher) handleCommand(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	cmd := strings.ToLower(msg.Command())
	args := strings.TrimSpace(msg.CommandArguments())

	// A new command abandons the open booking.
	existed, err := d.Booking.CancelBooking(ctx, userID)
	if err != nil {
		return err
	}

	switch cmd {
	case "start":
		if err := d.Users.Ensure(ctx, userID); err != nil {
			return err
		}
		return d.sendErr(ctx, chatID, MsgWelcome, menuRows)
	case "cancel":
		if existed {
			return d.sendErr(ctx, chatID, MsgCancelled, backToStart)
		}
		return d.sendErr(ctx, chatID, MsgNothingPending, backToStart)
	case "mybookings":
		return d.showMyBookings(ctx, chatID, userID)
	case "announce", "addtrip", "deltrip", "passengers", "ban", "unban", "profit":
		if d.IsAdmin == nil || !d.IsAdmin(userID) {
			return d.sendErr(ctx, chatID, MsgAdminOnly, nil)
		}
		return d.handleAdmin(ctx, chatID, cmd, args)
	}
	return d.sendErr(ctx, chatID, MsgUnknownCommand, nil)
}

func (d *Dispatcher) handleAdmin(ctx context.Context, chatID int64, cmd, args string) error {
	switch cmd {
	case "announce":
		if args == "" {
			return usageError("Использование: /announce <текст>")
		}
		rep, err := d.Admin.Announce(ctx, args)
		if err != nil {
			return err
		}
		return d.sendErr(ctx, chatID, fmt.Sprintf("📣 Рассылка завершена. Доставлено: %d, ошибок: %d", rep.Sent, rep.Failed), nil)
	case "addtrip":
		f := strings.Fields(args)
		if len(f) != 2 {
			return usageError("Использование: /addtrip <to_ufa|from_ufa> <ГГГГ-ММ-ДД>")
		}
		trip, err := d.Admin.AddTrip(ctx, f[0], f[1])
		if err != nil {
			return err
		}
		return d.sendErr(ctx, chatID, fmt.Sprintf("✅ Поездка #%d добавлена: %s, %s", trip.ID, trip.Direction.Label(), trip.Date), nil)
	case "deltrip":
		id, err := parseID(args, "Использование: /deltrip <id поездки>")
		if err != nil {
			return err
		}
		if err := d.Admin.RemoveTrip(ctx, id); err != nil {
			return err
		}
		return d.sendErr(ctx, chatID, fmt.Sprintf("🗑 Поездка #%d удалена.", id), nil)
	case "passengers":
		id, err := parseID(args, "Использование: /passengers <id поездки>")
		if err != nil {
			return err
		}
		return d.sendRoster(ctx, chatID, id)
	case "ban", "unban":
		id, err := parseID(args, fmt.Sprintf("Использование: /%s <id пользователя>", cmd))
		if err != nil {
			return err
		}
		banned := cmd == "ban"
		if err := d.Admin.SetBanned(ctx, id, banned); err != nil {
			return err
		}
		if banned {
			return d.sendErr(ctx, chatID, fmt.Sprintf("⛔ Пользователь %d заблокирован.", id), nil)
		}
		return d.sendErr(ctx, chatID, fmt.Sprintf("✅ Пользователь %d разблокирован.", id), nil)
	case "profit":
		period := strings.ToLower(args)
		if period == "" {
			period = repositories.PeriodDay
		}
		avg, err := d.Finance.AverageProfit(ctx, period)
		if err != nil {
			if domain.IsValidation(err) {
				return usageError("Использование: /profit <day|week|month>")
			}
			return err
		}
		return d.sendErr(ctx, chatID, fmt.Sprintf("💰 Средняя выручка %s: %s", services.PeriodLabel(period), utils.FormatRubles(int64(math.Round(avg)))), nil)
	}
	return d.sendErr(ctx, chatID, MsgUnknownCommand, nil)
}

func (d *Dispatcher) sendRoster(ctx context.Context, chatID, tripID int64) error {
	r, err := d.Admin.Roster(ctx, tripID)
	if err != nil {
		return err
	}
	if err := d.sendErr(ctx, chatID, services.FormatRoster(r), nil); err != nil {
		return err
	}
	docs := d.Docs
	docs.Loader = func(context.Context, int64) (services.Roster, error) { return r, nil }
	pdf, name, err := docs.RosterPDF(ctx, tripID)
	if err != nil {
		utils.LogEvent("", "bot", "roster_pdf", fmt.Sprintf("trip_id=%d err=%v", tripID, err))
		return nil
	}
	if err := d.Notifier.SendDocument(ctx, chatID, name, pdf, fmt.Sprintf("Поездка #%d", tripID)); err != nil {
		utils.LogEvent("", "bot", "send_document", fmt.Sprintf("chat_id=%d err=%v", chatID, err))
	}
	return nil
}

func (d *Dispatcher) showSchedule(ctx context.Context, chatID int64) error {
	days := make([]directionSchedule, 0, len(models.Directions))
	for _, dir := range models.Directions {
		trips, err := d.Booking.ListAvailableTrips(ctx, dir)
		if err != nil {
			return err
		}
		days = append(days, directionSchedule{Direction: dir, Trips: trips})
	}
	return d.sendErr(ctx, chatID, scheduleText(days), backToStart)
}

func (d *Dispatcher) showMyBookings(ctx context.Context, chatID, userID int64) error {
	views, err := d.Booking.MyBookings(ctx, userID)
	if err != nil {
		return err
	}
	return d.sendErr(ctx, chatID, myBookingsText(views), backToStart)
}

func (d *Dispatcher) cancel(ctx context.Context, chatID, userID int64) error {
	existed, err := d.Booking.CancelBooking(ctx, userID)
	if err != nil {
		return err
	}
	if existed {
		return d.sendErr(ctx, chatID, MsgCancelled, backToStart)
	}
	return d.sendErr(ctx, chatID, MsgNothingPending, backToStart)
}

// fail maps a workflow error to the user-facing reply.
func (d *Dispatcher) fail(ctx context.Context, chatID, userID int64, action string, err error) {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		d.send(ctx, chatID, string(usage), nil)
	case errors.Is(err, domain.ErrSeatsExhausted):
		d.send(ctx, chatID, MsgSeatsExhausted, backToBook)
	case errors.Is(err, domain.ErrOrphanInput):
		d.send(ctx, chatID, MsgOrphanInput, backToStart)
	case errors.Is(err, domain.ErrBookingFailed), errors.Is(err, domain.ErrStoreUnavailable):
		utils.LogEvent("", "bot", action, fmt.Sprintf("user_id=%d err=%v", userID, err))
		d.send(ctx, chatID, MsgGenericError, nil)
	case domain.IsNotFound(err):
		d.send(ctx, chatID, MsgNotFound, backToStart)
	case domain.IsConflict(err):
		d.send(ctx, chatID, MsgConflict, nil)
	case domain.IsValidation(err):
		var ve domain.ValidationError
		if errors.As(err, &ve) && ve.Field == "address" {
			d.send(ctx, chatID, MsgAskAddress, nil)
			return
		}
		utils.LogEvent("", "bot", action, fmt.Sprintf("user_id=%d invalid input: %v", userID, err))
		d.send(ctx, chatID, MsgInvalidInput, nil)
	default:
		utils.LogEvent("", "bot", action, fmt.Sprintf("user_id=%d err=%v", userID, err))
		d.send(ctx, chatID, MsgGenericError, nil)
	}
}

func (d *Dispatcher) sendErr(ctx context.Context, chatID int64, text string, rows [][]notify.Button) error {
	if d.Notifier == nil {
		return domain.InternalError{Msg: "notifier not configured"}
	}
	if len(rows) == 0 {
		return d.Notifier.SendText(ctx, chatID, text)
	}
	return d.Notifier.SendChoices(ctx, chatID, text, rows)
}

// send is sendErr for the error path, where a delivery failure can only be logged.
func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, rows [][]notify.Button) {
	if err := d.sendErr(ctx, chatID, text, rows); err != nil {
		utils.LogEvent("", "bot", "send", fmt.Sprintf("chat_id=%d err=%v", chatID, err))
	}
}

func parseID(args, usage string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError(usage)
	}
	return id, nil
}
