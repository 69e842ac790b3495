package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "taxibot/internal/config"
	intdb "taxibot/internal/db"
	"taxibot/internal/domain"
	"taxibot/internal/domain/models"
	"taxibot/internal/events"
	"taxibot/internal/reminder"
	"taxibot/internal/repositories"
	"taxibot/internal/session"
	"taxibot/internal/utils"

	"github.com/google/uuid"
)

// ReminderScheduler is the part of reminder.Scheduler the workflow uses.
type ReminderScheduler interface {
	Schedule(ctx context.Context, r reminder.Reminder) (uuid.UUID, error)
}

// AvailableTrip is one line of the trip picker.
type AvailableTrip struct {
	TripID    int64
	Date      string
	Available int
}

// BookingResult describes a committed booking.
type BookingResult struct {
	BookingID         int64
	Trip              models.Trip
	Address           string
	FreeTrip          bool
	LoyaltyPoints     int
	ReminderAt        time.Time
	ReminderScheduled bool
}

// BookingService drives the select-trip / address / confirm conversation.
type BookingService struct {
	DB        *sql.DB
	Trips     repositories.TripRepository
	Bookings  repositories.BookingRepository
	Users     repositories.UserRepository
	Finance   repositories.FinanceRepository
	Sessions  session.Store
	Reminders ReminderScheduler
	Events    events.Publisher
	Capacity  int
	TripPrice int64
	Location  *time.Location
	Now       func() time.Time
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s BookingService) events() events.Publisher {
	if s.Events != nil {
		return s.Events
	}
	return events.NopPublisher{}
}

// ListAvailableTrips lists trips of a direction with free seats computed
// from the passenger list. Store order is kept.
func (s BookingService) ListAvailableTrips(ctx context.Context, dir models.Direction) ([]AvailableTrip, error) {
	trips, err := s.Trips.ListByDirection(ctx, dir)
	if err != nil {
		return nil, err
	}
	out := make([]AvailableTrip, 0, len(trips))
	for _, t := range trips {
		out = append(out, AvailableTrip{TripID: t.ID, Date: t.Date, Available: t.Available(s.Capacity)})
	}
	return out, nil
}

// SelectTrip opens a session for the user if the trip still has a seat.
// The caller then asks for the pickup address.
func (s BookingService) SelectTrip(ctx context.Context, userID, tripID int64) (models.PendingBooking, error) {
	trip, err := s.Trips.GetByID(ctx, tripID)
	if err != nil {
		return models.PendingBooking{}, err
	}
	if trip.Full(s.Capacity) {
		return models.PendingBooking{}, domain.ErrSeatsExhausted
	}
	pb := models.PendingBooking{
		UserID:    userID,
		TripID:    trip.ID,
		Direction: trip.Direction,
		TripDate:  trip.Date,
		CreatedAt: s.now(),
	}
	if err := s.Sessions.Put(ctx, pb); err != nil {
		return models.PendingBooking{}, domain.StoreError("save session", err)
	}
	utils.LogEvent("", "booking", "select_trip", fmt.Sprintf("user_id=%d trip_id=%d", userID, trip.ID))
	return pb, nil
}

// Pending returns the open session of a user, if any.
func (s BookingService) Pending(ctx context.Context, userID int64) (models.PendingBooking, bool, error) {
	pb, ok, err := s.Sessions.Get(ctx, userID)
	if err != nil {
		return models.PendingBooking{}, false, domain.StoreError("load session", err)
	}
	return pb, ok, nil
}

// CancelBooking drops the open session without touching the store.
func (s BookingService) CancelBooking(ctx context.Context, userID int64) (bool, error) {
	existed, err := s.Sessions.Delete(ctx, userID)
	if err != nil {
		return false, domain.StoreError("delete session", err)
	}
	return existed, nil
}

// CompleteBooking persists the booking for the user's open session.
//
// The session is taken before the transaction, so a repeated address reply
// for the same session finds nothing and gets ErrOrphanInput. The booking
// insert, the passenger list update and the loyalty update commit together.
// The trip row is locked while capacity is re-checked, so two users cannot
// both take the last seat. On ErrBookingFailed the session is put back.
func (s BookingService) CompleteBooking(ctx context.Context, userID int64, address string) (BookingResult, error) {
	pb, ok, err := s.Sessions.Take(ctx, userID)
	if err != nil {
		return BookingResult{}, domain.StoreError("take session", err)
	}
	if !ok {
		return BookingResult{}, domain.ErrOrphanInput
	}
	address = strings.TrimSpace(address)
	if address == "" {
		s.restoreSession(ctx, pb)
		return BookingResult{}, domain.ValidationError{Field: "address", Msg: "empty address"}
	}

	db := s.db()
	if db == nil {
		s.restoreSession(ctx, pb)
		return BookingResult{}, domain.BookingError("begin", domain.StoreError("begin", errors.New("database not connected")))
	}

	var res BookingResult
	err = intdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		bookingID, err := s.Bookings.WithTx(tx).Insert(ctx, userID, pb.TripID, address)
		if err != nil {
			return err
		}
		trips := s.Trips.WithTx(tx)
		trip, err := trips.GetByIDForUpdate(ctx, pb.TripID)
		if err != nil {
			return err
		}
		if trip.Full(s.Capacity) {
			return domain.ErrSeatsExhausted
		}
		trip.Passengers = append(trip.Passengers, userID)
		if err := trips.UpdatePassengers(ctx, trip.ID, trip.Passengers, trip.Unparsed...); err != nil {
			return err
		}

		points, reward, err := LoyaltyLedger{Users: s.Users.WithTx(tx)}.Record(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.Finance.WithTx(tx).Add(ctx, s.financialRecord(trip, reward)); err != nil {
			return err
		}

		res = BookingResult{BookingID: bookingID, Trip: trip, Address: address, FreeTrip: reward, LoyaltyPoints: points}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSeatsExhausted) {
			return BookingResult{}, domain.ErrSeatsExhausted
		}
		utils.LogEvent("", "booking", "complete", fmt.Sprintf("user_id=%d trip_id=%d err=%v", userID, pb.TripID, err))
		s.restoreSession(ctx, pb)
		return BookingResult{}, domain.BookingError("complete booking", err)
	}

	res.ReminderAt, res.ReminderScheduled = s.scheduleReminder(ctx, userID, res.Trip)

	if err := s.events().PublishBookingCreated(ctx, events.BookingCreated{
		BookingID:  res.BookingID,
		UserID:     userID,
		TripID:     res.Trip.ID,
		Direction:  string(res.Trip.Direction),
		TripDate:   res.Trip.Date,
		FreeTrip:   res.FreeTrip,
		OccurredAt: s.now().UTC(),
	}); err != nil {
		utils.LogEvent("", "booking", "publish_event", fmt.Sprintf("booking_id=%d err=%v", res.BookingID, err))
	}

	utils.LogEvent("", "booking", "complete", fmt.Sprintf("user_id=%d trip_id=%d booking_id=%d passengers=%d free=%t",
		userID, res.Trip.ID, res.BookingID, res.Trip.Seats(), res.FreeTrip))
	return res, nil
}

// restoreSession puts a taken session back so the user can resend the address.
func (s BookingService) restoreSession(ctx context.Context, pb models.PendingBooking) {
	if err := s.Sessions.Put(ctx, pb); err != nil {
		utils.LogEvent("", "booking", "restore_session", fmt.Sprintf("user_id=%d trip_id=%d err=%v", pb.UserID, pb.TripID, err))
	}
}

// MyBookings lists the user's reservations with trip details.
func (s BookingService) MyBookings(ctx context.Context, userID int64) ([]models.BookingView, error) {
	return s.Bookings.ListByUser(ctx, userID)
}

func (s BookingService) scheduleReminder(ctx context.Context, userID int64, trip models.Trip) (time.Time, bool) {
	at, err := reminder.At(trip.Date, s.Location)
	if err != nil {
		utils.LogEvent("", "booking", "schedule_reminder", fmt.Sprintf("trip_id=%d bad date %q: %v", trip.ID, trip.Date, err))
		return time.Time{}, false
	}
	if s.Reminders == nil {
		return at, false
	}
	if _, err := s.Reminders.Schedule(ctx, reminder.Reminder{
		FireAt: at,
		UserID: userID,
		Text:   reminder.Text(trip.Direction, trip.Date),
	}); err != nil {
		utils.LogEvent("", "booking", "schedule_reminder", fmt.Sprintf("user_id=%d trip_id=%d err=%v", userID, trip.ID, err))
		return at, false
	}
	return at, true
}

func (s BookingService) financialRecord(trip models.Trip, free bool) models.FinancialRecord {
	rec := models.FinancialRecord{
		Date:     utils.FormatDate(s.now().In(s.location())),
		Amount:   float64(s.TripPrice),
		TripType: string(trip.Direction),
	}
	if free {
		rec.Amount = 0
		rec.DiscountApplied = float64(s.TripPrice)
		rec.BonusPointsUsed = LoyaltyThreshold
	}
	return rec
}

func (s BookingService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}
