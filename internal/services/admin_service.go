package services

import (
	"context"
	"fmt"
	"strings"

	"taxibot/internal/domain"
	"taxibot/internal/domain/models"
	"taxibot/internal/notify"
	"taxibot/internal/repositories"
	"taxibot/internal/utils"
)

// Roster is the passenger list of one trip as stored in bookings.
type Roster struct {
	Trip     models.Trip
	Capacity int
	Bookings []models.Booking
}

// AdminService backs the operator commands and the admin API.
type AdminService struct {
	Trips     repositories.TripRepository
	Bookings  repositories.BookingRepository
	Users     repositories.UserRepository
	Notifier  notify.Notifier
	Capacity  int
	RequestID string
}

// AddTrip schedules a new empty trip. A second trip on the same route and
// date is a ConflictError.
func (s AdminService) AddTrip(ctx context.Context, direction, date string) (models.Trip, error) {
	dir, err := models.ParseDirection(direction)
	if err != nil {
		return models.Trip{}, domain.ValidationError{Field: "direction", Msg: "expected to_ufa or from_ufa", Err: err}
	}
	d, err := utils.ParseDate(date, nil)
	if err != nil {
		return models.Trip{}, domain.ValidationError{Field: "date", Msg: "expected YYYY-MM-DD", Err: err}
	}
	trip := models.Trip{Direction: dir, Date: utils.FormatDate(d), Passengers: []int64{}}
	exists, err := s.Trips.ExistsOn(ctx, trip.Direction, trip.Date)
	if err != nil {
		return models.Trip{}, err
	}
	if exists {
		return models.Trip{}, domain.ConflictError{Resource: "trip", Msg: fmt.Sprintf("%s on %s already scheduled", dir, trip.Date)}
	}
	id, err := s.Trips.Create(ctx, trip.Direction, trip.Date)
	if err != nil {
		return models.Trip{}, err
	}
	trip.ID = id
	utils.LogEvent(s.RequestID, "admin", "add_trip", fmt.Sprintf("trip_id=%d direction=%s date=%s", id, dir, trip.Date))
	return trip, nil
}

func (s AdminService) RemoveTrip(ctx context.Context, tripID int64) error {
	if tripID <= 0 {
		return domain.ValidationError{Field: "trip_id", Msg: "invalid id"}
	}
	if err := s.Trips.Delete(ctx, tripID); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "admin", "remove_trip", fmt.Sprintf("trip_id=%d", tripID))
	return nil
}

func (s AdminService) ListTrips(ctx context.Context) ([]models.Trip, error) {
	return s.Trips.ListAll(ctx)
}

// Roster loads the trip and its bookings. Bookings carry the pickup address.
func (s AdminService) Roster(ctx context.Context, tripID int64) (Roster, error) {
	trip, err := s.Trips.GetByID(ctx, tripID)
	if err != nil {
		return Roster{}, err
	}
	bookings, err := s.Bookings.ListByTrip(ctx, tripID)
	if err != nil {
		return Roster{}, err
	}
	return Roster{Trip: trip, Capacity: s.Capacity, Bookings: bookings}, nil
}

// Announce sends text to every user that is not banned.
func (s AdminService) Announce(ctx context.Context, text string) (notify.BroadcastReport, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return notify.BroadcastReport{}, domain.ValidationError{Field: "text", Msg: "empty announcement"}
	}
	if s.Notifier == nil {
		return notify.BroadcastReport{}, domain.InternalError{Msg: "notifier not configured"}
	}
	ids, err := s.Users.ListActiveIDs(ctx)
	if err != nil {
		return notify.BroadcastReport{}, err
	}
	rep := notify.Broadcast(ctx, s.Notifier, ids, text)
	utils.LogEvent(s.RequestID, "admin", "announce", fmt.Sprintf("recipients=%d sent=%d failed=%d", len(ids), rep.Sent, rep.Failed))
	return rep, nil
}

func (s AdminService) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if userID <= 0 {
		return domain.ValidationError{Field: "user_id", Msg: "invalid id"}
	}
	if err := s.Users.SetBanned(ctx, userID, banned); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "admin", "set_banned", fmt.Sprintf("user_id=%d banned=%t", userID, banned))
	return nil
}

// FormatRoster renders a roster as a chat message.
func FormatRoster(r Roster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚐 Поездка #%d %s, %s\n", r.Trip.ID, r.Trip.Direction.Label(), r.Trip.Date)
	fmt.Fprintf(&b, "Занято мест: %d из %d\n", r.Trip.Seats(), r.Capacity)
	if len(r.Bookings) == 0 {
		b.WriteString("Пассажиров нет.")
		return b.String()
	}
	for i, bk := range r.Bookings {
		fmt.Fprintf(&b, "\n%d. id %d: %s", i+1, bk.UserID, safe(bk.Address, "-"))
	}
	return b.String()
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
