package models

import "time"

// Booking is one reservation row. Address is stored verbatim.
type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TripID    int64     `json:"trip_id"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingView joins a booking with its trip for "my bookings" and rosters.
type BookingView struct {
	Booking
	Direction Direction `json:"direction"`
	TripDate  string    `json:"trip_date"`
}

// PendingBooking is the conversation session between trip confirmation and
// the address reply.
type PendingBooking struct {
	UserID    int64     `json:"user_id"`
	TripID    int64     `json:"trip_id"`
	Direction Direction `json:"direction"`
	TripDate  string    `json:"trip_date"`
	CreatedAt time.Time `json:"created_at"`
}
