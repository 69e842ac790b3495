package repositories

import (
	"context"
	"database/sql"

	intdb "taxibot/internal/db"
	"taxibot/internal/domain"
	"taxibot/internal/domain/models"
)

type BookingRepository struct {
	DB intdb.DBTX
}

func (r BookingRepository) db() intdb.DBTX { return dbOrShared(r.DB) }

func (r BookingRepository) WithTx(tx *sql.Tx) BookingRepository {
	return BookingRepository{DB: tx}
}

// Insert stores a booking row; the address is kept verbatim.
func (r BookingRepository) Insert(ctx context.Context, userID, tripID int64, address string) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, domain.StoreError("insert booking", errNoDB)
	}
	res, err := db.ExecContext(ctx, `INSERT INTO bookings (user_id, trip_id, address) VALUES (?, ?, ?)`, userID, tripID, address)
	if err != nil {
		return 0, domain.StoreError("insert booking", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.StoreError("insert booking", err)
	}
	return id, nil
}

// ListByUser returns a user's bookings with trip direction and date, newest trips last.
func (r BookingRepository) ListByUser(ctx context.Context, userID int64) ([]models.BookingView, error) {
	db := r.db()
	if db == nil {
		return nil, domain.StoreError("list user bookings", errNoDB)
	}
	rows, err := db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.trip_id, b.address, b.created_at, t.trip_type, DATE_FORMAT(t.trip_date, '%Y-%m-%d')
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.user_id = ?
		ORDER BY t.trip_date ASC, b.id ASC`, userID)
	if err != nil {
		return nil, domain.StoreError("list user bookings", err)
	}
	defer rows.Close()

	out := []models.BookingView{}
	for rows.Next() {
		var (
			v        models.BookingView
			tripType string
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.TripID, &v.Address, &v.CreatedAt, &tripType, &v.TripDate); err != nil {
			return out, domain.StoreError("scan user booking", err)
		}
		v.Direction = models.Direction(tripType)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return out, domain.StoreError("list user bookings", err)
	}
	return out, nil
}

// ListByTrip returns the bookings of one trip in booking order.
func (r BookingRepository) ListByTrip(ctx context.Context, tripID int64) ([]models.Booking, error) {
	db := r.db()
	if db == nil {
		return nil, domain.StoreError("list trip bookings", errNoDB)
	}
	rows, err := db.QueryContext(ctx, `SELECT id, user_id, trip_id, address, created_at FROM bookings WHERE trip_id = ? ORDER BY id ASC`, tripID)
	if err != nil {
		return nil, domain.StoreError("list trip bookings", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.TripID, &b.Address, &b.CreatedAt); err != nil {
			return out, domain.StoreError("scan trip booking", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return out, domain.StoreError("list trip bookings", err)
	}
	return out, nil
}
