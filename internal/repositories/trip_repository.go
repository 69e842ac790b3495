package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "taxibot/internal/config"
	intdb "taxibot/internal/db"
	"taxibot/internal/domain"
	"taxibot/internal/domain/models"
	"taxibot/internal/utils"
)

var errNoDB = errors.New("database not connected")

// dbOrShared falls back to the process-wide connection when q is unset.
func dbOrShared(q intdb.DBTX) intdb.DBTX {
	if q != nil {
		return q
	}
	if intconfig.DB != nil {
		return intconfig.DB
	}
	return nil
}

const tripColumns = `id, trip_type, DATE_FORMAT(trip_date, '%Y-%m-%d'), COALESCE(passengers, '')`

type TripRepository struct {
	DB intdb.DBTX
}

func (r TripRepository) db() intdb.DBTX { return dbOrShared(r.DB) }

// WithTx binds the repository to a transaction.
func (r TripRepository) WithTx(tx *sql.Tx) TripRepository {
	return TripRepository{DB: tx}
}

// ListByDirection returns trips for a route in the order the store returns them.
func (r TripRepository) ListByDirection(ctx context.Context, dir models.Direction) ([]models.Trip, error) {
	db := r.db()
	if db == nil {
		return nil, domain.StoreError("list trips", errNoDB)
	}
	rows, err := db.QueryContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE trip_type = ?`, string(dir))
	if err != nil {
		return nil, domain.StoreError("list trips", err)
	}
	return scanTrips(rows)
}

// ListAll returns the full schedule ordered by date for admin views.
func (r TripRepository) ListAll(ctx context.Context) ([]models.Trip, error) {
	db := r.db()
	if db == nil {
		return nil, domain.StoreError("list all trips", errNoDB)
	}
	rows, err := db.QueryContext(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY trip_date ASC, id ASC`)
	if err != nil {
		return nil, domain.StoreError("list all trips", err)
	}
	return scanTrips(rows)
}

func (r TripRepository) GetByID(ctx context.Context, id int64) (models.Trip, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate locks the trip row until the surrounding transaction ends.
func (r TripRepository) GetByIDForUpdate(ctx context.Context, id int64) (models.Trip, error) {
	return r.get(ctx, id, true)
}

func (r TripRepository) get(ctx context.Context, id int64, lock bool) (models.Trip, error) {
	if id <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "trip_id", Msg: "invalid id"}
	}
	db := r.db()
	if db == nil {
		return models.Trip{}, domain.StoreError("get trip", errNoDB)
	}
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = ? LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}
	trip, err := scanTrip(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Trip{}, domain.NotFoundError{Resource: "trip", Err: err}
		}
		return models.Trip{}, domain.StoreError("get trip", err)
	}
	return trip, nil
}

// UpdatePassengers writes the passenger list back in comma-joined form.
// Unparsed entries read from the column must be passed back to keep them.
func (r TripRepository) UpdatePassengers(ctx context.Context, id int64, passengers []int64, unparsed ...string) error {
	db := r.db()
	if db == nil {
		return domain.StoreError("update passengers", errNoDB)
	}
	if _, err := db.ExecContext(ctx, `UPDATE trips SET passengers = ? WHERE id = ?`, utils.JoinPassengers(passengers, unparsed...), id); err != nil {
		return domain.StoreError("update passengers", err)
	}
	return nil
}

// ExistsOn reports whether a trip for the route is already scheduled on date.
func (r TripRepository) ExistsOn(ctx context.Context, dir models.Direction, date string) (bool, error) {
	db := r.db()
	if db == nil {
		return false, domain.StoreError("check trip", errNoDB)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips WHERE trip_type = ? AND trip_date = ?`, string(dir), date).Scan(&n); err != nil {
		return false, domain.StoreError("check trip", err)
	}
	return n > 0, nil
}

func (r TripRepository) Create(ctx context.Context, dir models.Direction, date string) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, domain.StoreError("create trip", errNoDB)
	}
	res, err := db.ExecContext(ctx, `INSERT INTO trips (trip_type, trip_date, passengers) VALUES (?, ?, '')`, string(dir), date)
	if err != nil {
		return 0, domain.StoreError("create trip", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.StoreError("create trip", err)
	}
	return id, nil
}

func (r TripRepository) Delete(ctx context.Context, id int64) error {
	db := r.db()
	if db == nil {
		return domain.StoreError("delete trip", errNoDB)
	}
	res, err := db.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return domain.StoreError("delete trip", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (models.Trip, error) {
	var (
		t          models.Trip
		tripType   string
		passengers string
	)
	if err := row.Scan(&t.ID, &tripType, &t.Date, &passengers); err != nil {
		return models.Trip{}, err
	}
	t.Direction = models.Direction(tripType)
	t.Passengers, t.Unparsed = utils.SplitPassengers(passengers)
	if len(t.Unparsed) > 0 {
		utils.LogEvent("", "trips", "scan", fmt.Sprintf("trip_id=%d non-numeric passengers kept as seats: %q", t.ID, t.Unparsed))
	}
	return t, nil
}

func scanTrips(rows *sql.Rows) ([]models.Trip, error) {
	defer rows.Close()
	out := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return out, domain.StoreError("scan trip", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return out, domain.StoreError("scan trips", fmt.Errorf("rows: %w", err))
	}
	return out, nil
}
