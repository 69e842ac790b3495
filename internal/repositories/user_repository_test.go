package repositories

import (
	"context"
	"testing"
	"time"

	"taxibot/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserGetAbsentRowIsZero(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT loyalty_points, banned FROM users WHERE user_id = \\?$").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"loyalty_points", "banned"}))

	u, err := UserRepository{DB: db}.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.ID != 7 || u.LoyaltyPoints != 0 || u.Banned {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestUserSetLoyaltyPointsUpserts(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users \\(user_id, loyalty_points\\).*ON DUPLICATE KEY UPDATE").
		WithArgs(int64(7), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := (UserRepository{DB: db}).SetLoyaltyPoints(context.Background(), 7, 3); err != nil {
		t.Fatalf("SetLoyaltyPoints: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListActiveIDsSkipsBanned(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT user_id FROM users WHERE banned = 0").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1).AddRow(2))

	ids, err := UserRepository{DB: db}.ListActiveIDs(context.Background())
	if err != nil {
		t.Fatalf("ListActiveIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestBookingListByUserJoinsTrip(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM bookings b\\s+JOIN trips t").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "trip_id", "address", "created_at", "trip_type", "trip_date"}).
			AddRow(1, 7, 42, "Main St 5", created, "to_ufa", "2024-05-01"))

	views, err := BookingRepository{DB: db}.ListByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(views) != 1 || views[0].Direction != models.DirectionToUfa || views[0].Address != "Main St 5" {
		t.Fatalf("unexpected views %+v", views)
	}
}

func TestFinanceAverageProfit(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT AVG\\(amount\\) FROM financial_records WHERE date = CURDATE\\(\\)").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))
	mock.ExpectQuery("YEARWEEK").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(1250.5))

	repo := FinanceRepository{DB: db}
	avg, err := repo.AverageProfit(context.Background(), PeriodDay)
	if err != nil || avg != 0 {
		t.Fatalf("empty day should average 0, got %v %v", avg, err)
	}
	avg, err = repo.AverageProfit(context.Background(), PeriodWeek)
	if err != nil || avg != 1250.5 {
		t.Fatalf("unexpected week average %v %v", avg, err)
	}
	if _, err := repo.AverageProfit(context.Background(), "year"); err == nil {
		t.Fatalf("expected validation error for unknown period")
	}
}
