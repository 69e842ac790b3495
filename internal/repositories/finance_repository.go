package repositories

import (
	"context"
	"database/sql"

	intdb "taxibot/internal/db"
	"taxibot/internal/domain"
	"taxibot/internal/domain/models"
)

// Profit periods accepted by AverageProfit.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

type FinanceRepository struct {
	DB intdb.DBTX
}

func (r FinanceRepository) db() intdb.DBTX { return dbOrShared(r.DB) }

func (r FinanceRepository) WithTx(tx *sql.Tx) FinanceRepository {
	return FinanceRepository{DB: tx}
}

func (r FinanceRepository) Add(ctx context.Context, rec models.FinancialRecord) error {
	db := r.db()
	if db == nil {
		return domain.StoreError("add financial record", errNoDB)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO financial_records (date, amount, trip_type, discount_applied, bonus_points_used)
		VALUES (?, ?, ?, ?, ?)`,
		rec.Date, rec.Amount, rec.TripType, rec.DiscountApplied, rec.BonusPointsUsed)
	if err != nil {
		return domain.StoreError("add financial record", err)
	}
	return nil
}

// AverageProfit averages booking amounts for the current day, week or month.
func (r FinanceRepository) AverageProfit(ctx context.Context, period string) (float64, error) {
	var query string
	switch period {
	case PeriodDay:
		query = `SELECT AVG(amount) FROM financial_records WHERE date = CURDATE()`
	case PeriodWeek:
		query = `SELECT AVG(amount) FROM financial_records WHERE YEARWEEK(date, 1) = YEARWEEK(CURDATE(), 1)`
	case PeriodMonth:
		query = `SELECT AVG(amount) FROM financial_records WHERE YEAR(date) = YEAR(CURDATE()) AND MONTH(date) = MONTH(CURDATE())`
	default:
		return 0, domain.ValidationError{Field: "period", Msg: "expected day, week or month"}
	}
	db := r.db()
	if db == nil {
		return 0, domain.StoreError("average profit", errNoDB)
	}
	var avg sql.NullFloat64
	if err := db.QueryRowContext(ctx, query).Scan(&avg); err != nil {
		return 0, domain.StoreError("average profit", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}
