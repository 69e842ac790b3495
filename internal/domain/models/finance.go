package models

// FinancialRecord is written once per completed booking.
type FinancialRecord struct {
	ID              int64   `json:"id"`
	Date            string  `json:"date"`
	Amount          float64 `json:"amount"`
	TripType        string  `json:"trip_type"`
	DiscountApplied float64 `json:"discount_applied"`
	BonusPointsUsed int     `json:"bonus_points_used"`
}
