package services

import (
	"context"
	"fmt"
	"strings"

	"taxibot/internal/repositories"
	"taxibot/internal/utils"
)

type FinanceService struct {
	Finance   repositories.FinanceRepository
	RequestID string
}

// AverageProfit returns the mean booking amount for day, week or month.
func (s FinanceService) AverageProfit(ctx context.Context, period string) (float64, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	avg, err := s.Finance.AverageProfit(ctx, period)
	if err != nil {
		return 0, err
	}
	utils.LogEvent(s.RequestID, "finance", "average_profit", fmt.Sprintf("period=%s avg=%s", period, utils.FormatMoney(avg)))
	return avg, nil
}

// PeriodLabel is the chat wording for a profit period.
func PeriodLabel(period string) string {
	switch period {
	case repositories.PeriodDay:
		return "за день"
	case repositories.PeriodWeek:
		return "за неделю"
	case repositories.PeriodMonth:
		return "за месяц"
	}
	return period
}
