package services

import (
	"context"

	"taxibot/internal/repositories"
)

// LoyaltyThreshold is the number of paid trips after which the next one is free.
const LoyaltyThreshold = 5

// ApplyLoyalty returns the counter after one more completed booking and
// whether that booking is the free one.
func ApplyLoyalty(points int) (next int, reward bool) {
	if points >= LoyaltyThreshold {
		return 0, true
	}
	if points < 0 {
		points = 0
	}
	return points + 1, false
}

// LoyaltyLedger keeps the per-user counter in the users table.
type LoyaltyLedger struct {
	Users repositories.UserRepository
}

// Record applies one completed booking. Run it inside the booking
// transaction (Users bound with WithTx) so the counter row stays locked.
func (l LoyaltyLedger) Record(ctx context.Context, userID int64) (points int, reward bool, err error) {
	u, err := l.Users.GetForUpdate(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	points, reward = ApplyLoyalty(u.LoyaltyPoints)
	if err := l.Users.SetLoyaltyPoints(ctx, userID, points); err != nil {
		return 0, false, err
	}
	return points, reward, nil
}
