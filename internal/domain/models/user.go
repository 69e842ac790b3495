package models

// User is keyed by the chat platform id.
type User struct {
	ID            int64 `json:"id"`
	LoyaltyPoints int   `json:"loyalty_points"`
	Banned        bool  `json:"banned"`
}
