package model

import (
	"time"
)

// Subscription mirrors the billing provider's view of a user's plan. Only the
// "is there a currently active entitlement" question is answered here; the
// provider integration lives outside this service.
type Subscription struct {
	ID               string             `db:"id" json:"id"`
	UserID           string             `db:"user_id" json:"userId"`
	Status           SubscriptionStatus `db:"status" json:"status"`
	CurrentPeriodEnd time.Time          `db:"current_period_end" json:"currentPeriodEnd"`
	CreatedAt        time.Time          `db:"created_at" json:"createdAt"`
}
