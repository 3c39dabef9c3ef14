package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/reelway/media-server-go/internal/model"
)

// SubscriptionRepository reads the entitlement state written by the billing
// integration. This service never mutates subscriptions.
type SubscriptionRepository interface {
	FindActiveByUserID(ctx context.Context, userID string) (*model.Subscription, error)
}

type subscriptionRepo struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) FindActiveByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	return getOne[model.Subscription](ctx, r.db, `
		SELECT * FROM subscriptions
		WHERE user_id = $1
		AND status = 'active'
		AND current_period_end > NOW()
		ORDER BY current_period_end DESC
		LIMIT 1
	`, userID)
}
