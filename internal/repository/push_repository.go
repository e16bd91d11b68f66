package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lob-api/internal/models"
)

// PushSubscriptionRepository persists web push endpoints.
type PushSubscriptionRepository struct {
	db *sqlx.DB
}

// NewPushSubscriptionRepository constructs the repository.
func NewPushSubscriptionRepository(db *sqlx.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert stores the subscription, moving an existing endpoint to the given user.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	const query = `INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, user_agent, created_on)
VALUES (:id, :user_id, :endpoint, :p256dh, :auth, :user_agent, :created_on)
ON CONFLICT (endpoint) DO UPDATE SET user_id = excluded.user_id, p256dh = excluded.p256dh, auth = excluded.auth,
user_agent = excluded.user_agent`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

// ListByUser returns every subscription of the user.
func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	query := r.db.Rebind(`SELECT id, user_id, endpoint, p256dh, auth, user_agent, created_on FROM push_subscriptions WHERE user_id = ?`)
	var subs []models.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}

// DeleteByEndpoint removes a subscription by endpoint. An empty userID matches any owner.
func (r *PushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, userID, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE endpoint = ?`
	args := []interface{}{endpoint}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}
