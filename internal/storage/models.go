package storage

import (
	"context"
	"time"
)

// Subscription is one newsletter subscriber.
type Subscription struct {
	Email     string    `json:"email"`
	Lang      string    `json:"lang"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionRepository defines subscription data operations.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, email, lang string) (*Subscription, bool, error)
	Unsubscribe(ctx context.Context, email string) (bool, error)
	GetSubscription(ctx context.Context, email string) (*Subscription, error)
	CountSubscriptions(ctx context.Context) (int, error)
}

var _ SubscriptionRepository = (*DB)(nil)
