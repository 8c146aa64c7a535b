package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
)

// Subscribe stores email with the preferred language. Subscribing an
// existing address updates its language and reports created=false.
// Emails are compared case-insensitively.
func (db *DB) Subscribe(ctx context.Context, email, lang string) (*Subscription, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, domerrors.NewValidationError("email", "must not be empty")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := time.Now().Unix()
	existing, err := getSubscription(ctx, tx, email)
	created := errors.Is(err, domerrors.ErrNotFound)
	if err != nil && !created {
		return nil, false, err
	}

	if created {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO subscriptions (email, lang, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			email, lang, ts, ts)
	} else if existing.Lang != lang {
		_, err = tx.ExecContext(ctx,
			`UPDATE subscriptions SET lang = ?, updated_at = ? WHERE email = ?`,
			lang, ts, email)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to save subscription: %w", err)
	}

	sub, err := getSubscription(ctx, tx, email)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit subscription: %w", err)
	}
	return sub, created, nil
}

// Unsubscribe removes email and reports whether it was subscribed.
func (db *DB) Unsubscribe(ctx context.Context, email string) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM subscriptions WHERE email = ?`, normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// GetSubscription returns the subscription for email or ErrNotFound.
func (db *DB) GetSubscription(ctx context.Context, email string) (*Subscription, error) {
	return getSubscription(ctx, db.conn, normalizeEmail(email))
}

// CountSubscriptions returns the number of subscribers.
func (db *DB) CountSubscriptions(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSubscription(ctx context.Context, q queryer, email string) (*Subscription, error) {
	var (
		sub              Subscription
		created, updated int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT email, lang, created_at, updated_at FROM subscriptions WHERE email = ?`, email).
		Scan(&sub.Email, &sub.Lang, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %s: %w", email, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	sub.CreatedAt = time.Unix(created, 0).UTC()
	sub.UpdatedAt = time.Unix(updated, 0).UTC()
	return &sub, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
