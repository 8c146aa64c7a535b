package storage

import (
	"context"
	"errors"
	"testing"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
)

func TestSubscribe_Idempotent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	sub, created, err := db.Subscribe(ctx, "Reader@Example.com ", "en")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if !created {
		t.Error("first Subscribe should report created")
	}
	if sub.Email != "reader@example.com" {
		t.Errorf("Email = %q, want normalized address", sub.Email)
	}

	again, created, err := db.Subscribe(ctx, "reader@example.com", "en")
	if err != nil {
		t.Fatalf("second Subscribe failed: %v", err)
	}
	if created {
		t.Error("second Subscribe should not report created")
	}
	if !again.CreatedAt.Equal(sub.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", sub.CreatedAt, again.CreatedAt)
	}

	count, err := db.CountSubscriptions(ctx)
	if err != nil {
		t.Fatalf("CountSubscriptions failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSubscribe_UpdatesLanguage(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	if _, _, err := db.Subscribe(ctx, "lang@example.com", "en"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	sub, created, err := db.Subscribe(ctx, "lang@example.com", "zh")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if created {
		t.Error("language change should not create a new subscription")
	}
	if sub.Lang != "zh" {
		t.Errorf("Lang = %q, want zh", sub.Lang)
	}
}

func TestSubscribe_EmptyEmail(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	_, _, err := db.Subscribe(context.Background(), "   ", "en")
	if !errors.Is(err, domerrors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	if _, _, err := db.Subscribe(ctx, "bye@example.com", "en"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	removed, err := db.Unsubscribe(ctx, "BYE@example.com")
	if err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if !removed {
		t.Error("Unsubscribe should report removal")
	}

	removed, err = db.Unsubscribe(ctx, "bye@example.com")
	if err != nil {
		t.Fatalf("second Unsubscribe failed: %v", err)
	}
	if removed {
		t.Error("second Unsubscribe should report nothing removed")
	}

	if _, err := db.GetSubscription(ctx, "bye@example.com"); !errors.Is(err, domerrors.ErrNotFound) {
		t.Errorf("GetSubscription err = %v, want ErrNotFound", err)
	}
}

func TestCountSubscriptions(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, e := range emails {
		if _, _, err := db.Subscribe(ctx, e, "en"); err != nil {
			t.Fatalf("Subscribe(%s) failed: %v", e, err)
		}
	}

	count, err := db.CountSubscriptions(ctx)
	if err != nil {
		t.Fatalf("CountSubscriptions failed: %v", err)
	}
	if count != len(emails) {
		t.Errorf("count = %d, want %d", count, len(emails))
	}
}
