package database

import (
	"context"
	"errors"
	"testing"

	"fundflow-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestCreateAndGetUser(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "user1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if !user.Balance.Equal(decimal.Zero) {
		t.Errorf("Expected zero starting balance, got %s", user.Balance)
	}
	if user.IsFrozen {
		t.Error("New user should not be frozen")
	}

	_, err = service.GetUserById(ctx, "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestUpdateUserBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, "user1", "alice", "alice@example.com"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	target := decimal.RequireFromString("150.25")
	user, err := service.UpdateUserBalance(ctx, "user1", target)
	if err != nil {
		t.Fatalf("UpdateUserBalance failed: %v", err)
	}
	if !user.Balance.Equal(target) {
		t.Errorf("Expected balance %s, got %s", target, user.Balance)
	}
}

func TestUpdateUserBalance_FrozenAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, "user1", "alice", "alice@example.com"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := service.SetUserFrozen(ctx, "user1", true); err != nil {
		t.Fatalf("SetUserFrozen failed: %v", err)
	}

	_, err := service.UpdateUserBalance(ctx, "user1", decimal.RequireFromString("99"))
	if !errors.Is(err, store.ErrAccountFrozen) {
		t.Errorf("Expected ErrAccountFrozen, got: %v", err)
	}

	user, err := service.GetUserById(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !user.Balance.Equal(decimal.Zero) {
		t.Errorf("Balance changed on frozen account: %s", user.Balance)
	}
}

func TestSetUserFrozen_Idempotent(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, "user1", "alice", "alice@example.com"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		user, err := service.SetUserFrozen(ctx, "user1", true)
		if err != nil {
			t.Fatalf("SetUserFrozen attempt %d failed: %v", i+1, err)
		}
		if !user.IsFrozen {
			t.Errorf("Attempt %d: expected user frozen", i+1)
		}
	}

	user, err := service.SetUserFrozen(ctx, "user1", false)
	if err != nil {
		t.Fatalf("Unfreeze failed: %v", err)
	}
	if user.IsFrozen {
		t.Error("Expected user unfrozen")
	}
}
