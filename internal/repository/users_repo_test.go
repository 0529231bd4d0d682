package repository_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/Tonic56/crypto-market-watch/storage/database"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := database.Open(sqlite.Open(dsn), database.MigrationAdditive, log)
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	t.Cleanup(func() { _ = storage.Stop() })

	return storage.DB
}

func TestAddUser(t *testing.T) {
	testDB := setupTestDB(t)
	userRepo := repository.NewUsersRepository(testDB)
	ctx := context.Background()

	t.Run("success_add_user", func(t *testing.T) {
		user, err := userRepo.AddUser(ctx, "test_user", "test@example.com", "hash")
		if err != nil {
			t.Fatalf("AddUser failed: unexpected error: %v", err)
		}

		if user.ID == uuid.Nil {
			t.Errorf("Expected generated user id, got nil uuid")
		}

		foundUser, err := userRepo.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed after create: %v", err)
		}

		if foundUser.Name != "test_user" {
			t.Errorf("Expected user name %s, got %s", "test_user", foundUser.Name)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		_, _ = userRepo.AddUser(ctx, "first", "dup@example.com", "hash")

		_, err := userRepo.AddUser(ctx, "second", "dup@example.com", "other")
		if err == nil {
			t.Fatalf("Expected an error for duplicated email, but got nil")
		}

		if !errors.Is(err, errs.ErrAlreadyExists) {
			t.Errorf("Expected ErrAlreadyExists, but got %v", err)
		}
	})
}

func TestVerifyUser(t *testing.T) {
	testDB := setupTestDB(t)
	userRepo := repository.NewUsersRepository(testDB)
	ctx := context.Background()

	if _, err := userRepo.AddUser(ctx, "alice", "alice@example.com", "h1"); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	tests := []struct {
		name  string
		email string
		hash  string
		want  bool
	}{
		{name: "matching_pair", email: "alice@example.com", hash: "h1", want: true},
		{name: "wrong_hash", email: "alice@example.com", hash: "h2", want: false},
		{name: "unknown_email", email: "bob@example.com", hash: "h1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := userRepo.VerifyUser(ctx, tt.email, tt.hash)
			if err != nil {
				t.Fatalf("VerifyUser failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLookupUserID(t *testing.T) {
	testDB := setupTestDB(t)
	userRepo := repository.NewUsersRepository(testDB)
	ctx := context.Background()

	user, err := userRepo.AddUser(ctx, "carol", "carol@example.com", "hash")
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	id, err := userRepo.LookupUserID(ctx, "carol@example.com")
	if err != nil {
		t.Fatalf("LookupUserID failed: %v", err)
	}
	if id != user.ID {
		t.Errorf("Expected id %s, got %s", user.ID, id)
	}

	_, err = userRepo.LookupUserID(ctx, "nobody@example.com")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, but got %v", err)
	}
}
