package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"grievanceBack/internal/models"
	"grievanceBack/internal/repositories"
	"grievanceBack/utils"
)

func newTestUserService(t *testing.T) *UserService {
	t.Helper()

	repo := newTestRepo(t)
	userRepo := &repositories.UserRepository{DB: repo.DB}

	manager, err := utils.NewManager("test-signing-key")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	return &UserService{
		UserRepo:     userRepo,
		TokenManager: manager,
		SigningKey:   "test-signing-key",
	}
}

func TestSignIn(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, models.User{
		Name:     "Administrator",
		Email:    "Admin@Example.com",
		Password: "s3cret",
		Role:     "admin",
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		tokens, err := svc.SignIn(ctx, "admin@example.com", "s3cret")
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if tokens.AccessToken == "" || tokens.RefreshToken == "" {
			t.Fatalf("tokens = %+v", tokens)
		}

		session, err := svc.GetSessionByToken(ctx, tokens.RefreshToken)
		if err != nil {
			t.Fatalf("GetSessionByToken: %v", err)
		}
		if session.Role != "admin" {
			t.Fatalf("role = %q", session.Role)
		}
		if !session.ExpiresAt.After(time.Now()) {
			t.Fatal("session already expired")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "admin@example.com", "nope")
		if !errors.Is(err, models.ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.SignIn(ctx, "ghost@example.com", "s3cret")
		if !errors.Is(err, models.ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("new sign in replaces the session", func(t *testing.T) {
		first, err := svc.SignIn(ctx, "admin@example.com", "s3cret")
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		second, err := svc.SignIn(ctx, "admin@example.com", "s3cret")
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}

		if _, err := svc.GetSessionByToken(ctx, first.RefreshToken); !errors.Is(err, models.ErrSessionNotFound) {
			t.Fatalf("old session err = %v, want ErrSessionNotFound", err)
		}
		if _, err := svc.GetSessionByToken(ctx, second.RefreshToken); err != nil {
			t.Fatalf("new session: %v", err)
		}
	})
}

func TestDeleteExpiredSessions(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	id, err := svc.CreateUser(ctx, models.User{
		Name:     "Administrator",
		Email:    "admin@example.com",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	expired := models.Session{
		UserID:       id,
		RefreshToken: "stale-token",
		Role:         "admin",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}
	if err := svc.UserRepo.SaveSession(ctx, expired); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	deleted, err := svc.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
}
