package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"grievanceBack/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (int, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (name, phone, email, password, role)
		VALUES (?, ?, ?, ?, ?)`,
		user.Name, user.Phone, user.Email, user.Password, user.Role)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone, ''), email, password, role, created_at
		FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.Password, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	return u, err
}

// SaveSession replaces any previous session for the user.
func (r *UserRepository) SaveSession(ctx context.Context, s models.Session) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, s.UserID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (user_id, refresh_token, role, expires_at)
		VALUES (?, ?, ?, ?)`,
		s.UserID, s.RefreshToken, s.Role, s.ExpiresAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	var s models.Session
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, refresh_token, role, expires_at
		FROM sessions WHERE refresh_token = ?`, refreshToken).
		Scan(&s.UserID, &s.RefreshToken, &s.Role, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, models.ErrSessionNotFound
	}
	return s, err
}

func (r *UserRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
