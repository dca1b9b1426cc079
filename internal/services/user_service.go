package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"grievanceBack/internal/models"
	"grievanceBack/internal/repositories"
	"grievanceBack/utils"
)

const (
	tokenTTL   = 120 * time.Minute
	refreshTTL = 30 * 24 * time.Hour
)

type tokenClaims struct {
	jwt.StandardClaims
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

type UserService struct {
	UserRepo     *repositories.UserRepository
	TokenManager *utils.Manager
	SigningKey   string
}

// SignIn checks admin credentials and hands back an access/refresh pair.
// The refresh token is persisted so it survives restarts.
func (s *UserService) SignIn(ctx context.Context, email, password string) (models.Tokens, error) {
	user, err := s.UserRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		log.Printf("sign in: user not found: %s", email)
		return models.Tokens{}, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Printf("sign in: invalid password for user: %s", email)
		return models.Tokens{}, models.ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &tokenClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
		UserID: user.ID,
		Role:   user.Role,
	})

	accessToken, err := token.SignedString([]byte(s.SigningKey))
	if err != nil {
		log.Printf("sign in: error signing token: %v", err)
		return models.Tokens{}, err
	}

	return s.createSession(ctx, user, accessToken)
}

func (s *UserService) createSession(ctx context.Context, user models.User, accessToken string) (models.Tokens, error) {
	tokens := models.Tokens{AccessToken: accessToken}

	var err error
	tokens.RefreshToken = uuid.New().String()
	if s.TokenManager != nil {
		tokens.RefreshToken, err = s.TokenManager.NewRefreshToken()
		if err != nil {
			return models.Tokens{}, err
		}
	}

	session := models.Session{
		UserID:       user.ID,
		RefreshToken: tokens.RefreshToken,
		Role:         user.Role,
		ExpiresAt:    time.Now().Add(refreshTTL),
	}
	if err := s.UserRepo.SaveSession(ctx, session); err != nil {
		return models.Tokens{}, err
	}

	return tokens, nil
}

// CreateUser hashes the password before storing. Used by the seed path to
// provision the first admin account.
func (s *UserService) CreateUser(ctx context.Context, user models.User) (int, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	user.Password = string(hashed)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = "admin"
	}
	return s.UserRepo.CreateUser(ctx, user)
}

func (s *UserService) GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	return s.UserRepo.GetSessionByToken(ctx, refreshToken)
}

func (s *UserService) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return s.UserRepo.DeleteExpiredSessions(ctx, now)
}
