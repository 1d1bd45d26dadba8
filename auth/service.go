package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong login or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
)

// Service handles authentication and client registration.
type Service struct {
	repo      Repository
	jwtSecret []byte
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
	}
}

// Authenticate checks the login/password pair against stored users and
// returns the caller's identity. Passwords are compared against the stored
// bcrypt hash; the lookup itself is keyed on login only.
func (s *Service) Authenticate(ctx context.Context, login, password string) (Identity, error) {
	user, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{
		UserID:   user.ID,
		Role:     user.Role,
		FullName: user.FullName,
	}, nil
}

// RegisterClient creates a new client account and returns the allocated
// user identifier. The login unique constraint is the duplicate guard, so
// concurrent registrations with the same login cannot both succeed.
func (s *Service) RegisterClient(ctx context.Context, params RegisterClientParams) (int64, error) {
	if len(params.Password) < 8 {
		return 0, ErrWeakPassword
	}

	login := strings.TrimSpace(params.Login)
	fullName := strings.TrimSpace(params.FullName)
	if login == "" || fullName == "" {
		return 0, fmt.Errorf("auth: login and full name are required")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("auth: hash password: %w", err)
	}

	return s.repo.CreateClient(ctx, CreateClientParams{
		Login:        login,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Phone:        strings.TrimSpace(params.Phone),
	})
}

// IssueToken creates a signed JWT for an authenticated identity.
func (s *Service) IssueToken(identity Identity) (string, error) {
	claims := jwt.MapClaims{
		"user_id": identity.UserID,
		"role":    identity.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken validates a JWT and returns the embedded user id and role.
func (s *Service) VerifyToken(tokenString string) (int64, Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("auth: parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("auth: invalid token")
	}

	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("auth: invalid user_id in token")
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return 0, "", fmt.Errorf("auth: invalid role in token")
	}
	role := Role(roleStr)
	if !ValidRole(role) {
		return 0, "", fmt.Errorf("auth: invalid role %q in token", roleStr)
	}

	return int64(rawID), role, nil
}
