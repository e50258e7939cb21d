package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/atelierworks/storefront/internal/models"
	"github.com/atelierworks/storefront/internal/repo"
	"github.com/atelierworks/storefront/pkg/logging"
)

const accessTokenTTL = 24 * time.Hour

// IdentityService resolves caller credentials into local users. Tokens carry
// the provider's stable external id as subject; the matching user row (and its
// cart) is created lazily on first sight, so upstream-issued tokens work
// without a prior registration step.
type IdentityService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
}

type AccessClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (s *IdentityService) issueToken(u *models.User) (string, error) {
	claims := AccessClaims{
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ExternalID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.JWTSecret)
}

func (s *IdentityService) parseToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}
	return claims, nil
}

// Resolve verifies the credential and returns the local user, creating the
// user row and its cart on first resolution.
func (s *IdentityService) Resolve(ctx context.Context, credential string) (*models.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, fmt.Errorf("missing credential: %w", ErrUnauthenticated)
	}
	claims, err := s.parseToken(credential)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject: %w", ErrUnauthenticated)
	}

	user, err := s.Repo.GetUserByExternalID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &models.User{
		ExternalID: claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       "user",
	}
	if err := s.Repo.CreateUserWithCart(ctx, user); err != nil {
		// lost a race against a concurrent first request; the row is there now
		if existing, lookupErr := s.Repo.GetUserByExternalID(ctx, claims.Subject); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	logging.FromContext(ctx).Info("user provisioned", "svc", "identity.resolve", "user_id", user.ID)
	return user, nil
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

func (s *IdentityService) Register(ctx context.Context, email, name, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email required: %w", ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", ErrValidation)
	}

	if _, err := s.Repo.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ExternalID:   uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         "user",
	}
	if err := s.Repo.CreateUserWithCart(ctx, user); err != nil {
		return nil, err
	}
	return s.loginResult(user)
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "identity.login")
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthenticated)
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, fmt.Errorf("account has no local password: %w", ErrUnauthenticated)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.Warn("login failed", "email", email)
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthenticated)
	}
	return s.loginResult(user)
}

func (s *IdentityService) loginResult(user *models.User) (*LoginResult, error) {
	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(accessTokenTTL),
		User:        user,
	}, nil
}
