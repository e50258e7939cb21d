package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierworks/storefront/internal/models"
)

var testSecret = []byte("test-secret-0123456789")

func TestIdentityService_RegisterLoginRoundTrip(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &IdentityService{Repo: r, JWTSecret: testSecret}
	ctx := context.Background()

	reg, err := svc.Register(ctx, "Jordan@Example.com", "Jordan", "sw0rdfish42")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, "jordan@example.com", reg.User.Email)

	// registration provisions the cart alongside the user
	var carts int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Where("user_id = ?", reg.User.ID).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)

	login, err := svc.Login(ctx, "jordan@example.com", "sw0rdfish42")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	resolved, err := svc.Resolve(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resolved.ID)
}

func TestIdentityService_Register_Validation(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &IdentityService{Repo: r, JWTSecret: testSecret}
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "X", "longenough")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "short@example.com", "X", "tiny")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "dup@example.com", "First", "longenough")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "dup@example.com", "Second", "longenough")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestIdentityService_Login_WrongPassword(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &IdentityService{Repo: r, JWTSecret: testSecret}
	ctx := context.Background()

	_, err := svc.Register(ctx, "casey@example.com", "Casey", "correcthorse")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "casey@example.com", "wronghorse")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIdentityService_Resolve_ProvisionsFromUpstreamToken(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &IdentityService{Repo: r, JWTSecret: testSecret}
	ctx := context.Background()

	// a token minted by the identity provider, never seen by this store before
	claims := AccessClaims{
		Email: "fresh@example.com",
		Name:  "Fresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp-user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	user, err := svc.Resolve(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "idp-user-42", user.ExternalID)
	assert.Equal(t, "fresh@example.com", user.Email)

	var carts int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Where("user_id = ?", user.ID).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)

	// second resolution finds the same row instead of creating another
	again, err := svc.Resolve(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	var users int64
	require.NoError(t, r.DB.Model(&models.User{}).Where("external_id = ?", "idp-user-42").Count(&users).Error)
	assert.Equal(t, int64(1), users)
}

func TestIdentityService_Resolve_RejectsBadCredentials(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &IdentityService{Repo: r, JWTSecret: testSecret}
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Resolve(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// wrong signing key
	claims := AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "idp-user-99",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// expired token
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, expired)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
