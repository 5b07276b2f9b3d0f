// Package jwt implements the identity token service on top of signed,
// self-contained JWTs. Tokens are stateless: the server keeps no session
// table, so validity is a function of signature and expiry only.
package jwt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/castellan-io/castellan/internal/domain"
	"github.com/castellan-io/castellan/internal/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "castellan"

// Development fallback secrets, used only when no secret is configured.
// Anything signed with these must be treated as insecure.
const (
	devAccessSecret  = "secret"
	devRefreshSecret = "refresh_secret"
)

// Config contains token signing configuration. Access and refresh tokens are
// signed with different keys so a leaked access token cannot be replayed
// against the refresh endpoint.
type Config struct {
	AccessSecret         string
	RefreshSecret        string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// Authenticator signs and verifies access and refresh tokens.
type Authenticator struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewAuthenticator creates a JWT authenticator. Missing secrets fall back to
// fixed development keys so the service can still run locally, with a loud
// warning; production deployments must configure both.
func NewAuthenticator(cfg Config) *Authenticator {
	accessSecret := cfg.AccessSecret
	if accessSecret == "" {
		slog.Warn("jwt access secret is not configured, using insecure development key")
		accessSecret = devAccessSecret
	}
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		slog.Warn("jwt refresh secret is not configured, using insecure development key")
		refreshSecret = devRefreshSecret
	}

	accessTTL := cfg.AccessTokenDuration
	if accessTTL == 0 {
		accessTTL = time.Hour
	}
	refreshTTL := cfg.RefreshTokenDuration
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &Authenticator{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// accessClaims bind the subject identity and role to an access token.
type accessClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateTokens issues a new access/refresh token pair for the user.
// The refresh token deliberately omits the role: on refresh the role is
// re-resolved from the store, never trusted from the old token.
func (a *Authenticator) GenerateTokens(_ context.Context, user *domain.User) (*identity.TokenPair, error) {
	now := a.now().UTC()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.accessTTL)),
			ID:        uuid.NewString(),
		},
	})
	accessToken, err := access.SignedString(a.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.refreshTTL)),
		ID:        uuid.NewString(),
	})
	refreshToken, err := refresh.SignedString(a.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &identity.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ValidateAccessToken checks signature and expiry of an access token and
// returns the claimed subject and role. All failure modes collapse to
// ErrInvalidToken; the caller has no use for the distinction.
func (a *Authenticator) ValidateAccessToken(_ context.Context, token string) (string, domain.Role, error) {
	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, identity.ErrInvalidToken
		}
		return a.accessSecret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", "", identity.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", "", identity.ErrInvalidToken
	}

	return claims.Subject, claims.Role, nil
}

// ValidateRefreshToken checks signature and expiry of a refresh token and
// returns the claimed subject.
func (a *Authenticator) ValidateRefreshToken(_ context.Context, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, identity.ErrInvalidToken
		}
		return a.refreshSecret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", identity.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", identity.ErrInvalidToken
	}

	return claims.Subject, nil
}
