// Package identity provides registration, login, token refresh and user
// management. Token issuance lives here; verification-only consumers go
// through the authentication gate in pkg/httputil.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/castellan-io/castellan/internal/authz"
	"github.com/castellan-io/castellan/internal/domain"
	"github.com/castellan-io/castellan/internal/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
)

// TokenPair holds a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Authenticator signs and verifies bearer tokens. Implemented by the jwt
// subpackage; mocked in tests.
type Authenticator interface {
	GenerateTokens(ctx context.Context, user *domain.User) (*TokenPair, error)
	ValidateAccessToken(ctx context.Context, token string) (userID string, role domain.Role, err error)
	ValidateRefreshToken(ctx context.Context, token string) (userID string, err error)
}

// IdentitySummary is the redacted identity shape returned to clients.
// It never carries the password digest; capabilities are derived from the
// registry so the frontend renders exactly what the server will enforce.
type IdentitySummary struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Role         domain.Role         `json:"role"`
	Capabilities []domain.Capability `json:"capabilities"`
}

// Service implements the credential flows and admin user management.
type Service struct {
	repo     Repository
	auth     Authenticator
	registry *authz.Registry
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator, registry *authz.Registry) *Service {
	return &Service{
		repo:     repo,
		auth:     auth,
		registry: registry,
	}
}

// emailFolder case-folds emails so uniqueness and lookups are
// case-insensitive regardless of script.
var emailFolder = cases.Fold()

// NormalizeEmail returns the canonical, case-folded form of an email.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

func (s *Service) summary(user *domain.User) *IdentitySummary {
	return &IdentitySummary{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		Capabilities: s.registry.CapabilityList(user.Role),
	}
}

// RegisterInput holds data for self-registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Register creates a new user account. An omitted role defaults to the
// unprivileged viewer role. Emails differing only in case collide.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*IdentitySummary, error) {
	role := input.Role
	if role == "" {
		role = domain.DefaultRole
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	email := NormalizeEmail(input.Email)

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	// The store enforces email uniqueness; a racing duplicate create comes
	// back as ErrEmailExists and is reported as a conflict like any other.
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.summary(user), nil
}

// LoginResult bundles the issued tokens with the identity summary.
type LoginResult struct {
	Tokens  TokenPair
	Summary *IdentitySummary
}

// Login validates credentials and issues a token pair. Unknown email and
// wrong password produce the identical ErrInvalidCredentials outcome.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("denied").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if user.Banned {
		metrics.LoginsTotal.WithLabelValues("denied").Inc()
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("denied").Inc()
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.auth.GenerateTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()

	return &LoginResult{Tokens: *tokens, Summary: s.summary(user)}, nil
}

// Refresh verifies a refresh token and rotates the pair. The role is always
// re-read from the store, never taken from the old token, so role changes
// take effect on the next refresh. A vanished subject surfaces as
// ErrInvalidToken to avoid leaking account existence.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	userID, err := s.auth.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	if user.Banned {
		return nil, ErrInvalidToken
	}

	tokens, err := s.auth.GenerateTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	return &LoginResult{Tokens: *tokens, Summary: s.summary(user)}, nil
}

// GetUserByID returns the identity summary for a user.
func (s *Service) GetUserByID(ctx context.Context, id string) (*IdentitySummary, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summary(user), nil
}

// ValidateToken implements httputil.TokenValidator for the authentication
// gate. It is purely cryptographic: no store lookup, the identity is exactly
// what the verified token claims.
func (s *Service) ValidateToken(ctx context.Context, token string) (string, domain.Role, error) {
	return s.auth.ValidateAccessToken(ctx, token)
}

// RoleGrants is one serialized registry entry.
type RoleGrants struct {
	Role         domain.Role         `json:"role"`
	Capabilities []domain.Capability `json:"capabilities"`
}

// RoleGrants returns the role→capability table the gates enforce, so
// clients never hardcode their own copy of it.
func (s *Service) RoleGrants() []RoleGrants {
	roles := []domain.Role{
		domain.RoleAdmin,
		domain.RoleEditor,
		domain.RoleViewer,
		domain.RoleModerator,
	}
	grants := make([]RoleGrants, 0, len(roles))
	for _, role := range roles {
		grants = append(grants, RoleGrants{
			Role:         role,
			Capabilities: s.registry.CapabilityList(role),
		})
	}
	return grants
}

// ListUsers lists user summaries, optionally filtered by role.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]IdentitySummary, error) {
	users, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	summaries := make([]IdentitySummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, *s.summary(&users[i]))
	}
	return summaries, nil
}

// CreateUser creates a user on behalf of an administrator. Unlike Register,
// the role is required.
func (s *Service) CreateUser(ctx context.Context, input RegisterInput) (*IdentitySummary, error) {
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	return s.Register(ctx, input)
}

// UpdateUserInput holds optional field updates; nil fields are left as-is.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UpdateUser applies a partial update to a user record. A password update is
// re-hashed; an email update is case-folded and may conflict.
func (s *Service) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*IdentitySummary, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = NormalizeEmail(*input.Email)
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return s.summary(user), nil
}

// DeleteUser removes a user record.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.DeleteUser(ctx, id)
}

// SetUserBanned flips the moderation flag. Banned users cannot log in or
// refresh; outstanding access tokens stay valid until natural expiry since
// tokens are stateless and non-revocable.
func (s *Service) SetUserBanned(ctx context.Context, id string, banned bool) (*IdentitySummary, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Banned = banned
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.summary(user), nil
}
