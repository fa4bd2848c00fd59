// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never concrete stores, so tests pass
// in-memory fakes and main.go decides which backend to wire.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
	"github.com/MehvishSheikh/attendance-webapp/internal/auth"
	"github.com/MehvishSheikh/attendance-webapp/internal/model"
	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
)

// AuthService handles registration, login, logout and credential checks.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - denylist   repository.TokenDenylist  → tokens revoked by logout
//   - tokens     *auth.TokenService        → generate/validate JWTs
//   - passwords  *auth.PasswordService     → bcrypt hashing
//   - logger     *slog.Logger              → structured logging
type AuthService struct {
	users     repository.UserRepository
	denylist  repository.TokenDenylist
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

var _ auth.Verifier = (*AuthService)(nil)

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	denylist repository.TokenDenylist,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		denylist:  denylist,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token *auth.IssuedToken
}

// RegisterInput is the payload of POST /api/auth/register.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new non-admin account and signs the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	switch {
	case name == "":
		return nil, apperror.MissingField("name")
	case email == "":
		return nil, apperror.MissingField("email")
	case in.Password == "":
		return nil, apperror.MissingField("password")
	}
	// ParseAddress also accepts forms like "Alice <a@x.com>"; only a bare
	// address is a valid login.
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperror.ValidationFailed("email", "email address is not valid")
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	// Early check for a friendly error. The unique index on users.email is
	// what actually stops two racing registrations.
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict(apperror.CodeEmailTaken, "email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issue(user)
}

// Login verifies the password and issues a fresh token. An unknown email and
// a wrong password produce the same invalid_credentials error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperror.MissingField("email")
	}
	if password == "" {
		return nil, apperror.MissingField("password")
	}

	invalid := apperror.Unauthenticated(apperror.CodeInvalidCredentials, "invalid email or password")

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Debug("login rejected", slog.String("userID", user.ID))
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// Logout revokes the caller's token. Revoking a token twice is harmless, and
// a caller without a token id has nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, caller auth.Caller) error {
	if caller.TokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
		return fmt.Errorf("service/auth: revoking token: %w", err)
	}
	s.logger.Info("user logged out", slog.String("userID", caller.UserID))
	return nil
}

// CurrentUser returns the account behind caller. If the account no longer
// exists, the caller's token is revoked and a user_not_found error returned.
func (s *AuthService) CurrentUser(ctx context.Context, caller auth.Caller) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.revokeOrphan(ctx, caller)
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found",
				Code:    apperror.CodeUserNotFound,
			}
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", caller.UserID, err)
	}
	return user, nil
}

// VerifyToken validates the JWT and checks it against the logout denylist.
func (s *AuthService) VerifyToken(ctx context.Context, raw string) (auth.Caller, error) {
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return auth.Caller{}, apperror.Unauthenticated(apperror.CodeUnauthenticated, "invalid or expired token")
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		s.logger.Error("denylist lookup failed", slog.String("error", err.Error()))
		return auth.Caller{}, fmt.Errorf("service/auth: checking denylist: %w", err)
	}
	if revoked {
		return auth.Caller{}, apperror.Unauthenticated(apperror.CodeUnauthenticated, "token has been revoked")
	}

	return auth.Caller{
		UserID:    claims.UserID,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// ResolveCaller loads the user behind c and fills in the admin flag.
func (s *AuthService) ResolveCaller(ctx context.Context, c auth.Caller) (auth.Caller, error) {
	user, err := s.users.GetUserByID(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.revokeOrphan(ctx, c)
		}
		return auth.Caller{}, fmt.Errorf("service/auth: resolving caller: %w", err)
	}
	c.IsAdmin = user.IsAdmin
	return c, nil
}

// SeedAdmin creates the bootstrap admin account if no user has that email.
// An empty email or password disables seeding.
func (s *AuthService) SeedAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		s.logger.Debug("admin account already present", slog.String("email", email))
		return nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: checking admin account: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service/auth: hashing admin password: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		name = "Admin User"
	}
	admin := &model.User{Name: name, Email: email, PasswordHash: hash, IsAdmin: true}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("service/auth: creating admin account: %w", err)
	}

	s.logger.Info("admin account seeded", slog.String("userID", admin.ID), slog.String("email", email))
	return nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// revokeOrphan invalidates a token whose user has been deleted. Failure is
// only logged; the request is rejected either way.
func (s *AuthService) revokeOrphan(ctx context.Context, c auth.Caller) {
	if c.TokenID == "" {
		return
	}
	if err := s.denylist.Revoke(ctx, c.TokenID, c.ExpiresAt); err != nil {
		s.logger.Warn("revoking orphaned token failed",
			slog.String("userID", c.UserID),
			slog.String("error", err.Error()),
		)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
