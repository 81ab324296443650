package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/padlockapp/padlock-server/internal/auth"
	"github.com/padlockapp/padlock-server/internal/domain"
	domainerrors "github.com/padlockapp/padlock-server/internal/errors"
	"github.com/padlockapp/padlock-server/internal/id"
	"github.com/padlockapp/padlock-server/internal/store"
	"github.com/padlockapp/padlock-server/internal/store/sqlite"
)

// AuthService handles user registration and authentication.
// Session management is delegated to SessionService.
type AuthService struct {
	store          *sqlite.Store
	sessionService *SessionService
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store *sqlite.Store, sessionService *SessionService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:          store,
		sessionService: sessionService,
		logger:         logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// RegisterResponse contains the created user's public identity.
type RegisterResponse struct {
	User    domain.UserSummary `json:"user"`
	Message string             `json:"message"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains the authenticated user and session token.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", userID, "email", user.Email)

	return &RegisterResponse{
		User:    user.Summary(),
		Message: "User created successfully",
	}, nil
}

// Login authenticates a user and creates a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether the email exists.
			return nil, domainerrors.InvalidCredentials("Invalid credentials")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("Invalid credentials")
	}

	// Update last login.
	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		// Log but don't fail login.
		s.logger.Warn("Failed to update last login time", "user_id", user.ID, "error", err)
	}

	// Opportunistic housekeeping; stale rows just waste space.
	if _, err := s.sessionService.CleanupExpired(ctx); err != nil {
		s.logger.Warn("Failed to clean up expired sessions", "error", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// Logout revokes the session. Safe to call on an already-revoked session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionService.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("User logged out", "session_id", sessionID)
	return nil
}
